package configuration

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/OS2mo/os2mo-sub000/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist in the working directory. When
// none do, it retries in the nearest parent holding a go.mod, so tests run
// from package directories pick up the repository's files.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles("", envFiles)
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(root, envFiles)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(dir string, envFiles []string) []string {
	out := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoraOptions configures the LoRa client. A zero LORA_BATCH_WINDOW turns
// request batching off.
type LoraOptions struct {
	URL                  string        `env:"LORA_URL" envDefault:"http://localhost:8080/lora"`
	Timeout              time.Duration `env:"LORA_TIMEOUT" envDefault:"30s"`
	AuthToken            string        `env:"LORA_AUTH_TOKEN"`
	BatchWindow          time.Duration `env:"LORA_BATCH_WINDOW" envDefault:"2ms"`
	MaxBatchSize         int           `env:"LORA_MAX_BATCH_SIZE" envDefault:"100"`
	MaxConcurrentFetches int           `env:"LORA_MAX_CONCURRENT_FETCHES" envDefault:"8"`
	UUIDChunkSize        int           `env:"LORA_UUID_CHUNK_SIZE" envDefault:"100"`
	PageSize             int           `env:"LORA_PAGE_SIZE" envDefault:"1000"`
}

// Validate checks the LoRa client configuration for errors
func (l *LoraOptions) Validate() error {
	u, err := url.Parse(strings.TrimSpace(l.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid LORA_URL=%q", l.URL)
	}
	if l.Timeout <= 0 {
		return fmt.Errorf("LORA_TIMEOUT must be positive, got %s", l.Timeout)
	}
	if l.BatchWindow < 0 {
		return fmt.Errorf("LORA_BATCH_WINDOW must be non-negative, got %s", l.BatchWindow)
	}
	if l.MaxBatchSize < 1 {
		return fmt.Errorf("LORA_MAX_BATCH_SIZE must be at least 1, got %d", l.MaxBatchSize)
	}
	if l.MaxConcurrentFetches < 1 {
		return fmt.Errorf("LORA_MAX_CONCURRENT_FETCHES must be at least 1, got %d", l.MaxConcurrentFetches)
	}
	if l.UUIDChunkSize < 1 {
		return fmt.Errorf("LORA_UUID_CHUNK_SIZE must be at least 1, got %d", l.UUIDChunkSize)
	}
	if l.PageSize < 1 {
		return fmt.Errorf("LORA_PAGE_SIZE must be at least 1, got %d", l.PageSize)
	}
	return nil
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"os2mo-lora"`
}

type Configuration struct {
	Lora          LoraOptions
	OpenTelemetry OpenTelemetryOptions

	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	// Empty means log to stdout.
	LogPath string `env:"LOG_PATH"`
	// Sent with every request to LoRa; a fresh uuidv4 is generated per request.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// present, past, future or custom.
	DefaultValidity string `env:"DEFAULT_VALIDITY" envDefault:"present"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

// Parse reads the configuration from the environment without touching env
// files or opening log files.
func Parse() (*Configuration, error) {
	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	if c.LogPath == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
		return nil
	}
	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger
	return nil
}

func (c *Configuration) validate() error {
	if err := c.Lora.Validate(); err != nil {
		return fmt.Errorf("lora configuration error: %w", err)
	}
	mode := strings.ToLower(strings.TrimSpace(c.DefaultValidity))
	if mode == "" {
		mode = "present"
	}
	switch mode {
	case "present", "past", "future", "custom":
	default:
		return fmt.Errorf("invalid DEFAULT_VALIDITY=%q (expected present|past|future|custom)", c.DefaultValidity)
	}
	c.DefaultValidity = mode
	return nil
}

// unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
