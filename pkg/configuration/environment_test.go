package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "LORA_SUB000_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "modules", "lora")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(sub))

	_ = os.Unsetenv("LORA_SUB000_TEST_ENV_LOAD")
	t.Cleanup(func() { _ = os.Unsetenv("LORA_SUB000_TEST_ENV_LOAD") })

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("LORA_SUB000_TEST_ENV_LOAD"))
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse()
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, c.Lora.Timeout)
	require.Equal(t, 100, c.Lora.MaxBatchSize)
	require.Equal(t, "present", c.DefaultValidity)
	require.Equal(t, "X-Request-ID", c.RequestIDHeader)
}

func TestParse_ReadsLoraOptions(t *testing.T) {
	t.Setenv("LORA_URL", "https://lora.example.org/")
	t.Setenv("LORA_BATCH_WINDOW", "5ms")
	t.Setenv("LORA_MAX_CONCURRENT_FETCHES", "3")
	t.Setenv("DEFAULT_VALIDITY", "Future")

	c, err := Parse()
	require.NoError(t, err)
	require.Equal(t, "https://lora.example.org/", c.Lora.URL)
	require.Equal(t, 5*time.Millisecond, c.Lora.BatchWindow)
	require.Equal(t, 3, c.Lora.MaxConcurrentFetches)
	require.Equal(t, "future", c.DefaultValidity)
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"url":         {"LORA_URL": "not a url"},
		"batch size":  {"LORA_MAX_BATCH_SIZE": "0"},
		"concurrency": {"LORA_MAX_CONCURRENT_FETCHES": "0"},
		"chunk size":  {"LORA_UUID_CHUNK_SIZE": "-1"},
		"validity":    {"DEFAULT_VALIDITY": "yesterday"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			require.Error(t, err)
		})
	}
}

func TestLogrusLogLevel(t *testing.T) {
	for level, want := range map[string]logrus.Level{
		"silent":  logrus.PanicLevel,
		"warn":    logrus.WarnLevel,
		"debug":   logrus.DebugLevel,
		"unknown": logrus.ErrorLevel,
	} {
		c := &Configuration{LogLevel: level}
		require.Equal(t, want, c.LogrusLogLevel(), level)
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
