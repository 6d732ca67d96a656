package lora

import (
	"context"
	"sync"
	"time"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
	"github.com/OS2mo/os2mo-sub000/pkg/configuration"
)

type Options struct {
	BatchWindow          time.Duration
	MaxBatchSize         int
	MaxConcurrentFetches int
	UUIDChunkSize        int
	PageSize             int
}

func OptionsFromConfig(conf configuration.LoraOptions) Options {
	return Options{
		BatchWindow:          conf.BatchWindow,
		MaxBatchSize:         conf.MaxBatchSize,
		MaxConcurrentFetches: conf.MaxConcurrentFetches,
		UUIDChunkSize:        conf.UUIDChunkSize,
		PageSize:             conf.PageSize,
	}
}

// Connector is the per-request view of LoRa: one validity window and one
// Scope per object type, each with its own coalescer. Do not share a
// Connector between unrelated requests.
type Connector struct {
	client *Client
	window services.ValidityWindow
	opts   Options

	mu     sync.Mutex
	scopes map[string]*Scope
}

func NewConnector(client *Client, window services.ValidityWindow, opts Options) *Connector {
	return &Connector{
		client: client,
		window: window,
		opts:   opts,
		scopes: map[string]*Scope{},
	}
}

func (c *Connector) Window() services.ValidityWindow { return c.window }

// Scope returns the scope for path, creating it on first use.
func (c *Connector) Scope(path string) *Scope {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.scopes[path]
	if !ok {
		s = newScope(c.client, path, c.window, c.opts)
		c.scopes[path] = s
	}
	return s
}

func (c *Connector) Organisation() *Scope   { return c.Scope(ScopeOrganisation) }
func (c *Connector) OrgUnit() *Scope        { return c.Scope(ScopeOrgUnit) }
func (c *Connector) OrgFunction() *Scope    { return c.Scope(ScopeOrgFunction) }
func (c *Connector) User() *Scope           { return c.Scope(ScopeUser) }
func (c *Connector) ITSystem() *Scope       { return c.Scope(ScopeITSystem) }
func (c *Connector) Class() *Scope          { return c.Scope(ScopeClass) }
func (c *Connector) Facet() *Scope          { return c.Scope(ScopeFacet) }
func (c *Connector) Classification() *Scope { return c.Scope(ScopeClassification) }

// Flush dispatches the pending loads of every scope.
func (c *Connector) Flush() {
	c.mu.Lock()
	scopes := make([]*Scope, 0, len(c.scopes))
	for _, s := range c.scopes {
		scopes = append(scopes, s)
	}
	c.mu.Unlock()
	for _, s := range scopes {
		s.Flush()
	}
}

// GetEffects slices reg within the Connector's window.
func (c *Connector) GetEffects(reg *registration.Registration, relevant, also services.FieldSelection) []services.EffectSlice {
	return services.GetEffects(reg, relevant, also, c.window)
}

type connectorKey struct{}

func WithConnector(ctx context.Context, c *Connector) context.Context {
	return context.WithValue(ctx, connectorKey{}, c)
}

// FromContext returns the Connector attached to ctx.
func FromContext(ctx context.Context) (*Connector, bool) {
	c, ok := ctx.Value(connectorKey{}).(*Connector)
	return c, ok && c != nil
}
