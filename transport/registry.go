package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/basaltrun/dealer/internal/core"
	"github.com/basaltrun/dealer/internal/logging"
)

// Registry maintains a mapping of transport-kind names to their builders and
// capabilities. Backend packages register themselves using Register.
type Registry struct {
	mu           sync.RWMutex
	builders     map[string]Builder
	capabilities map[string]Capabilities
}

// DefaultRegistry is the global transport registry backend packages
// register against from their init() functions.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new, empty transport registry.
func NewRegistry() *Registry {
	return &Registry{
		builders:     make(map[string]Builder),
		capabilities: make(map[string]Capabilities),
	}
}

// Register adds a HandleProxy builder to the registry under name (e.g.
// "channel", "kafka", "nats").
func (r *Registry) Register(name string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
}

// RegisterWithCapabilities adds a builder and its capabilities.
func (r *Registry) RegisterWithCapabilities(name string, builder Builder, caps Capabilities) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[name] = builder
	r.capabilities[name] = caps
}

// GetCapabilities returns the capabilities registered for name, or a zero
// Capabilities carrying just the name if none were registered.
func (r *Registry) GetCapabilities(name string) Capabilities {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if caps, ok := r.capabilities[name]; ok {
		return caps
	}
	return Capabilities{Name: name}
}

// Build constructs a HandleProxy for path using the builder registered under
// name.
func (r *Registry) Build(ctx context.Context, name string, path core.Path, endpoints []core.Endpoint, cfg Config, logger logging.Logger) (HandleProxy, error) {
	r.mu.RLock()
	builder, ok := r.builders[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("transport: unknown backend %q (registered: %v)", name, r.Names())
	}

	return builder(ctx, path, endpoints, cfg, logger)
}

// Names returns the registered backend names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// Has reports whether a backend is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.builders[name]
	return ok
}

// Register adds a builder to the default registry.
func Register(name string, builder Builder) {
	DefaultRegistry.Register(name, builder)
}

// RegisterWithCapabilities adds a builder and its capabilities to the
// default registry.
func RegisterWithCapabilities(name string, builder Builder, caps Capabilities) {
	DefaultRegistry.RegisterWithCapabilities(name, builder, caps)
}

// Build constructs a HandleProxy using the default registry.
func Build(ctx context.Context, name string, path core.Path, endpoints []core.Endpoint, cfg Config, logger logging.Logger) (HandleProxy, error) {
	return DefaultRegistry.Build(ctx, name, path, endpoints, cfg, logger)
}
