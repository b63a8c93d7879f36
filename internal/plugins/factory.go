package plugins

import (
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.PluginFactory = (*Factory)(nil)

// Factory hands out plugin instances built from a registry.
// An isolated factory builds a fresh instance on every Create, so no state
// leaks between analyses. A shared factory reuses one instance per plugin.
type Factory struct {
	registry *Registry
	deps     driven.PluginDeps
	isolated bool

	mu     sync.Mutex
	shared map[domain.PluginID]driven.Plugin
}

// NewIsolatedFactory creates a factory that builds per execution.
func NewIsolatedFactory(registry *Registry, deps driven.PluginDeps) *Factory {
	return &Factory{registry: registry, deps: deps, isolated: true}
}

// NewSharedFactory creates a factory that caches one instance per plugin.
func NewSharedFactory(registry *Registry, deps driven.PluginDeps) *Factory {
	return &Factory{
		registry: registry,
		deps:     deps,
		shared:   make(map[domain.PluginID]driven.Plugin),
	}
}

// Create returns a plugin instance.
func (f *Factory) Create(id domain.PluginID) (driven.Plugin, error) {
	if f.isolated {
		return f.registry.Build(id, f.deps)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.shared[id]; ok {
		return p, nil
	}
	p, err := f.registry.Build(id, f.deps)
	if err != nil {
		return nil, err
	}
	f.shared[id] = p
	return p, nil
}

// Descriptor returns the catalogue entry without building the plugin.
func (f *Factory) Descriptor(id domain.PluginID) (domain.PluginDescriptor, error) {
	return f.registry.Descriptor(id)
}

// Isolated reports whether every Create builds a fresh instance.
func (f *Factory) Isolated() bool { return f.isolated }
