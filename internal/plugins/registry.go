// Package plugins holds the closed plugin catalogue: a registry mapping each
// plugin identity to its builder, and factories that hand out instances.
package plugins

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

type entry struct {
	desc  domain.PluginDescriptor
	build driven.PluginBuilder
}

// Registry maps plugin identities to their builders.
// Only identities in the closed catalogue may be registered, and once
// sealed the registry rejects further registration.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.PluginID]entry
	sealed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[domain.PluginID]entry)}
}

// Register adds a plugin builder.
func (r *Registry) Register(desc domain.PluginDescriptor, build driven.PluginBuilder) error {
	if !desc.ID.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPlugin, desc.ID)
	}
	if build == nil {
		return fmt.Errorf("%w: nil builder for %s", domain.ErrInvalidInput, desc.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", domain.ErrRegistrySealed, desc.ID)
	}
	if _, ok := r.entries[desc.ID]; ok {
		return fmt.Errorf("plugin %s already registered", desc.ID)
	}
	r.entries[desc.ID] = entry{desc: desc, build: build}
	return nil
}

// Seal prevents further registration.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether the registry is sealed.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Has returns true if the plugin is registered.
func (r *Registry) Has(id domain.PluginID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[id]
	return ok
}

// Descriptor returns a registered plugin's catalogue entry.
func (r *Registry) Descriptor(id domain.PluginID) (domain.PluginDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return domain.PluginDescriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownPlugin, id)
	}
	return e.desc, nil
}

// Build constructs a new instance of the plugin.
func (r *Registry) Build(id domain.PluginID, deps driven.PluginDeps) (driven.Plugin, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPlugin, id)
	}
	return e.build(deps)
}

// IDs returns the registered identities in catalogue order.
func (r *Registry) IDs() []domain.PluginID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]domain.PluginID, 0, len(r.entries))
	for _, id := range domain.AllPluginIDs() {
		if _, ok := r.entries[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
