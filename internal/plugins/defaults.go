package plugins

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/factcheck"
	"github.com/custodia-labs/marginalia/internal/plugins/forecast"
	"github.com/custodia-labs/marginalia/internal/plugins/links"
	"github.com/custodia-labs/marginalia/internal/plugins/mathcheck"
	"github.com/custodia-labs/marginalia/internal/plugins/spelling"
)

// RegisterDefaults registers every built-in plugin.
// Call this during application initialisation, before Seal.
func RegisterDefaults(r *Registry) error {
	builtins := []struct {
		desc  domain.PluginDescriptor
		build driven.PluginBuilder
	}{
		{mathcheck.Descriptor, mathcheck.New},
		{spelling.Descriptor, spelling.New},
		{factcheck.Descriptor, factcheck.New},
		{forecast.Descriptor, forecast.New},
		{links.Descriptor, links.New},
	}
	for _, b := range builtins {
		if err := r.Register(b.desc, b.build); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry returns a sealed registry holding the built-in plugins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		panic(err)
	}
	r.Seal()
	return r
}
