package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Plugin is one analysis capability.
// Implementations are tagged variants of the closed plugin catalogue.
type Plugin interface {
	// ID returns the plugin identity.
	ID() domain.PluginID

	// Descriptor returns the static catalogue entry.
	Descriptor() domain.PluginDescriptor

	// Relevance describes the plugin's domain for routing.
	Relevance() domain.RelevanceHint

	// Analyze runs the plugin over its assigned chunks of documentText.
	// Every returned comment satisfies the offset invariant against documentText.
	Analyze(ctx context.Context, chunks []domain.Chunk, documentText string) (*domain.PluginResult, error)

	// Cost returns the cumulative cost incurred by this instance.
	Cost() float64
}

// PluginBuilder constructs a plugin instance from shared dependencies.
type PluginBuilder func(deps PluginDeps) (Plugin, error)

// PluginDeps are the collaborators handed to plugin constructors.
type PluginDeps struct {
	// Analysis produces candidates for LLM-style plugins.
	Analysis AnalysisService

	// Links probes URLs for the link plugin. May be nil.
	Links LinkProber

	// MinPartialLength tunes the location engine's prefix strategy.
	MinPartialLength int
}

// PluginFactory hands out plugin instances.
type PluginFactory interface {
	// Create returns an instance of the plugin.
	// Returns ErrUnknownPlugin if the identity is not registered.
	Create(id domain.PluginID) (Plugin, error)

	// Descriptor returns the catalogue entry without constructing a plugin.
	Descriptor(id domain.PluginID) (domain.PluginDescriptor, error)

	// Isolated reports whether Create builds a fresh instance every time.
	Isolated() bool
}
