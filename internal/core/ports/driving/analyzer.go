package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DocumentAnalyzer runs a full analysis: chunking, routing, plugin execution and persistence.
type DocumentAnalyzer interface {
	// Analyze analyses a document and returns the stored record.
	Analyze(ctx context.Context, doc *domain.Document, opts AnalyzeOptions) (*domain.AnalysisRecord, error)

	// Plugins lists the available plugin descriptors.
	Plugins() []domain.PluginDescriptor

	// History lists past analyses, newest first.
	History(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)

	// Get returns a past analysis by ID.
	Get(ctx context.Context, id string) (*domain.AnalysisRecord, error)
}

// AnalyzeOptions override settings for one analysis.
type AnalyzeOptions struct {
	// Plugins selects plugins. Empty means the configured default set.
	Plugins []domain.PluginID

	// Timeout overrides the per-attempt timeout when positive.
	Timeout time.Duration

	// Isolation overrides the isolation setting when non-nil.
	Isolation *bool

	// SkipPersist disables saving the record.
	SkipPersist bool
}
