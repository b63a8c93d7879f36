package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// ResultStore persists analysis records.
type ResultStore interface {
	// Save stores a record, replacing any record with the same ID.
	Save(ctx context.Context, record *domain.AnalysisRecord) error

	// Get returns a record by ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.AnalysisRecord, error)

	// List returns the most recent records first, at most limit of them.
	List(ctx context.Context, limit int) ([]domain.AnalysisRecord, error)
}
