package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// RelevanceDecider decides whether a chunk plausibly belongs to a plugin's domain.
type RelevanceDecider interface {
	Decide(ctx context.Context, chunk domain.Chunk, hint domain.RelevanceHint) (domain.RelevanceVerdict, error)
}
