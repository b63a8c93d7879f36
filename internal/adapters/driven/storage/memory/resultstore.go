package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
type ResultStore struct {
	mu      sync.RWMutex
	records map[string]domain.AnalysisRecord
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		records: make(map[string]domain.AnalysisRecord),
	}
}

// Save stores or replaces a record.
func (s *ResultStore) Save(_ context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

// Get retrieves a record by ID.
func (s *ResultStore) Get(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns the newest records first. A non-positive limit returns all.
func (s *ResultStore) List(_ context.Context, limit int) ([]domain.AnalysisRecord, error) {
	s.mu.RLock()
	out := make([]domain.AnalysisRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
