package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.DocumentAnalyzer = (*AnalyzerService)(nil)

// Factories holds the two plugin factory modes.
// Shared may be nil, in which case Isolated is always used.
type Factories struct {
	Isolated driven.PluginFactory
	Shared   driven.PluginFactory
}

// AnalyzerService analyses whole documents: chunk, orchestrate, persist.
type AnalyzerService struct {
	chunker   driven.Chunker
	factories Factories
	decider   driven.RelevanceDecider
	store     driven.ResultStore
	settings  domain.AnalysisSettings
	ids       *ExecutionIDs
}

// NewAnalyzerService creates a new analyzer service.
// decider and store may be nil.
func NewAnalyzerService(
	chunker driven.Chunker,
	factories Factories,
	decider driven.RelevanceDecider,
	store driven.ResultStore,
	settings domain.AnalysisSettings,
) *AnalyzerService {
	return &AnalyzerService{
		chunker:   chunker,
		factories: factories,
		decider:   decider,
		store:     store,
		settings:  settings,
		ids:       defaultIDs,
	}
}

// Analyze runs the selected plugins over the document and stores the record.
// A storage failure is logged and does not discard the result.
func (s *AnalyzerService) Analyze(ctx context.Context, doc *domain.Document, opts driving.AnalyzeOptions) (*domain.AnalysisRecord, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.ErrEmptyDocument
	}

	plugins := opts.Plugins
	if len(plugins) == 0 {
		plugins = s.settings.Plugins
	}
	if len(plugins) == 0 {
		return nil, domain.ErrNoPlugins
	}

	logger.Section("Chunking")
	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	logger.Debug("%d chunks from %d bytes", len(chunks), len(doc.Content))

	timeout := s.settings.PluginTimeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	isolation := s.settings.Isolation
	if opts.Isolation != nil {
		isolation = *opts.Isolation
	}

	supervisor := NewSupervisor(
		WithTimeout(timeout),
		WithMaxAttempts(s.settings.MaxAttempts),
		WithRetryBaseDelay(s.settings.RetryBaseDelay),
		WithExecutionIDs(s.ids),
	)
	orchestrator := NewOrchestrator(s.factory(isolation), NewRouter(s.decider), supervisor)

	logger.Section("Analysis")
	result, err := orchestrator.Analyze(ctx, plugins, chunks, doc.Content)
	if err != nil {
		return nil, err
	}

	record := &domain.AnalysisRecord{
		ID:           uuid.New().String(),
		DocumentURI:  doc.URI,
		Title:        doc.Title,
		DocumentHash: hashContent(doc.Content),
		Plugins:      plugins,
		Result:       result,
		CreatedAt:    time.Now(),
	}

	if s.store != nil && !opts.SkipPersist {
		if err := s.store.Save(ctx, record); err != nil {
			logger.L().Warn("failed to save analysis", zap.String("id", record.ID), zap.Error(err))
		}
	}
	return record, nil
}

func (s *AnalyzerService) factory(isolated bool) driven.PluginFactory {
	if isolated || s.factories.Shared == nil {
		return s.factories.Isolated
	}
	return s.factories.Shared
}

// Plugins lists the descriptors of every registered plugin.
func (s *AnalyzerService) Plugins() []domain.PluginDescriptor {
	var out []domain.PluginDescriptor
	for _, id := range domain.AllPluginIDs() {
		if d, err := s.factories.Isolated.Descriptor(id); err == nil {
			out = append(out, d)
		}
	}
	return out
}

// History lists stored analyses, newest first.
func (s *AnalyzerService) History(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx, limit)
}

// Get returns a stored analysis.
func (s *AnalyzerService) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
