package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Orchestrator fans an analysis out across plugins and merges the outcomes.
type Orchestrator struct {
	factory    driven.PluginFactory
	router     *Router
	supervisor *Supervisor
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(factory driven.PluginFactory, router *Router, supervisor *Supervisor) *Orchestrator {
	if router == nil {
		router = NewRouter(nil)
	}
	if supervisor == nil {
		supervisor = NewSupervisor()
	}
	return &Orchestrator{
		factory:    factory,
		router:     router,
		supervisor: supervisor,
		now:        time.Now,
	}
}

// Analyze routes chunks, runs every selected plugin concurrently and merges
// the results. Only malformed input is returned as an error; plugin failures
// become failed sections of the result.
func (o *Orchestrator) Analyze(ctx context.Context, ids []domain.PluginID, chunks []domain.Chunk, documentText string) (*domain.AggregatedResult, error) {
	ids, err := o.validate(ids, chunks, documentText)
	if err != nil {
		return nil, err
	}
	started := o.now()

	ctx, span := startSpan(ctx, "analysis",
		attribute.Int("plugins", len(ids)),
		attribute.Int("chunks", len(chunks)))
	defer span.End()

	plugins := make([]driven.Plugin, 0, len(ids))
	var outcomes []domain.PluginOutcome
	for _, id := range ids {
		p, err := o.factory.Create(id)
		if err != nil {
			outcomes = append(outcomes, o.constructionFailure(id, err))
			continue
		}
		plugins = append(plugins, p)
	}

	decisions := o.router.Route(ctx, plugins, chunks)

	results := make([]domain.PluginOutcome, len(plugins))
	var g errgroup.Group
	for i, p := range plugins {
		g.Go(func() error {
			results[i] = o.supervisor.Run(ctx, p, decisions[p.ID()], documentText)
			return nil
		})
	}
	_ = g.Wait()
	outcomes = append(outcomes, results...)

	result := o.merge(outcomes, decisions, len(chunks), documentText)
	result.Summary.Duration = o.now().Sub(started)

	logger.L().Info("analysis complete",
		zap.Int("plugins", len(ids)),
		zap.Int("succeeded", result.Summary.Succeeded),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Int("findings", result.Summary.TotalFindings),
		zap.Int("dropped", result.Summary.Dropped),
		zap.Duration("duration", result.Summary.Duration))
	return result, nil
}

// validate rejects malformed input before any concurrent work starts
// and returns the de-duplicated plugin list.
func (o *Orchestrator) validate(ids []domain.PluginID, chunks []domain.Chunk, documentText string) ([]domain.PluginID, error) {
	if strings.TrimSpace(documentText) == "" {
		return nil, domain.ErrEmptyDocument
	}
	if len(ids) == 0 {
		return nil, domain.ErrNoPlugins
	}
	seen := make(map[domain.PluginID]bool, len(ids))
	unique := make([]domain.PluginID, 0, len(ids))
	for _, id := range ids {
		if _, err := o.factory.Descriptor(id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks", domain.ErrInvalidInput)
	}
	if err := domain.ValidateChunks(documentText, chunks); err != nil {
		return nil, err
	}
	return unique, nil
}

func (o *Orchestrator) constructionFailure(id domain.PluginID, err error) domain.PluginOutcome {
	desc, _ := o.factory.Descriptor(id)
	class := Classify(err)
	logger.L().Warn("plugin construction failed", zap.String("plugin", id.String()), zap.Error(err))
	return domain.PluginOutcome{
		PluginID:     id,
		Status:       domain.SectionFailed,
		Err:          fmt.Errorf("create plugin: %w", err),
		ErrorClass:   class,
		RecoveryHint: RecoveryHint(class, desc),
	}
}

func (o *Orchestrator) merge(
	outcomes []domain.PluginOutcome,
	decisions map[domain.PluginID]domain.RoutingDecision,
	totalChunks int,
	documentText string,
) *domain.AggregatedResult {
	result := &domain.AggregatedResult{
		Sections: make(map[domain.PluginID]*domain.PluginSection, len(outcomes)),
		Comments: []domain.Comment{},
		Errors:   []domain.PluginError{},
		Summary: domain.Summary{
			TotalChunks:       totalChunks,
			FindingsPerPlugin: make(map[domain.PluginID]int, len(outcomes)),
		},
	}

	for _, out := range outcomes {
		desc, _ := o.factory.Descriptor(out.PluginID)
		decision := decisions[out.PluginID]
		section := &domain.PluginSection{
			PluginID:    out.PluginID,
			DisplayName: desc.DisplayName,
			Status:      out.Status,
			Reason:      decision.Reason,
			ChunkCount:  len(decision.Chunks),
			Comments:    []domain.Comment{},
			Attempts:    len(out.Attempts),
			Duration:    out.Duration,
		}

		switch out.Status {
		case domain.SectionFailed:
			section.ErrorClass = out.ErrorClass
			section.RecoveryHint = out.RecoveryHint
			if out.Err != nil {
				section.Error = out.Err.Error()
			}
			result.Errors = append(result.Errors, domain.PluginError{
				PluginID:     out.PluginID,
				DisplayName:  desc.DisplayName,
				ErrorClass:   out.ErrorClass,
				Message:      section.Error,
				RecoveryHint: out.RecoveryHint,
			})
			result.Summary.Failed++

		default:
			if out.Result != nil {
				section.Summary = out.Result.Summary
				section.Cost = out.Result.Cost
				section.Dropped = out.Result.Dropped
				for _, c := range out.Result.Comments {
					if !c.Location.Valid(documentText) {
						section.Dropped++
						logger.L().Warn("discarding comment with invalid location",
							zap.String("plugin", out.PluginID.String()),
							zap.Int("start", c.Location.StartOffset),
							zap.Int("end", c.Location.EndOffset))
						continue
					}
					section.Comments = append(section.Comments, c)
				}
			}
			if out.Status == domain.SectionSkipped {
				result.Summary.Skipped++
			} else {
				result.Summary.Succeeded++
			}
		}

		result.Sections[out.PluginID] = section
		result.Comments = append(result.Comments, section.Comments...)
		result.Summary.FindingsPerPlugin[out.PluginID] = len(section.Comments)
		result.Summary.TotalCost += section.Cost
		result.Summary.Dropped += section.Dropped
	}

	sortComments(result.Comments)
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].PluginID < result.Errors[j].PluginID
	})
	result.Summary.TotalFindings = len(result.Comments)
	return result
}

// sortComments orders comments by position, then plugin and id for stability.
func sortComments(comments []domain.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if a.Location.StartOffset != b.Location.StartOffset {
			return a.Location.StartOffset < b.Location.StartOffset
		}
		if a.Location.EndOffset != b.Location.EndOffset {
			return a.Location.EndOffset < b.Location.EndOffset
		}
		if a.PluginID != b.PluginID {
			return a.PluginID < b.PluginID
		}
		return a.ID < b.ID
	})
}
