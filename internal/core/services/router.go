package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Router decides which chunks each plugin receives.
type Router struct {
	decider driven.RelevanceDecider
}

// NewRouter creates a router. A nil decider routes every chunk to every plugin.
func NewRouter(decider driven.RelevanceDecider) *Router {
	return &Router{decider: decider}
}

// Route returns one decision per plugin. Unconditional plugins always receive
// every chunk; the others receive the chunks the decider deems relevant.
// A decider error counts as relevant and is logged.
// Chunks are never modified.
func (r *Router) Route(ctx context.Context, plugins []driven.Plugin, chunks []domain.Chunk) map[domain.PluginID]domain.RoutingDecision {
	decisions := make(map[domain.PluginID]domain.RoutingDecision, len(plugins))
	for _, p := range plugins {
		decisions[p.ID()] = r.route(ctx, p, chunks)
	}
	return decisions
}

func (r *Router) route(ctx context.Context, p driven.Plugin, chunks []domain.Chunk) domain.RoutingDecision {
	id := p.ID()
	if p.Descriptor().RunUnconditionally {
		return domain.RoutingDecision{PluginID: id, Chunks: chunks, Reason: domain.ReasonAlwaysRun}
	}
	if r.decider == nil {
		return domain.RoutingDecision{PluginID: id, Chunks: chunks, Reason: "no relevance decider configured"}
	}

	hint := p.Relevance()
	assigned := make([]domain.Chunk, 0, len(chunks))
	var firstReason string
	for _, c := range chunks {
		verdict, err := r.decider.Decide(ctx, c, hint)
		if err != nil {
			logger.L().Warn("relevance decision failed, including chunk",
				zap.String("plugin", id.String()), zap.String("chunk", c.ID), zap.Error(err))
			assigned = append(assigned, c)
			continue
		}
		if verdict.Relevant {
			if firstReason == "" {
				firstReason = verdict.Reason
			}
			assigned = append(assigned, c)
		}
	}

	if len(assigned) == 0 {
		return domain.RoutingDecision{PluginID: id, Reason: domain.ReasonNoRelevantContent}
	}
	reason := fmt.Sprintf("%d of %d chunks relevant", len(assigned), len(chunks))
	if firstReason != "" {
		reason += ": " + firstReason
	}
	logger.Debug("routed %s: %s", id, reason)
	return domain.RoutingDecision{PluginID: id, Chunks: assigned, Reason: reason}
}
