// Package base provides the plumbing shared by every plugin: descriptor
// accessors, per-instance cost accounting, and anchoring findings to exact
// document ranges with the location engine.
package base

import (
	"sync"
	"unicode/utf8"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/locate"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// maxLoggedQuote bounds quotes echoed in debug logs.
const maxLoggedQuote = 80

// Core holds state common to all plugins.
// It is not a complete plugin; embed it and add Analyze.
type Core struct {
	desc   domain.PluginDescriptor
	engine *locate.Engine

	mu   sync.Mutex
	cost float64
}

// NewCore creates the shared part of a plugin.
func NewCore(desc domain.PluginDescriptor, minPartialLength int) *Core {
	return &Core{
		desc:   desc,
		engine: locate.New(locate.WithMinPartialLength(minPartialLength)),
	}
}

// ID returns the plugin identity.
func (c *Core) ID() domain.PluginID { return c.desc.ID }

// Descriptor returns the catalogue entry.
func (c *Core) Descriptor() domain.PluginDescriptor { return c.desc }

// Relevance returns the routing hint.
func (c *Core) Relevance() domain.RelevanceHint { return c.desc.Relevance }

// Cost returns the cost accumulated by this instance.
func (c *Core) Cost() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cost
}

// AddCost adds to the instance's cumulative cost.
func (c *Core) AddCost(cost float64) {
	if cost <= 0 {
		return
	}
	c.mu.Lock()
	c.cost += cost
	c.mu.Unlock()
}

// Anchor resolves each finding's quote against documentText, searching the
// chunk's range first. Findings that cannot be located are dropped and counted.
func (c *Core) Anchor(chunk domain.Chunk, documentText string, findings []domain.Finding) ([]domain.Comment, int) {
	comments := make([]domain.Comment, 0, len(findings))
	dropped := 0
	window := chunk.Span()
	for _, f := range findings {
		loc, ok := c.engine.Locate(f.QuotedText, documentText, domain.LocateOptions{
			CaseInsensitive: c.desc.CaseInsensitiveLocate,
			Context:         f.Context,
			AllowPartial:    true,
			AllowFuzzy:      true,
			Window:          &window,
		})
		if !ok {
			dropped++
			logger.Debug("%s: dropping finding %s, quote not found: %q",
				c.desc.ID, f.ID, truncate(f.QuotedText, maxLoggedQuote))
			continue
		}
		comments = append(comments, domain.Comment{Finding: f, Location: loc})
	}
	return comments, dropped
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
