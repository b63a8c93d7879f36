package base

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Assessor turns a candidate into a finding. Returning false discards the
// candidate without counting it as dropped, e.g. a claim judged correct.
type Assessor func(c domain.Candidate) (domain.Finding, bool)

// DefaultAssess keeps every candidate with the service's suggested severity.
func DefaultAssess(c domain.Candidate) (domain.Finding, bool) {
	return domain.Finding{
		Candidate: c,
		Severity:  domain.ParseSeverity(c.SuggestedSeverity),
		Message:   c.Message,
	}, true
}

// Config configures a Runner.
type Config struct {
	Descriptor       domain.PluginDescriptor
	Instruction      string
	Analysis         driven.AnalysisService
	Assess           Assessor
	MinPartialLength int
}

// Runner is a complete plugin backed by an AnalysisService. It sends each
// assigned chunk to the service, assesses the candidates and anchors them.
type Runner struct {
	*Core
	instruction string
	analysis    driven.AnalysisService
	assess      Assessor
}

// NewRunner creates a runner plugin.
// Returns ErrAnalysisUnavailable when no analysis service is configured.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Analysis == nil {
		return nil, fmt.Errorf("%w: %s needs an analysis service", domain.ErrAnalysisUnavailable, cfg.Descriptor.ID)
	}
	assess := cfg.Assess
	if assess == nil {
		assess = DefaultAssess
	}
	return &Runner{
		Core:        NewCore(cfg.Descriptor, cfg.MinPartialLength),
		instruction: cfg.Instruction,
		analysis:    cfg.Analysis,
		assess:      assess,
	}, nil
}

// Analyze runs the analysis service over every chunk. Any service error
// fails the whole call so the supervisor can retry it.
func (r *Runner) Analyze(ctx context.Context, chunks []domain.Chunk, documentText string) (*domain.PluginResult, error) {
	result := &domain.PluginResult{Comments: []domain.Comment{}}
	var summaries []string

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := r.analysis.Analyze(ctx, driven.AnalysisTask{
			PluginID:     r.ID(),
			Instruction:  r.instruction,
			Chunks:       []domain.Chunk{chunk},
			DocumentText: documentText,
		})
		if err != nil {
			return nil, fmt.Errorf("%s chunk %d: %w", r.analysis.Name(), chunk.Position, err)
		}
		r.AddCost(resp.Cost)
		result.Cost += resp.Cost
		if s := strings.TrimSpace(resp.Summary); s != "" {
			summaries = append(summaries, s)
		}

		findings := make([]domain.Finding, 0, len(resp.Candidates))
		for i, c := range resp.Candidates {
			c.PluginID = r.ID()
			if c.ID == "" {
				c.ID = fmt.Sprintf("%s-%d-%d", r.ID(), chunk.Position, i)
			}
			if c.SourceChunkID == "" {
				c.SourceChunkID = chunk.ID
			}
			if f, ok := r.assess(c); ok {
				findings = append(findings, f)
			}
		}
		comments, dropped := r.Anchor(chunk, documentText, findings)
		result.Comments = append(result.Comments, comments...)
		result.Dropped += dropped
	}

	result.Summary = Summarize(len(result.Comments), len(chunks), summaries)
	return result, nil
}

// Summarize builds a section summary from a finding count and the
// service's own summaries.
func Summarize(findings, chunks int, notes []string) string {
	head := fmt.Sprintf("%d %s in %d %s", findings, plural(findings, "finding"), chunks, plural(chunks, "chunk"))
	if len(notes) == 0 {
		return head
	}
	return head + ". " + strings.Join(notes, " ")
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
