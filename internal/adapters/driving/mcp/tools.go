package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/loader"
)

// AnalyzeInput is the input schema for the analyze_document tool.
type AnalyzeInput struct {
	Text           string   `json:"text" jsonschema:"the full document text to analyse"`
	Title          string   `json:"title,omitempty" jsonschema:"optional document title"`
	Plugins        []string `json:"plugins,omitempty" jsonschema:"plugins to run: math, spelling, fact-check, forecast, link-analysis (default all configured)"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"per-attempt plugin timeout in seconds"`
	NoSave         bool     `json:"no_save,omitempty" jsonschema:"do not store the analysis in history"`
}

// AnalyzeOutput is the output schema for the analyze_document tool.
type AnalyzeOutput struct {
	AnalysisID string          `json:"analysis_id"`
	Comments   []CommentOutput `json:"comments"`
	Errors     []ErrorOutput   `json:"errors"`
	Summary    SummaryOutput   `json:"summary"`
}

// CommentOutput is one located finding.
type CommentOutput struct {
	Plugin      string  `json:"plugin"`
	Severity    string  `json:"severity"`
	Message     string  `json:"message"`
	Quote       string  `json:"quote"`
	StartOffset int     `json:"start_offset"`
	EndOffset   int     `json:"end_offset"`
	Line        int     `json:"line"`
	Strategy    string  `json:"strategy"`
	Confidence  float64 `json:"confidence"`
}

// ErrorOutput describes a plugin that failed.
type ErrorOutput struct {
	Plugin       string `json:"plugin"`
	ErrorClass   string `json:"error_class"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint"`
}

// SummaryOutput holds aggregate statistics.
type SummaryOutput struct {
	TotalChunks   int     `json:"total_chunks"`
	TotalFindings int     `json:"total_findings"`
	Dropped       int     `json:"dropped"`
	Succeeded     int     `json:"succeeded"`
	Failed        int     `json:"failed"`
	Skipped       int     `json:"skipped"`
	TotalCost     float64 `json:"total_cost"`
	DurationMS    int64   `json:"duration_ms"`
}

// LocateInput is the input schema for the locate_quote tool.
type LocateInput struct {
	Quote           string `json:"quote" jsonschema:"the text to find"`
	Text            string `json:"text" jsonschema:"the document text to search"`
	Context         string `json:"context,omitempty" jsonschema:"a larger excerpt the quote is embedded in"`
	CaseInsensitive bool   `json:"case_insensitive,omitempty" jsonschema:"ignore letter case"`
	Partial         bool   `json:"partial,omitempty" jsonschema:"allow matching a prefix of a long quote"`
	Fuzzy           bool   `json:"fuzzy,omitempty" jsonschema:"allow key-phrase matching"`
	ExpandTo        string `json:"expand_to,omitempty" jsonschema:"grow partial matches to sentence or paragraph"`
}

// LocateOutput is the output schema for the locate_quote tool.
type LocateOutput struct {
	Found bool                  `json:"found"`
	Match *domain.LocationMatch `json:"match,omitempty"`
}

// PluginsOutput is the output schema for the list_plugins tool.
type PluginsOutput struct {
	Plugins []domain.PluginDescriptor `json:"plugins"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_document",
		Description: "Run analysis plugins over a document and return findings anchored to exact offsets",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "locate_quote",
		Description: "Find the exact byte range of a quote in a text, tolerating quote style, whitespace and case differences",
	}, s.handleLocate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_plugins",
		Description: "List the available analysis plugins",
	}, s.handlePlugins)
}

// handleAnalyze handles the analyze_document tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	opts := driving.AnalyzeOptions{SkipPersist: input.NoSave}
	if input.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(input.TimeoutSeconds) * time.Second
	}
	for _, name := range input.Plugins {
		id, err := domain.ParsePluginID(strings.TrimSpace(name))
		if err != nil {
			return nil, AnalyzeOutput{}, err
		}
		opts.Plugins = append(opts.Plugins, id)
	}

	doc := loader.FromText(input.Text, "mcp")
	if input.Title != "" {
		doc.Title = input.Title
	}

	record, err := s.ports.Analyzer.Analyze(ctx, doc, opts)
	if err != nil {
		return nil, AnalyzeOutput{}, fmt.Errorf("analysis failed: %w", err)
	}
	return nil, toAnalyzeOutput(record), nil
}

// handleLocate handles the locate_quote tool invocation.
func (s *Server) handleLocate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LocateInput,
) (*mcp.CallToolResult, LocateOutput, error) {
	boundary := domain.Boundary(input.ExpandTo)
	switch boundary {
	case domain.BoundaryNone, domain.BoundarySentence, domain.BoundaryParagraph:
	default:
		return nil, LocateOutput{}, fmt.Errorf("%w: expand_to must be sentence or paragraph", domain.ErrInvalidInput)
	}

	match, ok := s.ports.Locator.Locate(input.Quote, input.Text, domain.LocateOptions{
		CaseInsensitive: input.CaseInsensitive,
		Context:         input.Context,
		AllowPartial:    input.Partial,
		AllowFuzzy:      input.Fuzzy,
		ExpandTo:        boundary,
	})
	if !ok {
		return nil, LocateOutput{Found: false}, nil
	}
	return nil, LocateOutput{Found: true, Match: &match}, nil
}

// handlePlugins handles the list_plugins tool invocation.
func (s *Server) handlePlugins(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, PluginsOutput, error) {
	return nil, PluginsOutput{Plugins: s.ports.Analyzer.Plugins()}, nil
}

func toAnalyzeOutput(record *domain.AnalysisRecord) AnalyzeOutput {
	out := AnalyzeOutput{
		AnalysisID: record.ID,
		Comments:   []CommentOutput{},
		Errors:     []ErrorOutput{},
	}
	result := record.Result
	if result == nil {
		return out
	}

	for i := range result.Comments {
		c := &result.Comments[i]
		out.Comments = append(out.Comments, CommentOutput{
			Plugin:      c.PluginID.String(),
			Severity:    string(c.Severity),
			Message:     c.Message,
			Quote:       c.Location.MatchedText,
			StartOffset: c.Location.StartOffset,
			EndOffset:   c.Location.EndOffset,
			Line:        c.Location.LineNumber,
			Strategy:    string(c.Location.Strategy),
			Confidence:  c.Location.Confidence,
		})
	}
	for _, e := range result.Errors {
		out.Errors = append(out.Errors, ErrorOutput{
			Plugin:       e.PluginID.String(),
			ErrorClass:   string(e.ErrorClass),
			Message:      e.Message,
			RecoveryHint: e.RecoveryHint,
		})
	}

	s := result.Summary
	out.Summary = SummaryOutput{
		TotalChunks:   s.TotalChunks,
		TotalFindings: s.TotalFindings,
		Dropped:       s.Dropped,
		Succeeded:     s.Succeeded,
		Failed:        s.Failed,
		Skipped:       s.Skipped,
		TotalCost:     s.TotalCost,
		DurationMS:    s.Duration.Milliseconds(),
	}
	return out
}
