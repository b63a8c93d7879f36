package mcp

import (
	"context"
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// mockAnalyzer is a mock implementation of driving.DocumentAnalyzer.
type mockAnalyzer struct {
	record   *domain.AnalysisRecord
	records  []domain.AnalysisRecord
	plugins  []domain.PluginDescriptor
	err      error
	lastDoc  *domain.Document
	lastOpts driving.AnalyzeOptions
}

func (m *mockAnalyzer) Analyze(_ context.Context, doc *domain.Document, opts driving.AnalyzeOptions) (*domain.AnalysisRecord, error) {
	m.lastDoc = doc
	m.lastOpts = opts
	return m.record, m.err
}

func (m *mockAnalyzer) Plugins() []domain.PluginDescriptor {
	return m.plugins
}

func (m *mockAnalyzer) History(_ context.Context, _ int) ([]domain.AnalysisRecord, error) {
	return m.records, m.err
}

func (m *mockAnalyzer) Get(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.record == nil || m.record.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.record, nil
}

// mockLocator finds exact substrings only.
type mockLocator struct {
	lastOpts domain.LocateOptions
}

func (m *mockLocator) Locate(quote, text string, opts domain.LocateOptions) (domain.LocationMatch, bool) {
	m.lastOpts = opts
	i := strings.Index(text, quote)
	if quote == "" || i < 0 {
		return domain.LocationMatch{}, false
	}
	return domain.LocationMatch{
		StartOffset: i,
		EndOffset:   i + len(quote),
		MatchedText: quote,
		Strategy:    domain.StrategyExact,
		Confidence:  1,
		LineNumber:  1,
	}, true
}

func newTestServer(a *mockAnalyzer) (*Server, error) {
	return NewServer(&Ports{Analyzer: a, Locator: &mockLocator{}})
}

func sampleRecord() *domain.AnalysisRecord {
	comment := domain.Comment{
		Finding: domain.Finding{
			Candidate: domain.Candidate{ID: "f1", PluginID: domain.PluginMath},
			Severity:  domain.SeverityError,
			Message:   "Arithmetic is wrong. Expected 4.",
		},
		Location: domain.LocationMatch{
			StartOffset: 0,
			EndOffset:   14,
			MatchedText: "2 + 2 equals 5",
			Strategy:    domain.StrategyExact,
			Confidence:  1,
			LineNumber:  1,
		},
	}
	return &domain.AnalysisRecord{
		ID:      "rec-1",
		Title:   "Notes",
		Plugins: []domain.PluginID{domain.PluginMath, domain.PluginForecast},
		Result: &domain.AggregatedResult{
			Sections: map[domain.PluginID]*domain.PluginSection{
				domain.PluginMath:     {PluginID: domain.PluginMath, Status: domain.SectionSucceeded, Comments: []domain.Comment{comment}},
				domain.PluginForecast: {PluginID: domain.PluginForecast, Status: domain.SectionFailed},
			},
			Comments: []domain.Comment{comment},
			Errors: []domain.PluginError{{
				PluginID:     domain.PluginForecast,
				ErrorClass:   domain.ErrorClassNetwork,
				Message:      "connection refused",
				RecoveryHint: "Check your network connection.",
			}},
			Summary: domain.Summary{TotalChunks: 1, TotalFindings: 1, Succeeded: 1, Failed: 1},
		},
	}
}
