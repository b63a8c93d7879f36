package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
	"github.com/custodia-labs/marginalia/internal/loader"
)

// mockAnalyzer is a mock implementation of driving.DocumentAnalyzer.
type mockAnalyzer struct {
	record   *domain.AnalysisRecord
	records  []domain.AnalysisRecord
	err      error
	calls    int
	lastDoc  *domain.Document
	lastOpts driving.AnalyzeOptions
}

func (m *mockAnalyzer) Analyze(_ context.Context, doc *domain.Document, opts driving.AnalyzeOptions) (*domain.AnalysisRecord, error) {
	m.calls++
	m.lastDoc = doc
	m.lastOpts = opts
	return m.record, m.err
}

func (m *mockAnalyzer) Plugins() []domain.PluginDescriptor {
	return []domain.PluginDescriptor{
		{
			ID:                    domain.PluginMath,
			DisplayName:           "Math Checker",
			Description:           "Checks arithmetic.",
			CaseInsensitiveLocate: true,
			Relevance:             domain.RelevanceHint{Keywords: []string{"sum", "total"}},
		},
		{
			ID:                 domain.PluginSpelling,
			DisplayName:        "Spelling & Grammar",
			Description:        "Finds misspellings.",
			RunUnconditionally: true,
		},
	}
}

func (m *mockAnalyzer) History(_ context.Context, _ int) ([]domain.AnalysisRecord, error) {
	return m.records, m.err
}

func (m *mockAnalyzer) Get(_ context.Context, id string) (*domain.AnalysisRecord, error) {
	if m.record == nil || m.record.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.record, nil
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
		Plugins: []domain.PluginID{domain.PluginMath, domain.PluginForecast, domain.PluginLinks},
		Result: &domain.AggregatedResult{
			Sections: map[domain.PluginID]*domain.PluginSection{
				domain.PluginMath: {
					PluginID: domain.PluginMath, DisplayName: "Math Checker",
					Status: domain.SectionSucceeded, Comments: []domain.Comment{comment}, Dropped: 1,
				},
				domain.PluginForecast: {
					PluginID: domain.PluginForecast, DisplayName: "Forecast Checker",
					Status: domain.SectionFailed, Attempts: 3,
				},
				domain.PluginLinks: {
					PluginID: domain.PluginLinks, DisplayName: "Link Checker",
					Status: domain.SectionSkipped, Reason: "no relevant chunks",
				},
			},
			Comments: []domain.Comment{comment},
			Errors: []domain.PluginError{{
				PluginID:     domain.PluginForecast,
				DisplayName:  "Forecast Checker",
				ErrorClass:   domain.ErrorClassNetwork,
				Message:      "connection refused",
				RecoveryHint: "Check your network connection.",
			}},
			Summary: domain.Summary{TotalChunks: 1, TotalFindings: 1, Succeeded: 1, Failed: 1, Skipped: 1},
		},
	}
}

// setupTestServices installs mocks and returns a cleanup that restores
// the previous services and flag values.
func setupTestServices(a *mockAnalyzer) func() {
	prevAnalyzer, prevLocator, prevLoader := analyzerService, locatorService, documentLoader
	analyzerService = a
	locatorService = services.NewLocatorService(0)
	documentLoader = loader.New()
	return func() {
		analyzerService, locatorService, documentLoader = prevAnalyzer, prevLocator, prevLoader
		analyzeJSON, analyzeNoIsolation, analyzeNoSave, analyzeWatch = false, false, false, false
		analyzeTimeout = 0
		locateContext, locateExpand = "", ""
		locateCaseInsensitive, locatePartial, locateFuzzy, locateJSON = false, false, false, false
		pluginsJSON, historyJSON = false, false
		historyLimit = 20
	}
}

// run executes the root command with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeTempDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
