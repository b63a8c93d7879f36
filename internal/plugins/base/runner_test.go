package base

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

type stubAnalysis struct {
	respond func(task driven.AnalysisTask) (*driven.AnalysisResponse, error)
	calls   atomic.Int32
}

func (s *stubAnalysis) Analyze(_ context.Context, task driven.AnalysisTask) (*driven.AnalysisResponse, error) {
	s.calls.Add(1)
	return s.respond(task)
}

func (s *stubAnalysis) Name() string { return "stub" }

const runnerDoc = "Revenue grew 12% in 2023. Costs fell sharply. The CEO said profits will triple."

func runnerChunks() []domain.Chunk {
	return []domain.Chunk{
		{ID: "a", Text: runnerDoc[:26], StartOffset: 0, EndOffset: 26, Position: 0},
		{ID: "b", Text: runnerDoc[26:], StartOffset: 26, EndOffset: len(runnerDoc), Position: 1},
	}
}

func testDescriptor() domain.PluginDescriptor {
	return domain.PluginDescriptor{ID: domain.PluginFactCheck, DisplayName: "Fact Checker"}
}

func TestRunner_RequiresAnalysis(t *testing.T) {
	_, err := NewRunner(Config{Descriptor: testDescriptor()})
	assert.ErrorIs(t, err, domain.ErrAnalysisUnavailable)
}

func TestRunner_CountsDroppedFindings(t *testing.T) {
	svc := &stubAnalysis{respond: func(task driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		if task.Chunks[0].ID == "a" {
			return &driven.AnalysisResponse{Candidates: []domain.Candidate{
				{QuotedText: "grew 12%"},
				{QuotedText: "in 2023"},
				{QuotedText: "a sentence the model invented"},
			}, Cost: 0.1}, nil
		}
		return &driven.AnalysisResponse{Candidates: []domain.Candidate{
			{QuotedText: "profits will triple", SuggestedSeverity: "high"},
			{QuotedText: "zzzz qqqq"},
		}, Cost: 0.2}, nil
	}}
	r, err := NewRunner(Config{Descriptor: testDescriptor(), Analysis: svc})
	require.NoError(t, err)

	res, err := r.Analyze(context.Background(), runnerChunks(), runnerDoc)

	require.NoError(t, err)
	assert.Len(t, res.Comments, 3)
	assert.Equal(t, 2, res.Dropped)
	assert.InDelta(t, 0.3, res.Cost, 1e-9)
	assert.Equal(t, "3 findings in 2 chunks", res.Summary)
	for _, c := range res.Comments {
		assert.True(t, c.Location.Valid(runnerDoc))
		assert.Equal(t, domain.PluginFactCheck, c.PluginID)
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, domain.SeverityError, res.Comments[2].Severity)
	assert.Equal(t, "b", res.Comments[2].SourceChunkID)
}

func TestRunner_LocatesParaphraseByKeyPhrase(t *testing.T) {
	doc := "Analysts published the outlook on Monday. The board expects revenue to climb by 12% compared with the prior year. Margins stay flat."
	svc := &stubAnalysis{respond: func(driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		return &driven.AnalysisResponse{Candidates: []domain.Candidate{
			{QuotedText: "revenue climbed by 12% compared with the prior year"},
		}}, nil
	}}
	r, err := NewRunner(Config{Descriptor: testDescriptor(), Analysis: svc, MinPartialLength: domain.DefaultMinPartialLength})
	require.NoError(t, err)
	chunks := []domain.Chunk{{ID: "only", Text: doc, StartOffset: 0, EndOffset: len(doc)}}

	res, err := r.Analyze(context.Background(), chunks, doc)

	require.NoError(t, err)
	assert.Zero(t, res.Dropped)
	require.Len(t, res.Comments, 1)
	loc := res.Comments[0].Location
	assert.Equal(t, domain.StrategyKeyPhrase, loc.Strategy)
	assert.True(t, loc.Valid(doc))
	assert.Equal(t, "The board expects revenue to climb by 12% compared with the prior year.", loc.MatchedText)
}

func TestRunner_CostIsCumulativePerInstance(t *testing.T) {
	svc := &stubAnalysis{respond: func(driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		return &driven.AnalysisResponse{Cost: 0.5}, nil
	}}
	r, err := NewRunner(Config{Descriptor: testDescriptor(), Analysis: svc})
	require.NoError(t, err)
	assert.Zero(t, r.Cost())

	for range 2 {
		_, err := r.Analyze(context.Background(), runnerChunks(), runnerDoc)
		require.NoError(t, err)
	}
	assert.InDelta(t, 2.0, r.Cost(), 1e-9)
}

func TestRunner_AssessorFilters(t *testing.T) {
	svc := &stubAnalysis{respond: func(driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		return &driven.AnalysisResponse{Candidates: []domain.Candidate{
			{QuotedText: "Costs fell sharply", Payload: map[string]any{"keep": true}},
			{QuotedText: "Revenue grew"},
		}}, nil
	}}
	r, err := NewRunner(Config{
		Descriptor: testDescriptor(),
		Analysis:   svc,
		Assess: func(c domain.Candidate) (domain.Finding, bool) {
			if c.Payload["keep"] != true {
				return domain.Finding{}, false
			}
			return domain.Finding{Candidate: c, Severity: domain.SeverityWarning, Message: "checked"}, true
		},
	})
	require.NoError(t, err)

	res, err := r.Analyze(context.Background(), runnerChunks()[1:], runnerDoc)

	require.NoError(t, err)
	require.Len(t, res.Comments, 1)
	assert.Zero(t, res.Dropped)
	assert.Equal(t, "checked", res.Comments[0].Message)
	assert.Equal(t, 26, res.Comments[0].Location.StartOffset)
}

func TestRunner_ServiceErrorFailsCall(t *testing.T) {
	svc := &stubAnalysis{respond: func(driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		return nil, domain.ErrRateLimited
	}}
	r, err := NewRunner(Config{Descriptor: testDescriptor(), Analysis: svc})
	require.NoError(t, err)

	_, err = r.Analyze(context.Background(), runnerChunks(), runnerDoc)

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestRunner_StopsWhenCancelled(t *testing.T) {
	svc := &stubAnalysis{respond: func(driven.AnalysisTask) (*driven.AnalysisResponse, error) {
		return &driven.AnalysisResponse{}, nil
	}}
	r, err := NewRunner(Config{Descriptor: testDescriptor(), Analysis: svc})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Analyze(ctx, runnerChunks(), runnerDoc)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, svc.calls.Load())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 80))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "a...", truncate("aé", 2))
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "1 finding in 1 chunk", Summarize(1, 1, nil))
	assert.Equal(t, "0 findings in 3 chunks. Looks fine.", Summarize(0, 3, []string{"Looks fine."}))
}
