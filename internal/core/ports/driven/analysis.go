package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// AnalysisService produces candidate findings for chunks of a document.
// It is treated as an opaque collaborator: any error is a failed attempt.
//
// Implementations may include:
//   - OpenAI compatible chat completion endpoints
//   - Offline rule-based heuristics
type AnalysisService interface {
	// Analyze returns candidate findings for the task's chunks.
	Analyze(ctx context.Context, task AnalysisTask) (*AnalysisResponse, error)

	// Name returns the provider name for logs.
	Name() string
}

// AnalysisTask is one request to an analysis service.
type AnalysisTask struct {
	// PluginID is the plugin on whose behalf the analysis runs.
	PluginID domain.PluginID

	// Instruction is the plugin-specific task description.
	Instruction string

	// Chunks are the segments to analyse.
	Chunks []domain.Chunk

	// DocumentText is the full document.
	DocumentText string
}

// AnalysisResponse is the service's answer.
type AnalysisResponse struct {
	// Candidates each carry a quote the service claims appears in a chunk.
	Candidates []domain.Candidate

	// Summary is a narrative summary.
	Summary string

	// Cost is the cost of the call.
	Cost float64
}
