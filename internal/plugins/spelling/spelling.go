// Package spelling implements the spelling and grammar plugin.
// It runs on every chunk.
package spelling

import (
	"fmt"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/base"
)

// Instruction is the task description sent to the analysis service.
const Instruction = `Find spelling mistakes and clear grammatical errors. Quote only the
misspelled word or the minimal ungrammatical phrase. Put the correction in
payload.suggestion.`

// Descriptor is the spelling plugin's catalogue entry.
var Descriptor = domain.PluginDescriptor{
	ID:                    domain.PluginSpelling,
	DisplayName:           "Spelling & Grammar",
	Description:           "Flags misspellings and grammatical slips.",
	RunUnconditionally:    true,
	CaseInsensitiveLocate: true,
	Relevance: domain.RelevanceHint{
		Description: "all prose",
	},
	FallbackHint: "Run a spell checker over the document.",
}

// New creates a spelling plugin.
func New(deps driven.PluginDeps) (driven.Plugin, error) {
	r, err := base.NewRunner(base.Config{
		Descriptor:       Descriptor,
		Instruction:      Instruction,
		Analysis:         deps.Analysis,
		Assess:           Assess,
		MinPartialLength: deps.MinPartialLength,
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Assess grades spelling issues as info.
func Assess(c domain.Candidate) (domain.Finding, bool) {
	msg := c.Message
	if msg == "" {
		msg = "Possible spelling or grammar issue."
	}
	if s, ok := c.Payload["suggestion"].(string); ok && s != "" && s != c.QuotedText {
		msg = fmt.Sprintf("%s Did you mean %q?", msg, s)
	}
	return domain.Finding{Candidate: c, Severity: domain.SeverityInfo, Message: msg}, true
}
