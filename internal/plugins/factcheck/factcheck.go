// Package factcheck implements the fact-checking plugin.
package factcheck

import (
	"strings"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/base"
)

// Instruction is the task description sent to the analysis service.
const Instruction = `Identify factual claims that are false, misleading or unverifiable.
Quote the claim exactly. Set payload.verdict to one of "false", "misleading",
"unverified" or "true", and explain briefly in the message.`

// Verdicts reported in payload.verdict.
const (
	VerdictFalse      = "false"
	VerdictMisleading = "misleading"
	VerdictUnverified = "unverified"
	VerdictTrue       = "true"
)

// Descriptor is the fact-check plugin's catalogue entry.
var Descriptor = domain.PluginDescriptor{
	ID:          domain.PluginFactCheck,
	DisplayName: "Fact Checker",
	Description: "Checks factual claims, dates and statistics.",
	Relevance: domain.RelevanceHint{
		Description: "factual claims, statistics, historical dates and attributed statements",
		Keywords:    []string{"according to", "study", "percent", "survey", "research", "reported", "founded", "data"},
		Patterns:    []string{`\b(1[5-9]|20)\d{2}\b`, `\b\d+(?:[.,]\d+)*\s*(?:million|billion|thousand|%)`},
	},
	FallbackHint: "Verify the document's key claims against primary sources.",
}

// New creates a fact-check plugin.
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

// Assess grades a claim by its verdict. Claims judged true are discarded.
func Assess(c domain.Candidate) (domain.Finding, bool) {
	verdict, _ := c.Payload["verdict"].(string)
	var sev domain.Severity
	switch strings.ToLower(verdict) {
	case VerdictTrue:
		return domain.Finding{}, false
	case VerdictFalse:
		sev = domain.SeverityError
	case VerdictMisleading, VerdictUnverified:
		sev = domain.SeverityWarning
	default:
		sev = domain.ParseSeverity(c.SuggestedSeverity)
	}
	msg := c.Message
	if msg == "" {
		msg = "This claim could not be verified."
	}
	return domain.Finding{Candidate: c, Severity: sev, Message: msg}, true
}
