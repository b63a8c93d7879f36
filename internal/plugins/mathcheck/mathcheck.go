// Package mathcheck implements the math plugin: arithmetic and numeric
// consistency errors.
package mathcheck

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/base"
)

// Instruction is the task description sent to the analysis service.
const Instruction = `Find arithmetic or numeric errors: calculations whose stated result is wrong,
percentages that do not match their parts, and totals that do not add up.
Quote the exact text containing the error. Set payload.correct to true only for
calculations you checked and found right.`

// Descriptor is the math plugin's catalogue entry.
var Descriptor = domain.PluginDescriptor{
	ID:                    domain.PluginMath,
	DisplayName:           "Math Checker",
	Description:           "Checks calculations, percentages and totals.",
	CaseInsensitiveLocate: true,
	Relevance: domain.RelevanceHint{
		Description: "arithmetic, calculations and numeric totals",
		Keywords:    []string{"equals", "sum", "total", "percent", "average", "multiplied", "divided"},
		Patterns:    []string{`\d+\s*[-+*/×÷x]\s*\d+`, `\d+(?:\.\d+)?\s*%`, `=\s*\d`},
	},
	FallbackHint: "Double-check the document's calculations by hand.",
}

// New creates a math plugin.
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

// Assess grades wrong arithmetic as an error and discards checked-correct work.
func Assess(c domain.Candidate) (domain.Finding, bool) {
	if correct, _ := c.Payload["correct"].(bool); correct {
		return domain.Finding{}, false
	}
	msg := c.Message
	if msg == "" {
		msg = "This calculation does not add up."
	}
	if want, ok := c.Payload["expected"]; ok {
		msg += " Expected " + format(want) + "."
	}
	return domain.Finding{Candidate: c, Severity: domain.SeverityError, Message: msg}, true
}
