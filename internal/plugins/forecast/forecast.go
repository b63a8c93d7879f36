// Package forecast implements the forecast plugin: predictions about the
// future that should be flagged for later evaluation.
package forecast

import (
	"fmt"
	"math"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/plugins/base"
)

// Instruction is the task description sent to the analysis service.
const Instruction = `Find forecasts and predictions about future events. Quote the prediction
exactly. Estimate the probability it comes true in payload.probability (0..1)
and the resolution date in payload.resolves_by when stated.`

// unlikelyThreshold is the probability below which a forecast is a warning.
const unlikelyThreshold = 0.3

// Descriptor is the forecast plugin's catalogue entry.
var Descriptor = domain.PluginDescriptor{
	ID:                    domain.PluginForecast,
	DisplayName:           "Forecast Checker",
	Description:           "Extracts predictions and rates their plausibility.",
	CaseInsensitiveLocate: true,
	Relevance: domain.RelevanceHint{
		Description: "predictions and forecasts about future events",
		Keywords:    []string{"will", "predict", "expect", "forecast", "likely", "projected", "by 20"},
		Patterns:    []string{`\bby (?:the end of )?20\d{2}\b`, `\bwill\b`},
	},
	FallbackHint: "Review forward-looking statements manually.",
}

// New creates a forecast plugin.
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

// Assess grades implausible forecasts as warnings and the rest as info.
func Assess(c domain.Candidate) (domain.Finding, bool) {
	sev := domain.SeverityInfo
	msg := c.Message
	if msg == "" {
		msg = "Forecast."
	}
	if p, ok := probability(c.Payload["probability"]); ok {
		if p < unlikelyThreshold {
			sev = domain.SeverityWarning
		}
		msg = fmt.Sprintf("%s Estimated probability %d%%.", msg, int(math.Round(p*100)))
	}
	if by, ok := c.Payload["resolves_by"].(string); ok && by != "" {
		msg += " Resolves by " + by + "."
	}
	return domain.Finding{Candidate: c, Severity: sev, Message: msg}, true
}

func probability(v any) (float64, bool) {
	var p float64
	switch n := v.(type) {
	case float64:
		p = n
	case int:
		p = float64(n)
	default:
		return 0, false
	}
	if p > 1 && p <= 100 {
		p /= 100
	}
	if p < 0 || p > 1 {
		return 0, false
	}
	return p, true
}
