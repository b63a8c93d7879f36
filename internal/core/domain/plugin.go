package domain

import "fmt"

// PluginID identifies one of the closed set of analysis plugins.
type PluginID string

// Available plugins.
const (
	PluginMath      PluginID = "math"
	PluginSpelling  PluginID = "spelling"
	PluginFactCheck PluginID = "fact-check"
	PluginForecast  PluginID = "forecast"
	PluginLinks     PluginID = "link-analysis"
)

// AllPluginIDs returns every plugin identity in catalogue order.
func AllPluginIDs() []PluginID {
	return []PluginID{PluginMath, PluginSpelling, PluginFactCheck, PluginForecast, PluginLinks}
}

// IsValid returns true if the plugin identity is part of the catalogue.
func (id PluginID) IsValid() bool {
	switch id {
	case PluginMath, PluginSpelling, PluginFactCheck, PluginForecast, PluginLinks:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (id PluginID) String() string {
	return string(id)
}

// ParsePluginID converts a user-supplied name to a PluginID.
// A few short aliases are accepted.
func ParsePluginID(s string) (PluginID, error) {
	switch s {
	case "fact", "facts", "factcheck":
		return PluginFactCheck, nil
	case "links", "link":
		return PluginLinks, nil
	case "spell":
		return PluginSpelling, nil
	case "forecasts", "predictions":
		return PluginForecast, nil
	}
	id := PluginID(s)
	if !id.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlugin, s)
	}
	return id, nil
}

// PluginDescriptor is the static catalogue entry for a plugin.
type PluginDescriptor struct {
	// ID is the plugin identity.
	ID PluginID `json:"id"`

	// DisplayName is the human-readable name.
	DisplayName string `json:"display_name"`

	// Description explains what the plugin detects.
	Description string `json:"description"`

	// RunUnconditionally bypasses routing: the plugin receives every chunk.
	RunUnconditionally bool `json:"run_unconditionally"`

	// CaseInsensitiveLocate allows the locator's case-insensitive strategy.
	CaseInsensitiveLocate bool `json:"case_insensitive_locate"`

	// Relevance describes the plugin's domain for the relevance decision.
	Relevance RelevanceHint `json:"relevance"`

	// FallbackHint is the plugin-specific recovery message used when all attempts fail.
	FallbackHint string `json:"fallback_hint,omitempty"`
}

// RelevanceHint is the domain description handed to a relevance decider.
type RelevanceHint struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Patterns    []string `json:"patterns,omitempty"`
}

// RelevanceVerdict is the answer of a relevance decider for one chunk.
type RelevanceVerdict struct {
	Relevant bool
	Reason   string
}
