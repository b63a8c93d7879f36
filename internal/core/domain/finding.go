package domain

// Severity grades an assessed finding.
type Severity string

// Severity levels.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid returns true if the severity is recognised.
func (s Severity) IsValid() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// ParseSeverity maps free text to a Severity, defaulting to info.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityError, SeverityWarning:
		return Severity(s)
	}
	switch s {
	case "high", "critical", "major":
		return SeverityError
	case "medium", "moderate", "minor":
		return SeverityWarning
	}
	return SeverityInfo
}

// Candidate is a raw finding produced by an analysis service.
type Candidate struct {
	// ID threads through every lifecycle stage.
	ID string `json:"id"`

	// PluginID is the plugin that requested the analysis.
	PluginID PluginID `json:"plugin_id"`

	// QuotedText is the substring the service claims appears in the chunk.
	QuotedText string `json:"quoted_text"`

	// SourceChunkID is the chunk the candidate came from.
	SourceChunkID string `json:"source_chunk_id"`

	// Context is a larger excerpt containing the quote, when the service supplies one.
	Context string `json:"context,omitempty"`

	// Message is the service's description of the issue.
	Message string `json:"message,omitempty"`

	// SuggestedSeverity is the service's own grading, if any.
	SuggestedSeverity string `json:"suggested_severity,omitempty"`

	// Payload is plugin-specific semantic data.
	Payload map[string]any `json:"payload,omitempty"`
}

// Finding is a Candidate after plugin-specific assessment.
type Finding struct {
	Candidate
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Comment is a Finding anchored to an exact range of the document.
// Document[Location.StartOffset:Location.EndOffset] == Location.MatchedText always holds.
type Comment struct {
	Finding
	Location LocationMatch `json:"location"`
}

// StartOffset returns the comment's start in the document.
func (c Comment) StartOffset() int {
	return c.Location.StartOffset
}
