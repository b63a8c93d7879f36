package domain

// Strategy names the location strategy that produced a match.
type Strategy string

// Location strategies in priority order.
const (
	StrategyExact           Strategy = "exact"
	StrategyQuoteNormalized Strategy = "quote-normalized"
	StrategyCaseInsensitive Strategy = "case-insensitive"
	StrategyWhitespace      Strategy = "whitespace-normalized"
	StrategyContext         Strategy = "context"
	StrategyPartial         Strategy = "partial"
	StrategyKeyPhrase       Strategy = "key-phrase"
)

// Confidence returns the fixed confidence assigned to matches from the strategy.
func (s Strategy) Confidence() float64 {
	switch s {
	case StrategyExact:
		return 1.0
	case StrategyQuoteNormalized:
		return 0.95
	case StrategyCaseInsensitive:
		return 0.9
	case StrategyWhitespace:
		return 0.85
	case StrategyContext:
		return 0.8
	case StrategyPartial:
		return 0.7
	case StrategyKeyPhrase:
		return 0.6
	default:
		return 0
	}
}

// Boundary selects how a partial or fuzzy match is grown.
type Boundary string

// Boundary expansion modes.
const (
	BoundaryNone      Boundary = ""
	BoundarySentence  Boundary = "sentence"
	BoundaryParagraph Boundary = "paragraph"
)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span length.
func (s Span) Len() int {
	return s.End - s.Start
}

// LocationMatch is a resolved range of the document.
type LocationMatch struct {
	StartOffset int      `json:"start_offset"`
	EndOffset   int      `json:"end_offset"`
	MatchedText string   `json:"matched_text"`
	Strategy    Strategy `json:"strategy"`
	Confidence  float64  `json:"confidence"`

	// LineNumber is the 1-based line of StartOffset.
	LineNumber int `json:"line_number"`

	// LineText is the full line containing StartOffset, without its terminator.
	LineText string `json:"line_text"`
}

// Valid checks the offset invariant against the document text.
func (m LocationMatch) Valid(text string) bool {
	if m.StartOffset < 0 || m.StartOffset >= m.EndOffset || m.EndOffset > len(text) {
		return false
	}
	return text[m.StartOffset:m.EndOffset] == m.MatchedText
}

// LocateOptions are the search hints for the location engine.
type LocateOptions struct {
	// CaseInsensitive enables the case-insensitive strategy.
	CaseInsensitive bool

	// Context is a larger excerpt the quote is expected to be embedded in.
	Context string

	// AllowPartial enables the prefix strategy.
	AllowPartial bool

	// MinPartialLength is the quote length below which the prefix strategy is skipped.
	// Zero means the default of 50.
	MinPartialLength int

	// ExpandTo grows partial and key-phrase matches to a boundary.
	ExpandTo Boundary

	// AllowFuzzy enables the key-phrase strategy.
	AllowFuzzy bool

	// Window restricts the first search pass to a range of the document.
	// When nothing matches inside it the whole document is searched.
	Window *Span
}
