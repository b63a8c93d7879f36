package locate

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// DefaultMinPartialLength is the shortest quote, in characters, eligible for prefix matching.
const DefaultMinPartialLength = domain.DefaultMinPartialLength

const (
	partialStep  = 10
	partialFloor = 20
)

// Engine resolves quotes to document ranges.
type Engine struct {
	extractors []Extractor
	minPartial int
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtractors replaces the key-phrase extractors.
func WithExtractors(extractors ...Extractor) Option {
	return func(e *Engine) {
		e.extractors = extractors
	}
}

// WithMinPartialLength sets the default minimum quote length for prefix matching.
func WithMinPartialLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minPartial = n
		}
	}
}

// New creates an Engine with the default key-phrase extractors.
func New(opts ...Option) *Engine {
	e := &Engine{
		extractors: DefaultExtractors(),
		minPartial: DefaultMinPartialLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var defaultEngine = New()

// Locate resolves quote in text using the default engine.
func Locate(quote, text string, opts domain.LocateOptions) (domain.LocationMatch, bool) {
	return defaultEngine.Locate(quote, text, opts)
}

// strategy is one link of the matching chain.
type strategy struct {
	name    domain.Strategy
	enabled func(o *domain.LocateOptions) bool
	find    func(e *Engine, s *space, quote string, o *domain.LocateOptions) (int, int, bool)
	expand  func(o *domain.LocateOptions) domain.Boundary
}

func always(*domain.LocateOptions) bool { return true }

var chain = []strategy{
	{
		name:    domain.StrategyExact,
		enabled: always,
		find: func(_ *Engine, s *space, q string, _ *domain.LocateOptions) (int, int, bool) {
			return s.index(q, 0)
		},
	},
	{
		name:    domain.StrategyQuoteNormalized,
		enabled: always,
		find: func(_ *Engine, s *space, q string, _ *domain.LocateOptions) (int, int, bool) {
			return s.index(q, foldQuotes)
		},
	},
	{
		name:    domain.StrategyCaseInsensitive,
		enabled: func(o *domain.LocateOptions) bool { return o.CaseInsensitive },
		find: func(_ *Engine, s *space, q string, _ *domain.LocateOptions) (int, int, bool) {
			return s.index(q, foldQuotes|lowerCase)
		},
	},
	{
		name:    domain.StrategyWhitespace,
		enabled: always,
		find: func(_ *Engine, s *space, q string, o *domain.LocateOptions) (int, int, bool) {
			m := foldQuotes | collapseSpace
			if o.CaseInsensitive {
				m |= lowerCase
			}
			return s.index(q, m)
		},
	},
	{
		name:    domain.StrategyContext,
		enabled: func(o *domain.LocateOptions) bool { return strings.TrimSpace(o.Context) != "" },
		find:    findByContext,
	},
	{
		name:    domain.StrategyPartial,
		enabled: func(o *domain.LocateOptions) bool { return o.AllowPartial },
		find:    findByPrefix,
		expand:  func(o *domain.LocateOptions) domain.Boundary { return o.ExpandTo },
	},
	{
		name:    domain.StrategyKeyPhrase,
		enabled: func(o *domain.LocateOptions) bool { return o.AllowFuzzy },
		find:    findByKeyPhrase,
		expand: func(o *domain.LocateOptions) domain.Boundary {
			if o.ExpandTo == domain.BoundaryNone {
				return domain.BoundarySentence
			}
			return o.ExpandTo
		},
	},
}

// Locate resolves quote in text. When opts.Window is set the window is searched
// first with the full chain, then the whole text.
// Returns false if no strategy matched; that is a normal outcome.
func (e *Engine) Locate(quote, text string, opts domain.LocateOptions) (domain.LocationMatch, bool) {
	quote = strings.TrimSpace(quote)
	if quote == "" || text == "" {
		return domain.LocationMatch{}, false
	}

	if w, ok := window(text, opts.Window); ok {
		if m, ok := e.run(quote, text, w, &opts); ok {
			return m, true
		}
	}
	return e.run(quote, text, domain.Span{Start: 0, End: len(text)}, &opts)
}

func (e *Engine) run(quote, text string, w domain.Span, o *domain.LocateOptions) (domain.LocationMatch, bool) {
	s := newSpace(text[w.Start:w.End])
	for _, st := range chain {
		if !st.enabled(o) {
			continue
		}
		start, end, ok := st.find(e, s, quote, o)
		if !ok || start >= end {
			continue
		}
		start += w.Start
		end += w.Start
		if st.expand != nil {
			start, end = Expand(text, start, end, st.expand(o))
		}
		return newMatch(text, start, end, st.name), true
	}
	return domain.LocationMatch{}, false
}

func newMatch(text string, start, end int, name domain.Strategy) domain.LocationMatch {
	line, lineText := LineAt(text, start)
	return domain.LocationMatch{
		StartOffset: start,
		EndOffset:   end,
		MatchedText: text[start:end],
		Strategy:    name,
		Confidence:  name.Confidence(),
		LineNumber:  line,
		LineText:    lineText,
	}
}

// window clamps w to text and rejects spans that split a rune or cover everything.
func window(text string, w *domain.Span) (domain.Span, bool) {
	if w == nil {
		return domain.Span{}, false
	}
	start, end := max(w.Start, 0), min(w.End, len(text))
	if start >= end || (start == 0 && end == len(text)) {
		return domain.Span{}, false
	}
	if !runeBoundary(text, start) || !runeBoundary(text, end) {
		return domain.Span{}, false
	}
	return domain.Span{Start: start, End: end}, true
}

func runeBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}

func (e *Engine) minPartialLength(o *domain.LocateOptions) int {
	if o.MinPartialLength > 0 {
		return o.MinPartialLength
	}
	return e.minPartial
}

// findByContext finds the context string first and the quote inside it.
// Failing that it anchors the quote on the words around it in the context.
func findByContext(_ *Engine, s *space, quote string, o *domain.LocateOptions) (int, int, bool) {
	ladder := contextLayers(o.CaseInsensitive)
	ctx := strings.TrimSpace(o.Context)

	if cStart, cEnd, ok := s.indexAny(ctx, ladder); ok {
		inner := newSpace(s.text[cStart:cEnd])
		if qStart, qEnd, ok := inner.indexAny(quote, ladder); ok {
			return cStart + qStart, cStart + qEnd, true
		}
	}
	return findBySurroundingWords(s, quote, ctx, ladder[len(ladder)-1])
}

const surroundingWords = 2

func findBySurroundingWords(s *space, quote, ctx string, m mode) (int, int, bool) {
	nctx := normalizeString(ctx, m)
	nq := normalizeString(quote, m)
	at := strings.Index(nctx, nq)
	if nq == "" || at < 0 {
		return 0, 0, false
	}
	n := s.norm(m)

	if before := trailingWords(nctx[:at], surroundingWords); strings.TrimSpace(before) != "" {
		if i := strings.Index(n.text, before+nq); i >= 0 {
			qs := i + len(before)
			start, end := n.span(qs, qs+len(nq))
			return start, end, true
		}
	}
	if after := leadingWords(nctx[at+len(nq):], surroundingWords); strings.TrimSpace(after) != "" {
		if i := strings.Index(n.text, nq+after); i >= 0 {
			start, end := n.span(i, i+len(nq))
			return start, end, true
		}
	}
	return 0, 0, false
}

// trailingWords returns the suffix of s holding its last k words,
// including the separator that joins them to what follows.
func trailingWords(s string, k int) string {
	i := len(s)
	for words := 0; i > 0; {
		for i > 0 && s[i-1] == ' ' {
			i--
		}
		if i == 0 {
			break
		}
		if words == k {
			break
		}
		for i > 0 && s[i-1] != ' ' {
			i--
		}
		words++
	}
	return strings.TrimLeft(s[i:], " ")
}

// leadingWords returns the prefix of s holding its first k words.
func leadingWords(s string, k int) string {
	i := 0
	for words := 0; i < len(s) && words < k; words++ {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		for i < len(s) && s[i] != ' ' {
			i++
		}
	}
	return s[:i]
}

// findByPrefix matches a shrinking prefix of a long quote.
func findByPrefix(e *Engine, s *space, quote string, o *domain.LocateOptions) (int, int, bool) {
	runes := utf8.RuneCountInString(quote)
	if runes < e.minPartialLength(o) {
		return 0, 0, false
	}
	ladder := layers(o.CaseInsensitive)
	for l := runes - partialStep; l >= partialFloor; l -= partialStep {
		prefix := strings.TrimSpace(runePrefix(quote, l))
		if start, end, ok := s.indexAny(prefix, ladder); ok {
			return start, end, true
		}
	}
	return 0, 0, false
}

func runePrefix(s string, n int) string {
	i := 0
	for range n {
		if i >= len(s) {
			break
		}
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s[:i]
}

// findByKeyPhrase searches for salient phrases extracted from the quote.
func findByKeyPhrase(e *Engine, s *space, quote string, o *domain.LocateOptions) (int, int, bool) {
	ladder := layers(o.CaseInsensitive)
	for _, p := range Phrases(quote, e.extractors...) {
		if start, end, ok := s.indexAny(p.Text, ladder); ok {
			return start, end, true
		}
	}
	return 0, 0, false
}
