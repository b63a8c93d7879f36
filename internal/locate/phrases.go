package locate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Minimum key-phrase lengths in characters.
const (
	MinPhraseLength     = 10
	MinBareFigureLength = 3
	figureWindow        = 10
	middleThirdMinimum  = 30
)

// Phrase is a salient fragment of a quote.
type Phrase struct {
	Text string

	// MinLength is the shortest acceptable length for this kind of phrase.
	MinLength int
}

// Extractor pulls candidate phrases out of a quote, most specific first.
type Extractor interface {
	Name() string
	Extract(quote string) []Phrase
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc struct {
	ExtractorName string
	Fn            func(quote string) []Phrase
}

// Name returns the extractor name.
func (f ExtractorFunc) Name() string { return f.ExtractorName }

// Extract calls the wrapped function.
func (f ExtractorFunc) Extract(quote string) []Phrase { return f.Fn(quote) }

var (
	quotedRe     = regexp.MustCompile(`"([^"]+)"|“([^”]+)”|'([^']{10,})'`)
	numberUnitRe = regexp.MustCompile(`[$€£]?\d[\d,]*(?:\.\d+)?\s*[A-Za-z%]+(?:\s+[A-Za-z]+)?`)
	yearRe       = regexp.MustCompile(`\b(?:1[5-9]|20|21)\d{2}\b`)
	percentRe    = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?(?:%|percent\b)`)
	dateRe       = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?|\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?(?:\s+\d{4})?|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	willRe       = regexp.MustCompile(`(?i)\bwill\s+\S+(?:\s+\S+){0,4}`)
)

// DefaultExtractors returns the built-in extractors in search order.
func DefaultExtractors() []Extractor {
	return []Extractor{
		ExtractorFunc{"quoted", quotedSubstrings},
		ExtractorFunc{"number-unit", numbersWithUnits},
		ExtractorFunc{"year", years},
		ExtractorFunc{"percentage", percentages},
		ExtractorFunc{"date", dates},
		ExtractorFunc{"will", willClauses},
		ExtractorFunc{"middle-third", middleThird},
	}
}

// Phrases runs the extractors over quote and returns unique phrases that meet
// their minimum length, in extractor order.
func Phrases(quote string, extractors ...Extractor) []Phrase {
	seen := make(map[string]bool)
	var out []Phrase
	for _, ex := range extractors {
		for _, p := range ex.Extract(quote) {
			p.Text = strings.TrimSpace(p.Text)
			if p.MinLength == 0 {
				p.MinLength = MinPhraseLength
			}
			if utf8.RuneCountInString(p.Text) < p.MinLength || seen[p.Text] {
				continue
			}
			seen[p.Text] = true
			out = append(out, p)
		}
	}
	return out
}

func quotedSubstrings(quote string) []Phrase {
	var out []Phrase
	for _, m := range quotedRe.FindAllStringSubmatch(quote, -1) {
		for _, g := range m[1:] {
			if g != "" {
				out = append(out, Phrase{Text: g})
			}
		}
	}
	return out
}

func numbersWithUnits(quote string) []Phrase {
	var out []Phrase
	for _, m := range numberUnitRe.FindAllString(quote, -1) {
		out = append(out, Phrase{Text: m})
	}
	return out
}

// years yields each year with a window of surrounding text, then the bare year.
func years(quote string) []Phrase {
	return figures(quote, yearRe)
}

func percentages(quote string) []Phrase {
	return figures(quote, percentRe)
}

func figures(quote string, re *regexp.Regexp) []Phrase {
	locs := re.FindAllStringIndex(quote, -1)
	out := make([]Phrase, 0, 2*len(locs))
	for _, loc := range locs {
		out = append(out, Phrase{Text: around(quote, loc[0], loc[1], figureWindow)})
	}
	for _, loc := range locs {
		out = append(out, Phrase{Text: quote[loc[0]:loc[1]], MinLength: MinBareFigureLength})
	}
	return out
}

func dates(quote string) []Phrase {
	var out []Phrase
	for _, m := range dateRe.FindAllString(quote, -1) {
		out = append(out, Phrase{Text: m})
	}
	return out
}

func willClauses(quote string) []Phrase {
	var out []Phrase
	for _, m := range willRe.FindAllString(quote, -1) {
		out = append(out, Phrase{Text: m})
	}
	return out
}

func middleThird(quote string) []Phrase {
	n := utf8.RuneCountInString(quote)
	if n < middleThirdMinimum {
		return nil
	}
	runes := []rune(quote)
	return []Phrase{{Text: string(runes[n/3 : 2*n/3])}}
}

// around returns quote[start:end] widened by up to w characters on each side.
func around(quote string, start, end, w int) string {
	for i := 0; i < w && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(quote[:start])
		start -= size
	}
	for i := 0; i < w && end < len(quote); i++ {
		_, size := utf8.DecodeRuneInString(quote[end:])
		end += size
	}
	return quote[start:end]
}
