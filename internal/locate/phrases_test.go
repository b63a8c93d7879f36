package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func phraseTexts(ps []Phrase) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Text
	}
	return out
}

func TestPhrases_Default(t *testing.T) {
	quote := `The CEO said "record growth ahead" and revenue will reach $5 billion by 2030, up 15%.`
	got := phraseTexts(Phrases(quote, DefaultExtractors()...))

	assert.Contains(t, got, "record growth ahead")
	assert.Contains(t, got, "$5 billion by")
	assert.Contains(t, got, "2030")
	assert.Contains(t, got, "15%")
	assert.Contains(t, got, "will reach $5 billion by 2030,")
	assert.Equal(t, "record growth ahead", got[0], "quoted substrings come first")
}

func TestPhrases_MinimumLength(t *testing.T) {
	got := phraseTexts(Phrases("a 5 kg box", DefaultExtractors()...))
	assert.NotContains(t, got, "5 kg box")
}

func TestPhrases_Dates(t *testing.T) {
	got := phraseTexts(Phrases("The launch on March 14, 2025 slipped", ExtractorFunc{"date", dates}))
	assert.Equal(t, []string{"March 14, 2025"}, got)

	got = phraseTexts(Phrases("due 2025-03-14 at noon", ExtractorFunc{"date", dates}))
	assert.Equal(t, []string{"2025-03-14"}, got)
}

func TestPhrases_YearWindow(t *testing.T) {
	got := phraseTexts(Phrases("sales peaked in 1999 and then fell", ExtractorFunc{"year", years}))
	assert.Equal(t, []string{"peaked in 1999 and then", "1999"}, got)
}

func TestPhrases_MiddleThird(t *testing.T) {
	quote := "aaaaaaaaaabbbbbbbbbbcccccccccc"
	got := phraseTexts(Phrases(quote, ExtractorFunc{"middle-third", middleThird}))
	assert.Equal(t, []string{"bbbbbbbbbb"}, got)

	assert.Empty(t, Phrases("too short for a middle", ExtractorFunc{"middle-third", middleThird}))
}

func TestPhrases_Deduplicates(t *testing.T) {
	dup := ExtractorFunc{"dup", func(string) []Phrase {
		return []Phrase{{Text: "same phrase here"}, {Text: " same phrase here "}}
	}}
	assert.Len(t, Phrases("x", dup), 1)
}
