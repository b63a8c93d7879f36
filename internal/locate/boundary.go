package locate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Expand grows [start, end) outward to the enclosing sentence or paragraph
// and trims surrounding whitespace. BoundaryNone returns the range unchanged.
func Expand(text string, start, end int, b domain.Boundary) (int, int) {
	var s, e int
	switch b {
	case domain.BoundarySentence:
		s, e = sentenceStart(text, start), sentenceEnd(text, start, end)
	case domain.BoundaryParagraph:
		s, e = paragraphStart(text, start), paragraphEnd(text, end)
	default:
		return start, end
	}
	s, e = trimRange(text, s, e)
	if s >= e {
		return start, end
	}
	return s, e
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpaceAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsSpace(r)
}

// blankLineBefore reports whether text[i] is a newline ending a blank line,
// i.e. only spaces or tabs separate it from a previous newline.
func blankLineBefore(text string, i int) bool {
	if text[i] != '\n' {
		return false
	}
	for j := i - 1; j >= 0; j-- {
		switch text[j] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		}
		return false
	}
	return false
}

// blankLineAfter reports whether text[i] is a newline starting a blank line.
func blankLineAfter(text string, i int) bool {
	if text[i] != '\n' {
		return false
	}
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		}
		return false
	}
	return false
}

// sentenceStart walks back to the nearest terminator-plus-whitespace or blank line.
func sentenceStart(text string, start int) int {
	for i := start - 1; i >= 0; i-- {
		if isTerminator(text[i]) && isSpaceAt(text, i+1) {
			return i + 1
		}
		if blankLineBefore(text, i) {
			return i + 1
		}
	}
	return 0
}

// sentenceEnd walks forward to the next terminator followed by whitespace or
// end of text, or to a blank line. A terminator closing the match counts.
func sentenceEnd(text string, start, end int) int {
	from := max(end-1, start)
	for i := from; i < len(text); i++ {
		if isTerminator(text[i]) && (i+1 == len(text) || isSpaceAt(text, i+1)) {
			return i + 1
		}
		if i >= end && blankLineAfter(text, i) {
			return i
		}
	}
	return len(text)
}

func paragraphStart(text string, start int) int {
	for i := start - 1; i >= 0; i-- {
		if blankLineBefore(text, i) {
			return i + 1
		}
	}
	return 0
}

func paragraphEnd(text string, end int) int {
	for i := end; i < len(text); i++ {
		if blankLineAfter(text, i) {
			return i
		}
	}
	return len(text)
}

func trimRange(text string, start, end int) (int, int) {
	seg := text[start:end]
	trimmed := strings.TrimLeftFunc(seg, unicode.IsSpace)
	start += len(seg) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, unicode.IsSpace)
	return start, start + len(trimmed)
}
