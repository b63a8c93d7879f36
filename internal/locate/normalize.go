package locate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// mode is a set of normalisations applied before searching.
type mode uint8

const (
	foldQuotes mode = 1 << iota
	collapseSpace
	lowerCase
	stripPunct
)

// normText is a normalised string with a per-byte map to the source.
// Byte k of text was produced by source bytes [start[k], end[k]).
type normText struct {
	text  string
	start []int
	end   []int
}

// span maps the normalised range [i, j) to a source range.
func (n *normText) span(i, j int) (int, int) {
	return n.start[i], n.end[j-1]
}

func normalize(src string, m mode) *normText {
	var b strings.Builder
	b.Grow(len(src))
	n := &normText{
		start: make([]int, 0, len(src)),
		end:   make([]int, 0, len(src)),
	}
	emit := func(s string, from, to int) {
		b.WriteString(s)
		for range len(s) {
			n.start = append(n.start, from)
			n.end = append(n.end, to)
		}
	}

	inSpace := false
	for i := 0; i < len(src); {
		r, w := utf8.DecodeRuneInString(src[i:])
		if m&collapseSpace != 0 && unicode.IsSpace(r) {
			if inSpace {
				n.end[len(n.end)-1] = i + w
			} else {
				emit(" ", i, i+w)
				inSpace = true
			}
			i += w
			continue
		}
		if m&stripPunct != 0 && unicode.IsPunct(r) {
			i += w
			continue
		}
		inSpace = false

		out := r
		if m&foldQuotes != 0 {
			out = foldQuote(out)
		}
		if m&lowerCase != 0 {
			out = unicode.ToLower(out)
		}
		if out == r {
			emit(src[i:i+w], i, i+w)
		} else {
			emit(string(out), i, i+w)
		}
		i += w
	}
	n.text = b.String()
	return n
}

// normalizeString applies m to s and trims surrounding whitespace.
func normalizeString(s string, m mode) string {
	if m == 0 {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(normalize(s, m).text)
}

func foldQuote(r rune) rune {
	switch r {
	case '‘', '’', '‚', '‛', '′', '`', '´':
		return '\''
	case '“', '”', '„', '‟', '″', '«', '»':
		return '"'
	}
	return r
}
