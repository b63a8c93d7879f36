package locate

import "strings"

// space is a search haystack with memoised normalisations.
// It lives for one Locate call only.
type space struct {
	text  string
	cache map[mode]*normText
}

func newSpace(text string) *space {
	return &space{text: text, cache: make(map[mode]*normText, 4)}
}

func (s *space) norm(m mode) *normText {
	if n, ok := s.cache[m]; ok {
		return n
	}
	n := normalize(s.text, m)
	s.cache[m] = n
	return n
}

// index finds needle under normalisation m and maps the hit back to source offsets.
func (s *space) index(needle string, m mode) (int, int, bool) {
	q := normalizeString(needle, m)
	if q == "" {
		return 0, 0, false
	}
	if m == 0 {
		i := strings.Index(s.text, q)
		if i < 0 {
			return 0, 0, false
		}
		return i, i + len(q), true
	}
	n := s.norm(m)
	i := strings.Index(n.text, q)
	if i < 0 {
		return 0, 0, false
	}
	start, end := n.span(i, i+len(q))
	return start, end, true
}

// indexAny tries each normalisation in order and returns the first hit.
func (s *space) indexAny(needle string, modes []mode) (int, int, bool) {
	for _, m := range modes {
		if start, end, ok := s.index(needle, m); ok {
			return start, end, true
		}
	}
	return 0, 0, false
}

// contextLayers extends layers with punctuation stripping. It is only used
// once a context string has narrowed the search.
func contextLayers(caseInsensitive bool) []mode {
	strip := foldQuotes | collapseSpace | stripPunct
	if caseInsensitive {
		strip |= lowerCase
	}
	return append(layers(caseInsensitive), strip)
}

// layers returns the normalisation ladder used by the context, partial and
// key-phrase strategies.
func layers(caseInsensitive bool) []mode {
	loose := foldQuotes | collapseSpace
	if caseInsensitive {
		return []mode{0, loose, loose | lowerCase}
	}
	return []mode{0, loose}
}
