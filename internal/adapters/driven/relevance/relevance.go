// Package relevance provides a keyword and pattern based RelevanceDecider
// with a bounded memo of past verdicts.
package relevance

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure Decider implements the interface.
var _ driven.RelevanceDecider = (*Decider)(nil)

// DefaultCacheSize is the number of verdicts memoised.
const DefaultCacheSize = 4096

// Decider judges a chunk relevant when it mentions one of the hint's keywords
// or matches one of its patterns. A hint with neither accepts every chunk.
type Decider struct {
	verdicts *lru.Cache[uint64, domain.RelevanceVerdict]

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New creates a decider memoising up to size verdicts.
func New(size int) (*Decider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint64, domain.RelevanceVerdict](size)
	if err != nil {
		return nil, fmt.Errorf("create relevance cache: %w", err)
	}
	return &Decider{verdicts: cache, patterns: make(map[string]*regexp.Regexp)}, nil
}

// Decide returns whether chunk belongs to the hint's domain.
func (d *Decider) Decide(ctx context.Context, chunk domain.Chunk, hint domain.RelevanceHint) (domain.RelevanceVerdict, error) {
	if err := ctx.Err(); err != nil {
		return domain.RelevanceVerdict{}, err
	}
	key := cacheKey(chunk.Text, hint)
	if v, ok := d.verdicts.Get(key); ok {
		return v, nil
	}
	v, err := d.decide(chunk.Text, hint)
	if err != nil {
		return domain.RelevanceVerdict{}, err
	}
	d.verdicts.Add(key, v)
	return v, nil
}

func (d *Decider) decide(text string, hint domain.RelevanceHint) (domain.RelevanceVerdict, error) {
	if len(hint.Keywords) == 0 && len(hint.Patterns) == 0 {
		return domain.RelevanceVerdict{Relevant: true, Reason: "no relevance criteria"}, nil
	}
	lower := strings.ToLower(text)
	for _, kw := range hint.Keywords {
		if containsWord(lower, strings.ToLower(kw)) {
			return domain.RelevanceVerdict{Relevant: true, Reason: fmt.Sprintf("mentions %q", kw)}, nil
		}
	}
	for _, p := range hint.Patterns {
		re, err := d.compile(p)
		if err != nil {
			return domain.RelevanceVerdict{}, err
		}
		if m := re.FindString(text); m != "" {
			return domain.RelevanceVerdict{Relevant: true, Reason: fmt.Sprintf("contains %q", m)}, nil
		}
	}
	return domain.RelevanceVerdict{Reason: "no " + hint.Description}, nil
}

func (d *Decider) compile(pattern string) (*regexp.Regexp, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if re, ok := d.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		logger.Warn("invalid relevance pattern %q: %v", pattern, err)
		return nil, fmt.Errorf("%w: relevance pattern %q: %w", domain.ErrInvalidInput, pattern, err)
	}
	d.patterns[pattern] = re
	return re, nil
}

// containsWord reports whether kw occurs in s at word boundaries.
// Keywords ending in a digit prefix such as "by 20" match as prefixes.
func containsWord(s, kw string) bool {
	for from := 0; ; {
		i := strings.Index(s[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)
		if boundary(s, start-1) && (boundary(s, end) || isDigit(kw[len(kw)-1])) {
			return true
		}
		from = start + 1
	}
}

func boundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c >= 0x80)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func cacheKey(text string, hint domain.RelevanceHint) uint64 {
	h := fnv.New64a()
	h.Write([]byte(hint.Description))
	for _, k := range hint.Keywords {
		h.Write([]byte{0})
		h.Write([]byte(k))
	}
	for _, p := range hint.Patterns {
		h.Write([]byte{1})
		h.Write([]byte(p))
	}
	h.Write([]byte{2})
	h.Write([]byte(text))
	return h.Sum64()
}
