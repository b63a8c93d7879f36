// Package chunker splits documents into contiguous, non-overlapping chunks
// that break on paragraph and sentence boundaries where possible.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Chunker implements the interface.
var _ driven.Chunker = (*Chunker)(nil)

var headingRe = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.+?)[ \t#]*$`)

// Chunker splits document content into byte ranges of roughly chunkSize bytes.
// Each chunk carries the preceding contextSize bytes as a hint; the ranges
// themselves never overlap.
type Chunker struct {
	chunkSize   int
	contextSize int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithContextSize sets how many preceding bytes are attached as context.
func WithContextSize(size int) Option {
	return func(c *Chunker) {
		if size >= 0 {
			c.contextSize = size
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:   domain.DefaultChunkSize,
		contextSize: domain.DefaultContextSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chunk splits doc.Content. Empty content produces no chunks.
func (c *Chunker) Chunk(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}
	content := doc.Content
	if content == "" {
		return nil, nil
	}

	headings := headingRe.FindAllStringSubmatchIndex(content, -1)
	chunks := make([]domain.Chunk, 0, len(content)/c.chunkSize+1)
	for start := 0; start < len(content); {
		end := c.cut(content, start)
		chunks = append(chunks, domain.Chunk{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			Text:        content[start:end],
			StartOffset: start,
			EndOffset:   end,
			Position:    len(chunks),
			Hints:       c.hints(content, start, headings),
		})
		start = end
	}
	return chunks, nil
}

// cut returns the end of the chunk beginning at start.
func (c *Chunker) cut(content string, start int) int {
	limit := start + c.chunkSize
	if limit >= len(content) {
		return len(content)
	}
	for limit > start && !utf8.RuneStart(content[limit]) {
		limit--
	}
	if limit == start {
		// A single rune wider than the chunk size.
		_, size := utf8.DecodeRuneInString(content[start:])
		return start + size
	}

	window := content[start:limit]
	floor := len(window) / 2

	if i := strings.LastIndex(window, "\n\n"); i > floor {
		return start + skipSpace(window, i)
	}
	if i := lastSentenceEnd(window); i > floor {
		return start + skipSpace(window, i)
	}
	if i := strings.LastIndexAny(window, " \t\n"); i > floor {
		return start + skipSpace(window, i)
	}
	return limit
}

// lastSentenceEnd returns the index just past the last sentence terminator
// that is followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			switch s[i+1] {
			case ' ', '\n', '\t', '\r':
				return i + 1
			}
		}
	}
	return -1
}

// skipSpace advances i past whitespace so it stays with the chunk it ends.
func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\n', '\t', '\r':
			i++
			continue
		}
		break
	}
	return i
}

func (c *Chunker) hints(content string, start int, headings [][]int) *domain.ContextHints {
	h := &domain.ContextHints{}
	if c.contextSize > 0 && start > 0 {
		from := max(start-c.contextSize, 0)
		for from < start && !utf8.RuneStart(content[from]) {
			from++
		}
		h.Preceding = content[from:start]
	}
	for _, m := range headings {
		if m[0] > start {
			break
		}
		h.Heading = content[m[2]:m[3]]
	}
	if h.Preceding == "" && h.Heading == "" {
		return nil
	}
	return h
}
