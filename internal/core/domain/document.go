package domain

import (
	"strconv"
	"time"
)

// Document represents the text submitted for analysis.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the original location (file path, "-" for stdin, or caller supplied).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text. Every offset produced by analysis indexes into it.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was loaded.
	CreatedAt time.Time
}

// Chunk is an immutable, offset-tagged slice of a document.
// Text always equals the document content between StartOffset and EndOffset.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the content of this chunk.
	Text string

	// StartOffset is the absolute byte offset of Text in the document.
	StartOffset int

	// EndOffset is StartOffset + len(Text).
	EndOffset int

	// Position is the ordinal position within the document.
	Position int

	// Hints carries optional surrounding context for plugins.
	Hints *ContextHints
}

// ContextHints is surrounding text supplied by the chunk producer.
type ContextHints struct {
	// Preceding is text immediately before the chunk (the overlap window).
	Preceding string

	// Heading is the nearest markdown heading above the chunk, if any.
	Heading string
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}

// Contains reports whether the absolute offset falls inside the chunk.
func (c Chunk) Contains(offset int) bool {
	return offset >= c.StartOffset && offset < c.EndOffset
}

// Span returns the chunk's range as a Span.
func (c Chunk) Span() Span {
	return Span{Start: c.StartOffset, End: c.EndOffset}
}

// ValidateChunks checks the chunk invariants against the document text:
// every chunk is an exact slice of text, and ranges are monotonic and non-overlapping.
func ValidateChunks(text string, chunks []Chunk) error {
	prevEnd := 0
	for i, c := range chunks {
		if c.StartOffset < 0 || c.EndOffset > len(text) || c.StartOffset > c.EndOffset {
			return &ChunkError{Index: i, Reason: "offsets out of range"}
		}
		if c.StartOffset < prevEnd {
			return &ChunkError{Index: i, Reason: "overlaps previous chunk"}
		}
		if text[c.StartOffset:c.EndOffset] != c.Text {
			return &ChunkError{Index: i, Reason: "text does not match document range"}
		}
		prevEnd = c.EndOffset
	}
	return nil
}

// ChunkError describes a chunk that violates the chunk invariants.
type ChunkError struct {
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *ChunkError) Error() string {
	return "chunk " + strconv.Itoa(e.Index) + ": " + e.Reason
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *ChunkError) Unwrap() error {
	return ErrInvalidInput
}
