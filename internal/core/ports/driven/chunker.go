package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// Chunker splits a document into ordered, non-overlapping chunks
// whose text is an exact slice of the document content.
type Chunker interface {
	Chunk(doc *domain.Document) ([]domain.Chunk, error)
}
