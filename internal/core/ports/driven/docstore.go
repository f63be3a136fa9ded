package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentStore keeps the documents and chunks behind one built index, so a
// vector hit can be resolved to its text and provenance. The pipeline fills
// a fresh store per build and only reads it afterwards.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *domain.Document) error
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument returns domain.ErrNotFound for unknown IDs.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	// GetChunks returns a document's chunks by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	// GetChunk returns domain.ErrNotFound for unknown IDs.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// ListDocuments returns every document ordered by ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
