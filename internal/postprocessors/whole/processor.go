// Package whole provides a processor that keeps each document as one chunk.
package whole

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// Processor emits the whole document content as a single chunk.
type Processor struct{}

// New creates a whole-document processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "whole"
}

// Process returns one chunk holding the document content, or none for blank documents.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}
	return []domain.Chunk{{
		ID:         chunker.ChunkID(doc.ID, 0),
		DocumentID: doc.ID,
		Content:    doc.Content,
		Position:   0,
		Metadata:   map[string]any{},
	}}, nil
}
