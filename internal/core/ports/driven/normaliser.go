package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Normaliser turns the bytes of one corpus file into a Document.
// It rejects content it cannot represent as text; the source then skips the file.
type Normaliser interface {
	// SupportedMIMETypes lists the MIME types accepted by Normalise.
	SupportedMIMETypes() []string

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult wraps the normalised document. Chunking happens later,
// in the PostProcessorPipeline.
type NormaliseResult struct {
	Document domain.Document
}
