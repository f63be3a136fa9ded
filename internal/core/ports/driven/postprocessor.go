package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PostProcessor is one step of chunking. The first step of a pipeline
// receives nil chunks and splits the document; later steps receive the
// previous step's chunks and may rewrite, merge or drop them.
type PostProcessor interface {
	// Name identifies the step in settings and errors.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chunks a whole document. Blank documents yield no
// chunks and no error.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
