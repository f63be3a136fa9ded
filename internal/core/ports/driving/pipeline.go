package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QueryPipeline answers questions about the corpus.
type QueryPipeline interface {
	// Build loads the corpus and builds the index. It runs once; a second
	// call returns domain.ErrAlreadyBuilt. Errors are fatal for the pipeline.
	Build(ctx context.Context) (domain.IndexStats, error)

	// Rebuild reloads the corpus and replaces the index atomically.
	// On failure the previous index keeps serving.
	Rebuild(ctx context.Context) (domain.IndexStats, error)

	// Ask answers a question. It never fails: problems are reported
	// through the answer's Outcome and Reason.
	Ask(ctx context.Context, question string) domain.Answer

	// Ready reports whether an index is available to serve from.
	Ready() bool

	// Stats describes the current index. The boolean is false before a build.
	Stats() (domain.IndexStats, bool)

	// Close releases backend resources.
	Close() error
}
