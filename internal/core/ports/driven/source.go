package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// DocumentSource reads the corpus.
type DocumentSource interface {
	// Dir returns the corpus directory.
	Dir() string

	// Load reads every document currently in the corpus.
	// A missing directory yields an empty set and no error; unreadable
	// files are skipped and listed in the report.
	Load(ctx context.Context) ([]domain.Document, domain.LoadReport, error)

	// Watch emits corpus changes until ctx is cancelled or the source is closed.
	// The channel is closed when watching stops.
	Watch(ctx context.Context) (<-chan domain.CorpusChange, error)

	// Close releases resources. Safe to call more than once.
	Close() error
}
