package driven

import "context"

// VectorIndex provides similarity search over chunk embeddings.
// An index is filled once during a build and then only read.
type VectorIndex interface {
	// Add inserts a vector for the given chunk ID.
	Add(ctx context.Context, chunkID string, embedding []float32) error

	// Search finds the k nearest neighbours to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of stored vectors.
	Count() int

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity score.
	Similarity float64
}

// VectorIndexFactory creates an empty VectorIndex for the given dimensions.
type VectorIndexFactory func(ctx context.Context, dimensions int) (VectorIndex, error)
