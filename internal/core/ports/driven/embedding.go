// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations include:
//   - Ollama (all-minilm, nomic-embed-text)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Gemini (text-embedding-004)
//   - TF-IDF fitted on the corpus, in process
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	// Zero means unknown until the first vector is produced.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CorpusFitter is implemented by embedders that must see the corpus
// before they can embed, such as TF-IDF. Fit returns an embedder frozen
// on that corpus, so an index keeps embedding questions the way it
// embedded its chunks after a later refit.
type CorpusFitter interface {
	Fit(ctx context.Context, texts []string) (EmbeddingService, error)
}

// EmbeddingCache persists embeddings keyed by model and text.
type EmbeddingCache interface {
	// Get returns the cached vector, or false when absent.
	Get(ctx context.Context, model, text string) ([]float32, bool, error)

	// Put stores a vector.
	Put(ctx context.Context, model, text string, vector []float32) error

	// Close releases resources.
	Close() error
}
