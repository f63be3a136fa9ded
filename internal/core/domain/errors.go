package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, backend or strategy.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline lifecycle errors.

	// ErrEmptyCorpus indicates the document source yielded no documents.
	// The pipeline refuses to serve questions in this state.
	ErrEmptyCorpus = errors.New("corpus contains no documents")

	// ErrNotReady indicates a question was asked before a successful build.
	ErrNotReady = errors.New("pipeline not ready")

	// ErrAlreadyBuilt indicates Build was called on a pipeline that already serves.
	// Use Rebuild to replace the index.
	ErrAlreadyBuilt = errors.New("pipeline already built")

	// Serve errors.

	// ErrNoRelevantDocuments indicates retrieval found nothing to answer from.
	ErrNoRelevantDocuments = errors.New("no relevant documents")

	// ErrEmptyGeneration indicates the generation backend returned no text.
	ErrEmptyGeneration = errors.New("generation returned no text")

	// Backend errors.

	// ErrLLMUnavailable indicates the generation backend is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding backend is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index could not be created.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates a client exceeded the request rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrHistoryDisabled indicates no history store is configured.
	ErrHistoryDisabled = errors.New("question history is disabled")
)

// IsBackendError reports whether err stems from an unavailable backend.
func IsBackendError(err error) bool {
	return errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrVectorIndexUnavailable) ||
		errors.Is(err, ErrEmptyGeneration)
}
