package driven

import "github.com/custodia-labs/docqa/internal/core/domain"

// AIConfigValidator checks backend settings before they are saved, by
// constructing the client and pinging it.
type AIConfigValidator interface {
	ValidateEmbedding(config *domain.EmbeddingSettings) error
	ValidateLLM(config *domain.LLMSettings) error
}
