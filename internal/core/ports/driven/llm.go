// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService generates answers from prompts.
//
// Implementations include:
//   - Ollama (local models)
//   - OpenAI (or any OpenAI-compatible server)
//   - Anthropic (Claude)
//   - Gemini
//   - Extractive, which selects sentences from the prompt context in process
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
// Zero values mean "provider default".
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// TopK restricts sampling to the k most likely tokens.
	TopK int

	// TopP restricts sampling to the smallest set with cumulative probability p.
	TopP float64

	// Seed pins sampling when non-zero. Providers without seed support ignore it.
	Seed int

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
