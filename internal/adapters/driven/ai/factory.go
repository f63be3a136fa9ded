// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/tfidf"
	anthropicllm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/docqa/internal/adapters/driven/llm/extractive"
	geminillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult holds the backends the query pipeline is built with.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() error {
	var errs []error
	if r.EmbeddingService != nil {
		errs = append(errs, r.EmbeddingService.Close())
	}
	if r.LLMService != nil {
		errs = append(errs, r.LLMService.Close())
	}
	return errors.Join(errs...)
}

// Init creates both backends. With ping set each is validated before return.
// A backend that cannot be created or reached is a build-time failure.
func Init(ctx context.Context, settings *domain.AppSettings, ping bool) (*InitResult, error) {
	create := func(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return CreateEmbeddingService(ctx, s)
	}
	createLLM := func(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
		return CreateLLMService(ctx, s)
	}
	if ping {
		create = CreateAndValidateEmbeddingService
		createLLM = CreateAndValidateLLMService
	}

	embedder, err := create(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	llm, err := createLLM(ctx, &settings.LLM)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	logger.Debug("backends ready: embedding=%s/%s llm=%s/%s",
		settings.Embedding.Provider, embedder.ModelName(), settings.LLM.Provider, llm.ModelName())
	return &InitResult{EmbeddingService: embedder, LLMService: llm}, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings show' to check the configuration",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'docqa settings show' to check the configuration",
			domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// A nil configuration has nothing to validate.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil {
		return nil
	}
	svc, err := CreateAndValidateEmbeddingService(context.Background(), settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
// A nil configuration has nothing to validate.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil {
		return nil
	}
	svc, err := CreateAndValidateLLMService(context.Background(), settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Every failure wraps domain.ErrEmbeddingUnavailable.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrEmbeddingUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbeddingUnavailable, notConfiguredReason(settings.Provider, settings.APIKey, "embeddings"))
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	case domain.AIProviderTFIDF:
		svc = tfidf.NewEmbeddingService()
	default:
		err = fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateLLMService creates the generation service selected by settings.
// Every failure wraps domain.ErrLLMUnavailable.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no llm settings", domain.ErrLLMUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", domain.ErrLLMUnavailable, notConfiguredReason(settings.Provider, settings.APIKey, "generation"))
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	case domain.AIProviderExtractive:
		svc = extractive.NewLLMService(extractive.Config{})
	default:
		err = fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// notConfiguredReason explains why IsConfigured returned false.
func notConfiguredReason(provider domain.AIProvider, apiKey, capability string) string {
	switch {
	case provider == "":
		return "no provider configured"
	case !provider.IsValid():
		return fmt.Sprintf("unknown provider %q", provider)
	case provider.RequiresAPIKey() && apiKey == "":
		return fmt.Sprintf("%s requires an API key (set %s)", provider, provider.APIKeyEnv())
	default:
		return fmt.Sprintf("%s does not support %s", provider, capability)
	}
}
