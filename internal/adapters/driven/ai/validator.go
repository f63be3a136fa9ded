package ai

import (
	"context"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks settings from the setup wizard by pinging the
// configured backend. In-process providers always pass.
type ConfigValidator struct {
	// Timeout bounds each check, including client construction.
	Timeout time.Duration
}

// NewConfigValidator returns a validator bounded by the ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{Timeout: pingTimeout}
}

// ValidateEmbedding pings the embedding backend described by config.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if config == nil {
		return nil
	}
	ctx, cancel := v.context()
	defer cancel()
	svc, err := CreateAndValidateEmbeddingService(ctx, config)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLM pings the generation backend described by config.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if config == nil {
		return nil
	}
	ctx, cancel := v.context()
	defer cancel()
	svc, err := CreateAndValidateLLMService(ctx, config)
	if err != nil {
		return err
	}
	return svc.Close()
}

func (v *ConfigValidator) context() (context.Context, context.CancelFunc) {
	if v.Timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), v.Timeout)
}
