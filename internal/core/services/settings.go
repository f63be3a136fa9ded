package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys that need special handling.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyLLMProvider   = "llm.provider"
	keyLLMModel      = "llm.model"
	keyLLMBaseURL    = "llm.base_url"
	keyLLMAPIKey     = "llm.api_key"
)

// DefaultOllamaURL is set as base URL when switching to Ollama.
const DefaultOllamaURL = "http://localhost:11434"

// settingField binds a config key to the settings field it fills.
// ptr returns a pointer to that field.
type settingField struct {
	key    string
	ptr    func(s *domain.AppSettings) any
	secret bool
}

// settingFields lists every recognised key in display order.
var settingFields = []settingField{
	{key: "corpus.dir", ptr: func(s *domain.AppSettings) any { return &s.Corpus.Dir }},
	{key: "corpus.create_missing", ptr: func(s *domain.AppSettings) any { return &s.Corpus.CreateMissing }},
	{key: "corpus.include", ptr: func(s *domain.AppSettings) any { return &s.Corpus.Include }},
	{key: "corpus.exclude", ptr: func(s *domain.AppSettings) any { return &s.Corpus.Exclude }},
	{key: "corpus.max_file_bytes", ptr: func(s *domain.AppSettings) any { return &s.Corpus.MaxFileBytes }},

	{key: "chunking.strategy", ptr: func(s *domain.AppSettings) any { return &s.Chunking.Strategy }},
	{key: "chunking.chunk_size", ptr: func(s *domain.AppSettings) any { return &s.Chunking.ChunkSize }},
	{key: "chunking.overlap", ptr: func(s *domain.AppSettings) any { return &s.Chunking.Overlap }},
	{key: "chunking.sentences_per_chunk", ptr: func(s *domain.AppSettings) any { return &s.Chunking.SentencesPerChunk }},
	{key: "chunking.sentence_overlap", ptr: func(s *domain.AppSettings) any { return &s.Chunking.SentenceOverlap }},

	{key: keyEmbedProvider, ptr: func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{key: keyEmbedModel, ptr: func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{key: keyEmbedBaseURL, ptr: func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{key: keyEmbedAPIKey, ptr: func(s *domain.AppSettings) any { return &s.Embedding.APIKey }, secret: true},

	{key: keyLLMProvider, ptr: func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{key: keyLLMModel, ptr: func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{key: keyLLMBaseURL, ptr: func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{key: keyLLMAPIKey, ptr: func(s *domain.AppSettings) any { return &s.LLM.APIKey }, secret: true},

	{key: "generation.max_tokens", ptr: func(s *domain.AppSettings) any { return &s.Generation.MaxTokens }},
	{key: "generation.temperature", ptr: func(s *domain.AppSettings) any { return &s.Generation.Temperature }},
	{key: "generation.top_k", ptr: func(s *domain.AppSettings) any { return &s.Generation.TopK }},
	{key: "generation.top_p", ptr: func(s *domain.AppSettings) any { return &s.Generation.TopP }},
	{key: "generation.seed", ptr: func(s *domain.AppSettings) any { return &s.Generation.Seed }},

	{key: "retrieval.top_k", ptr: func(s *domain.AppSettings) any { return &s.Retrieval.TopK }},
	{key: "retrieval.min_similarity", ptr: func(s *domain.AppSettings) any { return &s.Retrieval.MinSimilarity }},

	{key: "vector_index.backend", ptr: func(s *domain.AppSettings) any { return &s.VectorIndex.Backend }},

	{key: "pipeline.context_window", ptr: func(s *domain.AppSettings) any { return &s.Pipeline.ContextWindow }},
	{key: "pipeline.fallback_answer", ptr: func(s *domain.AppSettings) any { return &s.Pipeline.FallbackAnswer }},
	{key: "pipeline.embed_batch_size", ptr: func(s *domain.AppSettings) any { return &s.Pipeline.EmbedBatchSize }},
	{key: "pipeline.ping_backends", ptr: func(s *domain.AppSettings) any { return &s.Pipeline.PingBackends }},
	{key: "pipeline.scratch_dir", ptr: func(s *domain.AppSettings) any { return &s.Pipeline.ScratchDir }},

	{key: "cache.embeddings", ptr: func(s *domain.AppSettings) any { return &s.Cache.Embeddings }},

	{key: "history.dsn", ptr: func(s *domain.AppSettings) any { return &s.History.DSN }, secret: true},

	{key: "server.addr", ptr: func(s *domain.AppSettings) any { return &s.Server.Addr }},
	{key: "server.title", ptr: func(s *domain.AppSettings) any { return &s.Server.Title }},
	{key: "server.rate_limit", ptr: func(s *domain.AppSettings) any { return &s.Server.RateLimit }},
	{key: "server.rate_burst", ptr: func(s *domain.AppSettings) any { return &s.Server.RateBurst }},
	{key: "server.read_timeout", ptr: func(s *domain.AppSettings) any { return &s.Server.ReadTimeout }},
}

func lookupField(key string) (settingField, bool) {
	for _, f := range settingFields {
		if f.key == key {
			return f, true
		}
	}
	return settingField{}, false
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Unset keys keep their
// defaults; unusable values are logged and replaced by the default.
// Missing API keys are read from the provider's environment variable.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	defaults := domain.DefaultAppSettings()

	for _, f := range settingFields {
		if _, exists := s.configStore.Get(f.key); !exists {
			continue
		}
		if err := s.load(f.key, f.ptr(&settings)); err != nil {
			logger.Warn("config %s: %v (using default)", f.key, err)
			s.restore(f, &settings, &defaults)
		}
	}

	// A provider switch without a model uses that provider's default model.
	if !s.has(keyEmbedModel) {
		if m, ok := domain.DefaultEmbeddingModels()[settings.Embedding.Provider]; ok {
			settings.Embedding.Model = m
		}
	}
	if !s.has(keyLLMModel) {
		if m, ok := domain.DefaultLLMModels()[settings.LLM.Provider]; ok {
			settings.LLM.Model = m
		}
	}

	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.envAPIKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.envAPIKey(settings.LLM.Provider)
	}

	return &settings, nil
}

// Save persists application settings. API keys that only come from the
// environment are not written to the config file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingFields {
		if f.key == keyEmbedAPIKey && s.fromEnv(settings.Embedding.Provider, settings.Embedding.APIKey) {
			continue
		}
		if f.key == keyLLMAPIKey && s.fromEnv(settings.LLM.Provider, settings.LLM.APIKey) {
			continue
		}
		if err := s.configStore.Set(f.key, storedValue(f.ptr(settings))); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	f, ok := lookupField(key)
	if !ok {
		return fmt.Errorf("%w: unknown settings key %q", domain.ErrInvalidInput, key)
	}

	settings := domain.DefaultAppSettings()
	ptr := f.ptr(&settings)
	if err := parseInto(ptr, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, storedValue(ptr)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised settings key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingFields))
	for i, f := range settingFields {
		keys[i] = f.key
	}
	return keys
}

// Entries returns every setting as text, with secrets masked.
func (s *SettingsService) Entries() ([]driving.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	entries := make([]driving.SettingEntry, len(settingFields))
	for i, f := range settingFields {
		value := formatValue(f.ptr(settings))
		if f.secret {
			value = mask(value)
		}
		entries[i] = driving.SettingEntry{
			Key:   f.key,
			Value: value,
			IsSet: s.has(f.key),
		}
	}
	return entries, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !supports(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels(), provider)
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !supports(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support generation", provider)
	}
	if apiKey == "" {
		apiKey = s.envAPIKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s (or set %s)", provider, provider.APIKeyEnv())
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels(), provider)
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks if current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config.

func (s *SettingsService) has(key string) bool {
	_, exists := s.configStore.Get(key)
	return exists
}

func (s *SettingsService) envAPIKey(p domain.AIProvider) string {
	if env := p.APIKeyEnv(); env != "" {
		return s.getenv(env)
	}
	return ""
}

// fromEnv reports whether key was supplied by the provider's environment
// variable rather than configured explicitly.
func (s *SettingsService) fromEnv(p domain.AIProvider, key string) bool {
	if key == "" || key != s.envAPIKey(p) {
		return false
	}
	return s.configStore.GetString(keyEmbedAPIKey) != key && s.configStore.GetString(keyLLMAPIKey) != key
}

// load reads key from the store into the field behind ptr. Text values
// are parsed so that hand-edited files are validated the same way as Set.
func (s *SettingsService) load(key string, ptr any) error {
	raw, _ := s.configStore.Get(key)
	if text, ok := raw.(string); ok {
		return parseInto(ptr, text)
	}

	switch p := ptr.(type) {
	case *int:
		*p = s.configStore.GetInt(key)
	case *int64:
		*p = int64(s.configStore.GetInt(key))
	case *float64:
		*p = s.configStore.GetFloat(key)
	case *bool:
		*p = s.configStore.GetBool(key)
	case *[]string:
		*p = nil
		if list := s.configStore.GetStringSlice(key); len(list) > 0 {
			*p = list
		}
	default:
		return fmt.Errorf("expected text, got %T", raw)
	}
	return nil
}

// restore copies the default value of one field back.
func (s *SettingsService) restore(f settingField, dst, defaults *domain.AppSettings) {
	_ = parseInto(f.ptr(dst), formatValue(f.ptr(defaults)))
}

// parseInto parses text into the field behind ptr, validating enums.
func parseInto(ptr any, text string) error {
	text = strings.TrimSpace(text)
	switch p := ptr.(type) {
	case *string:
		*p = text
	case *int:
		v, err := strconv.Atoi(text)
		if err != nil {
			return fmt.Errorf("not an integer: %q", text)
		}
		*p = v
	case *int64:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", text)
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", text)
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", text)
		}
		*p = v
	case *[]string:
		*p = splitList(text)
	case *time.Duration:
		v, err := time.ParseDuration(text)
		if err != nil {
			return fmt.Errorf("not a duration: %q", text)
		}
		*p = v
	case *domain.AIProvider:
		v := domain.AIProvider(strings.ToLower(text))
		if !v.IsValid() {
			return fmt.Errorf("unknown provider %q", text)
		}
		*p = v
	case *domain.ChunkingStrategy:
		v := domain.ChunkingStrategy(strings.ToLower(text))
		if !v.IsValid() {
			return fmt.Errorf("unknown chunking strategy %q", text)
		}
		*p = v
	case *domain.VectorBackend:
		v := domain.VectorBackend(strings.ToLower(text))
		if !v.IsValid() {
			return fmt.Errorf("unknown vector backend %q", text)
		}
		*p = v
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// storedValue converts a field into the value written to the config store.
func storedValue(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *int64:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *[]string:
		if *p == nil {
			return []string{}
		}
		return *p
	default:
		return formatValue(ptr)
	}
}

// formatValue renders a field as text.
func formatValue(ptr any) string {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *int:
		return strconv.Itoa(*p)
	case *int64:
		return strconv.FormatInt(*p, 10)
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64)
	case *bool:
		return strconv.FormatBool(*p)
	case *[]string:
		return strings.Join(*p, ",")
	case *time.Duration:
		return p.String()
	case fmt.Stringer:
		return p.String()
	default:
		return fmt.Sprint(ptr)
	}
}

func splitList(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func supports(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

func modelOrDefault(model string, defaults map[domain.AIProvider]string, p domain.AIProvider) string {
	if model != "" {
		return model
	}
	return defaults[p]
}

// baseURLFor keeps a custom URL for Ollama and OpenAI-compatible servers
// and clears it for providers that ignore it.
func baseURLFor(p domain.AIProvider, current string) string {
	switch p {
	case domain.AIProviderOllama:
		if current == "" {
			return DefaultOllamaURL
		}
		return current
	case domain.AIProviderOpenAI:
		if current == DefaultOllamaURL {
			return ""
		}
		return current
	default:
		return ""
	}
}
