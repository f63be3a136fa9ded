package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a backend for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API (or a compatible server).
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderTFIDF is an in-process TF-IDF embedder fitted on the corpus. Embeddings only.
	AIProviderTFIDF AIProvider = "tfidf"

	// AIProviderExtractive is an in-process extractive answerer. Generation only.
	AIProviderExtractive AIProvider = "extractive"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini,
		AIProviderTFIDF, AIProviderExtractive:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderTFIDF || p == AIProviderExtractive
}

// InProcess returns true if the provider needs no external service.
func (p AIProvider) InProcess() bool {
	return p == AIProviderTFIDF || p == AIProviderExtractive
}

// APIKeyEnv returns the environment variable consulted for this provider's API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderTFIDF:
		return "TF-IDF (in-process)"
	case AIProviderExtractive:
		return "Extractive (in-process)"
	default:
		return unknownDescription
	}
}

// ChunkingStrategy selects how documents are split before embedding.
type ChunkingStrategy string

// Available chunking strategies.
const (
	// ChunkingNone embeds each document whole.
	ChunkingNone ChunkingStrategy = "none"

	// ChunkingFixed splits into fixed-size character windows with overlap.
	ChunkingFixed ChunkingStrategy = "fixed"

	// ChunkingSentence groups whole sentences with sentence overlap.
	ChunkingSentence ChunkingStrategy = "sentence"
)

// IsValid returns true if the strategy is recognised.
func (c ChunkingStrategy) IsValid() bool {
	switch c {
	case ChunkingNone, ChunkingFixed, ChunkingSentence:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c ChunkingStrategy) String() string {
	return string(c)
}

// ProcessorName returns the post-processor registered for this strategy.
func (c ChunkingStrategy) ProcessorName() string {
	switch c {
	case ChunkingNone:
		return "whole"
	case ChunkingSentence:
		return "sentence"
	default:
		return "chunker"
	}
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector index backends.
const (
	// VectorBackendMemory is a brute-force cosine index held in process memory.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendChromem is an in-memory chromem-go collection.
	VectorBackendChromem VectorBackend = "chromem"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == VectorBackendMemory || b == VectorBackendChromem
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// CorpusSettings configures the document source.
type CorpusSettings struct {
	// Dir is the flat directory holding the corpus.
	Dir string

	// CreateMissing creates Dir when it does not exist.
	CreateMissing bool

	// Include limits loading to file names matching any pattern. Empty means all files.
	Include []string

	// Exclude skips file names matching any pattern.
	Exclude []string

	// MaxFileBytes skips files larger than this. Zero disables the limit.
	MaxFileBytes int64
}

// ChunkingSettings configures the chunking policy.
type ChunkingSettings struct {
	// Strategy selects the chunker.
	Strategy ChunkingStrategy

	// ChunkSize is the window size in characters (fixed strategy).
	ChunkSize int

	// Overlap is the window overlap in characters (fixed strategy).
	Overlap int

	// SentencesPerChunk is the group size (sentence strategy).
	SentencesPerChunk int

	// SentenceOverlap is the number of sentences shared by neighbours (sentence strategy).
	SentenceOverlap int
}

// PipelineConfig converts the chunking settings into a post-processor pipeline.
func (c ChunkingSettings) PipelineConfig() PipelineConfig {
	name := c.Strategy.ProcessorName()
	cfg := map[string]any{}
	switch c.Strategy {
	case ChunkingFixed:
		cfg["chunk_size"] = c.ChunkSize
		cfg["overlap"] = c.Overlap
	case ChunkingSentence:
		cfg["sentences_per_chunk"] = c.SentencesPerChunk
		cfg["overlap"] = c.SentenceOverlap
	}
	return PipelineConfig{
		Processors:       []string{name},
		ProcessorConfigs: map[string]map[string]any{name: cfg},
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderExtractive || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderTFIDF {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds sampling parameters passed to the generation backend.
type GenerationSettings struct {
	// MaxTokens is the maximum answer length in tokens.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopK restricts sampling to the k most likely tokens.
	TopK int

	// TopP restricts sampling to the smallest token set with cumulative probability p.
	TopP float64

	// Seed pins sampling when non-zero so repeated questions get repeated answers.
	Seed int
}

// RetrievalSettings configures chunk retrieval per question.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// MinSimilarity drops hits below this cosine similarity.
	MinSimilarity float64
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend selects the index implementation.
	Backend VectorBackend
}

// PipelineSettings holds query pipeline behaviour.
type PipelineSettings struct {
	// ContextWindow is the prompt budget in tokens.
	ContextWindow int

	// FallbackAnswer is displayed when a question cannot be answered.
	FallbackAnswer string

	// EmbedBatchSize is the number of chunks embedded per backend call.
	EmbedBatchSize int

	// PingBackends validates backend connectivity before building.
	PingBackends bool

	// ScratchDir holds auxiliary files such as the embedding cache.
	ScratchDir string
}

// CacheSettings configures persistent caches.
type CacheSettings struct {
	// Embeddings caches chunk embeddings on disk between builds.
	Embeddings bool
}

// HistorySettings configures the question history store.
type HistorySettings struct {
	// DSN selects the store. Empty disables history, "sqlite" uses the default
	// database file, postgres:// URLs use PostgreSQL, anything else is a SQLite path.
	DSN string
}

// Enabled returns true if question history should be recorded.
func (h HistorySettings) Enabled() bool {
	return h.DSN != ""
}

// ServerSettings configures the web shell.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// Title is the page title.
	Title string

	// RateLimit is the sustained requests per second allowed per client. Zero disables limiting.
	RateLimit float64

	// RateBurst is the burst size per client.
	RateBurst int

	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Corpus      CorpusSettings
	Chunking    ChunkingSettings
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	Generation  GenerationSettings
	Retrieval   RetrievalSettings
	VectorIndex VectorIndexSettings
	Pipeline    PipelineSettings
	Cache       CacheSettings
	History     HistorySettings
	Server      ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both backends default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Corpus: CorpusSettings{
			Dir:           "./data",
			CreateMissing: true,
			MaxFileBytes:  10 << 20,
		},
		Chunking: ChunkingSettings{
			Strategy:          ChunkingFixed,
			ChunkSize:         1000,
			Overlap:           200,
			SentencesPerChunk: 5,
			SentenceOverlap:   1,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderOllama,
			Model:    DefaultLLMModels()[AIProviderOllama],
		},
		Generation: GenerationSettings{
			MaxTokens:   256,
			Temperature: 0.7,
			TopK:        10,
			TopP:        0.9,
		},
		Retrieval: RetrievalSettings{
			TopK: 2,
		},
		VectorIndex: VectorIndexSettings{
			Backend: VectorBackendMemory,
		},
		Pipeline: PipelineSettings{
			ContextWindow:  2048,
			FallbackAnswer: DefaultFallbackAnswer,
			EmbedBatchSize: 32,
		},
		Server: ServerSettings{
			Addr:        "127.0.0.1:8501",
			Title:       "docqa",
			RateLimit:   5,
			RateBurst:   10,
			ReadTimeout: 10 * time.Second,
		},
	}
}

// Validate checks settings for values the pipeline cannot run with.
func (s AppSettings) Validate() error {
	if s.Corpus.Dir == "" {
		return fmt.Errorf("%w: corpus.dir is empty", ErrInvalidInput)
	}
	if !s.Chunking.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown chunking strategy %q", ErrInvalidInput, s.Chunking.Strategy)
	}
	if s.Chunking.Strategy == ChunkingFixed && s.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunking.chunk_size must be positive", ErrInvalidInput)
	}
	if !s.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not usable", ErrEmbeddingUnavailable, s.Embedding.Provider)
	}
	if !s.LLM.IsConfigured() {
		return fmt.Errorf("%w: llm provider %q is not usable", ErrLLMUnavailable, s.LLM.Provider)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	}
	if s.Retrieval.MinSimilarity < 0 || s.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("%w: retrieval.min_similarity must be within [0, 1]", ErrInvalidInput)
	}
	if !s.VectorIndex.Backend.IsValid() {
		return fmt.Errorf("%w: unknown vector backend %q", ErrVectorIndexUnavailable, s.VectorIndex.Backend)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderTFIDF,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
		AIProviderExtractive,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "text-embedding-004",
		AIProviderTFIDF:  "tfidf",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:     "llama3.2",
		AIProviderOpenAI:     "gpt-4o-mini",
		AIProviderAnthropic:  "claude-3-5-sonnet-latest",
		AIProviderGemini:     "gemini-1.5-flash",
		AIProviderExtractive: "extractive",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"text-embedding-004": 768,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors need no struct changes.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}
