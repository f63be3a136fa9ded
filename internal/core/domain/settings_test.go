package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{
		AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic,
		AIProviderGemini, AIProviderTFIDF, AIProviderExtractive,
	} {
		assert.True(t, p.IsValid(), p)
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.False(t, AIProvider("huggingface").IsValid())
	assert.Equal(t, unknownDescription, AIProvider("huggingface").Description())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderTFIDF.RequiresAPIKey())
	assert.False(t, AIProviderExtractive.RequiresAPIKey())
}

func TestAIProvider_APIKeyEnv(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", AIProviderOpenAI.APIKeyEnv())
	assert.Equal(t, "ANTHROPIC_API_KEY", AIProviderAnthropic.APIKeyEnv())
	assert.Equal(t, "GEMINI_API_KEY", AIProviderGemini.APIKeyEnv())
	assert.Equal(t, "", AIProviderOllama.APIKeyEnv())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		want     bool
	}{
		{"ollama", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"tfidf", EmbeddingSettings{Provider: AIProviderTFIDF}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}, true},
		{"anthropic cannot embed", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
		{"extractive cannot embed", EmbeddingSettings{Provider: AIProviderExtractive}, false},
		{"empty", EmbeddingSettings{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderExtractive}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderTFIDF}.IsConfigured())
}

func TestChunkingSettings_PipelineConfig(t *testing.T) {
	t.Run("fixed", func(t *testing.T) {
		cfg := ChunkingSettings{Strategy: ChunkingFixed, ChunkSize: 500, Overlap: 50}.PipelineConfig()
		require.Equal(t, []string{"chunker"}, cfg.Processors)
		assert.Equal(t, 500, cfg.GetProcessorConfig("chunker")["chunk_size"])
		assert.Equal(t, 50, cfg.GetProcessorConfig("chunker")["overlap"])
	})

	t.Run("sentence", func(t *testing.T) {
		cfg := ChunkingSettings{Strategy: ChunkingSentence, SentencesPerChunk: 4, SentenceOverlap: 1}.PipelineConfig()
		require.Equal(t, []string{"sentence"}, cfg.Processors)
		assert.Equal(t, 4, cfg.GetProcessorConfig("sentence")["sentences_per_chunk"])
	})

	t.Run("none", func(t *testing.T) {
		cfg := ChunkingSettings{Strategy: ChunkingNone}.PipelineConfig()
		assert.Equal(t, []string{"whole"}, cfg.Processors)
	})
}

func TestPipelineConfig_GetProcessorConfig_Nil(t *testing.T) {
	var cfg PipelineConfig
	assert.Nil(t, cfg.GetProcessorConfig("chunker"))
}

func TestDefaultAppSettings_Valid(t *testing.T) {
	s := DefaultAppSettings()

	require.NoError(t, s.Validate())
	assert.Equal(t, "./data", s.Corpus.Dir)
	assert.True(t, s.Corpus.CreateMissing)
	assert.Equal(t, AIProviderOllama, s.Embedding.Provider)
	assert.Equal(t, "all-minilm", s.Embedding.Model)
	assert.Equal(t, 256, s.Generation.MaxTokens)
	assert.Equal(t, 10, s.Generation.TopK)
	assert.InDelta(t, 0.9, s.Generation.TopP, 1e-9)
	assert.Equal(t, 2048, s.Pipeline.ContextWindow)
	assert.Equal(t, DefaultFallbackAnswer, s.Pipeline.FallbackAnswer)
	assert.False(t, s.History.Enabled())
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppSettings)
		wantErr error
	}{
		{"empty dir", func(s *AppSettings) { s.Corpus.Dir = "" }, ErrInvalidInput},
		{"bad strategy", func(s *AppSettings) { s.Chunking.Strategy = "paragraph" }, ErrInvalidInput},
		{"zero chunk size", func(s *AppSettings) { s.Chunking.ChunkSize = 0 }, ErrInvalidInput},
		{"bad embedder", func(s *AppSettings) { s.Embedding.Provider = AIProviderAnthropic }, ErrEmbeddingUnavailable},
		{"bad llm", func(s *AppSettings) { s.LLM.Provider = AIProviderOpenAI }, ErrLLMUnavailable},
		{"zero top k", func(s *AppSettings) { s.Retrieval.TopK = 0 }, ErrInvalidInput},
		{"similarity out of range", func(s *AppSettings) { s.Retrieval.MinSimilarity = 1.5 }, ErrInvalidInput},
		{"bad backend", func(s *AppSettings) { s.VectorIndex.Backend = "faiss" }, ErrVectorIndexUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), err)
		})
	}
}

func TestVectorBackend_IsValid(t *testing.T) {
	assert.True(t, VectorBackendMemory.IsValid())
	assert.True(t, VectorBackendChromem.IsValid())
	assert.False(t, VectorBackend("hnsw").IsValid())
}
