package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestSettingsShow(t *testing.T) {
	useMemorySettings(t)
	require.NoError(t, settingsService.Set("retrieval.top_k", "4"))

	out, _, err := execute(t, "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[retrieval]")
	assert.Regexp(t, `top_k\s+4\n`, out)
	assert.Regexp(t, `chunk_size\s+1000  \(default\)`, out)
	assert.Contains(t, out, "(not set)")
}

func TestSettingsShow_JSON(t *testing.T) {
	useMemorySettings(t)

	out, _, err := execute(t, "settings", "show", "-o", "json")
	require.NoError(t, err)

	var entries []driving.SettingEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	assert.Len(t, entries, len(settingsService.Keys()))
}

func TestSettingsShow_YAML(t *testing.T) {
	useMemorySettings(t)

	out, _, err := execute(t, "settings", "show", "--output", "yaml")

	require.NoError(t, err)
	assert.Contains(t, out, "corpus.dir")
}

func TestSettingsShow_UnknownFormat(t *testing.T) {
	useMemorySettings(t)

	_, _, err := execute(t, "settings", "show", "-o", "xml")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsSet(t *testing.T) {
	useMemorySettings(t)

	out, _, err := execute(t, "settings", "set", "chunking.strategy", "sentence")

	require.NoError(t, err)
	assert.Contains(t, out, "chunking.strategy updated")
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkingSentence, settings.Chunking.Strategy)
}

func TestSettingsSet_Errors(t *testing.T) {
	useMemorySettings(t)

	t.Run("unknown key", func(t *testing.T) {
		_, _, err := execute(t, "settings", "set", "nope.key", "1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("bad value", func(t *testing.T) {
		_, _, err := execute(t, "settings", "set", "retrieval.top_k", "many")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing value", func(t *testing.T) {
		_, _, err := execute(t, "settings", "set", "retrieval.top_k")
		assert.Error(t, err)
	})
}

func TestSettingsKeys(t *testing.T) {
	useMemorySettings(t)

	out, _, err := execute(t, "settings", "keys")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, settingsService.Keys(), lines)
}

func TestSettingsEmbedding_InProcess(t *testing.T) {
	useMemorySettings(t)
	prev := settingsInput
	defer func() { settingsInput = prev }()

	// Option 4 is the in-process embedder, which asks no further questions.
	settingsInput = strings.NewReader("4\n")

	out, _, err := execute(t, "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Validating configuration... OK")
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderTFIDF, settings.Embedding.Provider)
}

func TestSettingsLLM_CustomModel(t *testing.T) {
	useMemorySettings(t)
	prev := settingsInput
	defer func() { settingsInput = prev }()

	settingsInput = strings.NewReader("1\nllama3.1:8b\n")

	_, _, err := execute(t, "settings", "llm")

	require.NoError(t, err)
	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.1:8b", settings.LLM.Model)
}

func TestSettingsLLM_MissingAPIKey(t *testing.T) {
	useMemorySettings(t)
	t.Setenv("OPENAI_API_KEY", "")
	prev := settingsInput
	defer func() { settingsInput = prev }()

	settingsInput = strings.NewReader("2\n\n\n")

	_, _, err := execute(t, "settings", "llm")

	assert.ErrorContains(t, err, "API key is required")
}

func TestSettingsWizard(t *testing.T) {
	useMemorySettings(t)
	prev := settingsInput
	defer func() { settingsInput = prev }()

	corpus := t.TempDir()
	settingsInput = strings.NewReader(corpus + "\n4\n5\n")

	out, _, err := execute(t, "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Configuration Complete!")
	assert.Contains(t, out, "All settings are valid and saved.")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, corpus, settings.Corpus.Dir)
	assert.Equal(t, domain.AIProviderTFIDF, settings.Embedding.Provider)
	assert.Equal(t, domain.AIProviderExtractive, settings.LLM.Provider)
}
