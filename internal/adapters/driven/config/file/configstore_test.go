package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, ConfigFileName), store.Path())
	assert.Empty(t, store.Keys())
}

func TestNewConfigStore_CreatesNestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte("not = [valid"), 0o600))

	_, err := NewConfigStore(tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("retrieval.top_k", 3))
	require.NoError(t, store.Set("generation.temperature", 0.2))
	require.NoError(t, store.Set("cache.embeddings", true))
	require.NoError(t, store.Set("corpus.include", []string{"*.md"}))

	assert.Equal(t, "ollama", store.GetString("llm.provider"))
	assert.Equal(t, 3, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.2, store.GetFloat("generation.temperature"), 1e-9)
	assert.True(t, store.GetBool("cache.embeddings"))
	assert.Equal(t, []string{"*.md"}, store.GetStringSlice("corpus.include"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("llm.provider"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_Set_EmptyKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("", "x"))
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("retrieval.top_k", 4))
	require.NoError(t, store.Set("generation.top_p", 0.5))

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "openai", reopened.GetString("llm.provider"))
	assert.Equal(t, "gpt-4o-mini", reopened.GetString("llm.model"))
	assert.Equal(t, 4, reopened.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.5, reopened.GetFloat("generation.top_p"), 1e-9)
	assert.Equal(t, []string{"generation.top_p", "llm.model", "llm.provider", "retrieval.top_k"}, reopened.Keys())
}

func TestConfigStore_WritesTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", ":9000"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	assert.Contains(t, string(data), "[server]")
	assert.Contains(t, string(data), ":9000")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[corpus]
dir = "/srv/docs"
include = ["*.md", "*.txt"]

[retrieval]
top_k = 5
min_similarity = 0.25
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(content), 0o600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", store.GetString("corpus.dir"))
	assert.Equal(t, []string{"*.md", "*.txt"}, store.GetStringSlice("corpus.include"))
	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.InDelta(t, 0.25, store.GetFloat("retrieval.min_similarity"), 1e-9)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", "v"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigStore_Save_WriteError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(tmpDir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(tmpDir, 0o700) })

	assert.Error(t, store.Save())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("counter", n)
			_ = store.GetInt("counter")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("counter")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"e":     true,
	})

	assert.Equal(t, map[string]any{
		"a": map[string]any{
			"b": 1,
			"c": map[string]any{"d": "x"},
		},
		"e": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flattenMap(nested, ""))
}

func TestNestMap_ValueAndTableConflict(t *testing.T) {
	nested := nestMap(map[string]any{
		"a":   "scalar",
		"a.b": 1,
	})

	assert.Equal(t, "scalar", nested["a"])
	assert.Equal(t, 1, nested["a.b"])
}
