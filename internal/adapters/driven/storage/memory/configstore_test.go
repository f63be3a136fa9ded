package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	store := NewConfigStore(map[string]any{"llm.provider": "extractive"}, map[string]any{"retrieval.top_k": 3})

	assert.Equal(t, "extractive", store.GetString("llm.provider"))
	assert.Equal(t, 3, store.GetInt("retrieval.top_k"))
	assert.Equal(t, []string{"llm.provider", "retrieval.top_k"}, store.Keys())
}

func TestConfigStore_Getters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", int64(9)))
	require.NoError(t, store.Set("f", 0.5))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("l", []any{"a", "b"}))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 9, store.GetInt("i"))
	assert.InDelta(t, 0.5, store.GetFloat("f"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("l"))

	t.Run("missing and mistyped keys yield zero values", func(t *testing.T) {
		assert.Equal(t, "", store.GetString("i"))
		assert.Equal(t, 0, store.GetInt("missing"))
		assert.Zero(t, store.GetFloat("b"))
		assert.False(t, store.GetBool("s"))
		assert.Nil(t, store.GetStringSlice("missing"))
	})
}

func TestConfigStore_NoOps(t *testing.T) {
	store := NewConfigStore()
	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%5)
			_ = store.Set(key, n)
			_ = store.GetInt(key)
			_ = store.Keys()
		}(i)
	}
	wg.Wait()
	assert.Len(t, store.Keys(), 5)
}
