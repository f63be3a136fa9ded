package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(req embedRequest) (int, any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			_, _ = w.Write([]byte(`{"models":[]}`))
			return
		}
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, 384, s.Dimensions())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	server := newTestServer(t, func(req embedRequest) (int, any) {
		assert.Equal(t, "all-minilm", req.Model)
		out := make([][]float64, len(req.Input))
		for i := range req.Input {
			out[i] = []float64{float64(i), 1}
		}
		return http.StatusOK, embedResponse{Embeddings: out}
	})
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL})
	vectors, err := s.EmbedBatch(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])
}

func TestEmbeddingService_Embed_LearnsDimensions(t *testing.T) {
	server := newTestServer(t, func(embedRequest) (int, any) {
		return http.StatusOK, embedResponse{Embeddings: [][]float64{{0.1, 0.2, 0.3}}}
	})
	defer server.Close()

	s := NewEmbeddingService(Config{BaseURL: server.URL, Model: "custom-model"})
	assert.Equal(t, 0, s.Dimensions())

	vec, err := s.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, 3)
	assert.Equal(t, 3, s.Dimensions())
}

func TestEmbeddingService_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		server := newTestServer(t, func(embedRequest) (int, any) {
			return http.StatusInternalServerError, map[string]string{"error": "model not loaded"}
		})
		defer server.Close()

		_, err := NewEmbeddingService(Config{BaseURL: server.URL}).Embed(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})

	t.Run("count mismatch", func(t *testing.T) {
		server := newTestServer(t, func(embedRequest) (int, any) {
			return http.StatusOK, embedResponse{}
		})
		defer server.Close()

		_, err := NewEmbeddingService(Config{BaseURL: server.URL}).EmbedBatch(context.Background(), []string{"x", "y"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected 2 embeddings")
	})
}

func TestEmbeddingService_EmbedBatch_Empty(t *testing.T) {
	vectors, err := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:0"}).EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbeddingService_Ping(t *testing.T) {
	server := newTestServer(t, nil)
	defer server.Close()

	assert.NoError(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))

	server.Close()
	assert.Error(t, NewEmbeddingService(Config{BaseURL: server.URL}).Ping(context.Background()))
}
