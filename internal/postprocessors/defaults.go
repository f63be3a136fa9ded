package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/sentence"
	"github.com/custodia-labs/docqa/internal/postprocessors/whole"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("sentence", buildSentence)
	r.Register("whole", buildWhole)
}

// NewDefaultRegistry returns a registry with every built-in processor.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := intFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildSentence creates a sentence processor from generic config.
// Supported config keys:
//   - sentences_per_chunk (int): Sentences per chunk (default: 5)
//   - overlap (int): Sentences shared by neighbouring chunks (default: 1)
func buildSentence(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []sentence.Option

	if n, ok := intFromConfig(cfg, "sentences_per_chunk"); ok {
		opts = append(opts, sentence.WithSentencesPerChunk(n))
	}
	if n, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, sentence.WithOverlap(n))
	}

	return sentence.New(opts...), nil
}

func buildWhole(map[string]any) (driven.PostProcessor, error) {
	return whole.New(), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	v, _ := intFromConfig(cfg, key)
	return v
}

func intFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
