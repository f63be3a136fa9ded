// Package tfidf provides an in-process TF-IDF embedder fitted on the corpus.
package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/textutil"
)

// Ensure EmbeddingService implements the interfaces.
var (
	_ driven.EmbeddingService = (*EmbeddingService)(nil)
	_ driven.CorpusFitter     = (*EmbeddingService)(nil)
)

// ModelName is reported for every TF-IDF embedder.
const ModelName = "tfidf"

var (
	// ErrNotFitted is returned when embedding before Fit.
	ErrNotFitted = errors.New("tfidf: embedder not fitted")

	// ErrEmptyVocabulary is returned when the corpus has no usable terms.
	ErrEmptyVocabulary = errors.New("tfidf: no terms found in corpus")
)

// vocabulary is an immutable fit result.
type vocabulary struct {
	index map[string]int
	idf   []float64
}

// EmbeddingService turns text into L2-normalised TF-IDF vectors over
// the vocabulary of the last fitted corpus.
type EmbeddingService struct {
	mu    sync.RWMutex
	vocab *vocabulary
}

// NewEmbeddingService creates an unfitted embedder.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// Fit builds the vocabulary and smoothed IDF weights from texts.
// Terms are ordered alphabetically so the same corpus always yields the same vectors.
// The receiver switches to the new fit; the returned embedder stays on it
// even if the receiver is refitted later.
func (s *EmbeddingService) Fit(ctx context.Context, texts []string) (driven.EmbeddingService, error) {
	df := make(map[string]int)
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, term := range textutil.Terms(text) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	v := &vocabulary{
		index: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	n := float64(len(texts))
	for i, term := range terms {
		v.index[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	s.mu.Lock()
	s.vocab = v
	s.mu.Unlock()
	return &EmbeddingService{vocab: v}, nil
}

// Embed computes the TF-IDF vector for text. Text with no known
// terms yields a zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := s.current()
	if v == nil {
		return nil, ErrNotFitted
	}
	return v.embed(text), nil
}

// EmbedBatch embeds each text against the same vocabulary.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	v := s.current()
	if v == nil {
		return nil, ErrNotFitted
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = v.embed(text)
	}
	return out, nil
}

func (v *vocabulary) embed(text string) []float32 {
	vec := make([]float64, len(v.idf))
	tf := make(map[int]int)
	total := 0
	for _, term := range textutil.Terms(text) {
		if idx, ok := v.index[term]; ok {
			tf[idx]++
			total++
		}
	}

	out := make([]float32, len(vec))
	if total == 0 {
		return out
	}
	var norm float64
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * v.idf[idx]
		norm += vec[idx] * vec[idx]
	}
	norm = math.Sqrt(norm)
	for i, x := range vec {
		out[i] = float32(x / norm)
	}
	return out
}

func (s *EmbeddingService) current() *vocabulary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab
}

// Dimensions returns the vocabulary size, or zero before Fit.
func (s *EmbeddingService) Dimensions() int {
	v := s.current()
	if v == nil {
		return 0
	}
	return len(v.idf)
}

// ModelName returns "tfidf".
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
