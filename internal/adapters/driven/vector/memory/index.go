// Package memory provides a brute-force cosine similarity index held in memory.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunkID string
	vector  []float32 // unit length, or all zeros
}

// Index scores every stored vector per query. Search results are
// ordered by descending similarity, ties by insertion order.
type Index struct {
	mu        sync.RWMutex
	dimension int
	entries   []entry
	ids       map[string]int
	closed    bool
}

// New creates an empty index. A zero dimension is fixed by the first Add.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		ids:       make(map[string]int),
	}
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(_ context.Context, dimensions int) (driven.VectorIndex, error) {
	return New(dimensions), nil
}

// Add inserts a vector for the given chunk ID, replacing any previous vector.
func (idx *Index) Add(ctx context.Context, chunkID string, embedding []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if chunkID == "" {
		return fmt.Errorf("%w: empty chunk id", domain.ErrInvalidInput)
	}
	if len(embedding) == 0 {
		return fmt.Errorf("%w: empty embedding for %s", domain.ErrInvalidInput, chunkID)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return fmt.Errorf("%w: index closed", domain.ErrVectorIndexUnavailable)
	}
	if idx.dimension == 0 {
		idx.dimension = len(embedding)
	}
	if len(embedding) != idx.dimension {
		return fmt.Errorf("%w: dimension %d, index expects %d", domain.ErrInvalidInput, len(embedding), idx.dimension)
	}

	e := entry{chunkID: chunkID, vector: normalise(embedding)}
	if i, ok := idx.ids[chunkID]; ok {
		idx.entries[i] = e
		return nil
	}
	idx.ids[chunkID] = len(idx.entries)
	idx.entries = append(idx.entries, e)
	return nil
}

// Search returns up to k hits by cosine similarity. A zero query vector has no hits.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("%w: index closed", domain.ErrVectorIndexUnavailable)
	}
	if len(idx.entries) == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d", domain.ErrEmbeddingUnavailable, len(query), idx.dimension)
	}

	q := normalise(query)
	if isZero(q) {
		return nil, nil
	}

	hits := make([]driven.VectorHit, len(idx.entries))
	for i, e := range idx.entries {
		hits[i] = driven.VectorHit{ChunkID: e.chunkID, Similarity: dot(q, e.vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored vectors.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Dimension returns the vector size, or zero before the first Add.
func (idx *Index) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

// Close drops all vectors.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.entries = nil
	idx.ids = nil
	return nil
}

func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
