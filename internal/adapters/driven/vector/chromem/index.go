// Package chromem provides a vector index backed by an in-memory chromem-go collection.
package chromem

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// collectionName is the single collection each index owns.
const collectionName = "chunks"

// Index stores chunk vectors in a chromem-go collection.
// Zero vectors cannot be normalised for cosine similarity, so they are
// counted but never stored; they would never be a useful match.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	dimension  int
	zero       map[string]struct{}
	closed     bool
}

// New creates an index with its own in-memory database.
// A zero dimension is fixed by the first Add.
func New(dimension int) (*Index, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, map[string]string{"hnsw:space": "cosine"}, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("%w: create collection: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return &Index{
		db:         db,
		collection: collection,
		dimension:  dimension,
		zero:       make(map[string]struct{}),
	}, nil
}

// Factory adapts New to driven.VectorIndexFactory.
func Factory(_ context.Context, dimensions int) (driven.VectorIndex, error) {
	return New(dimensions)
}

// noEmbedding guards against chromem embedding content itself; every
// document arrives with a precomputed vector.
func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("%w: chromem index stores precomputed vectors only", domain.ErrInvalidInput)
}

// Add inserts a vector for the given chunk ID.
func (idx *Index) Add(ctx context.Context, chunkID string, embedding []float32) error {
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

	if isZero(embedding) {
		idx.zero[chunkID] = struct{}{}
		return nil
	}

	// chromem normalises in place; keep the caller's slice intact.
	vector := append([]float32(nil), embedding...)
	if err := idx.collection.Add(ctx, []string{chunkID}, [][]float32{vector}, nil, nil); err != nil {
		return fmt.Errorf("%w: add %s: %w", domain.ErrVectorIndexUnavailable, chunkID, err)
	}
	return nil
}

// Search returns up to k hits by cosine similarity. A zero query vector has no hits.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, fmt.Errorf("%w: index closed", domain.ErrVectorIndexUnavailable)
	}
	stored := idx.collection.Count()
	if stored == 0 {
		return nil, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d", domain.ErrEmbeddingUnavailable, len(query), idx.dimension)
	}
	if isZero(query) {
		return nil, nil
	}

	// chromem rejects nResults larger than the collection.
	n := min(k, stored)
	results, err := idx.collection.QueryEmbedding(ctx, append([]float32(nil), query...), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", domain.ErrVectorIndexUnavailable, err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		sim := float64(r.Similarity)
		if math.IsNaN(sim) {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: r.ID, Similarity: sim})
	}
	return hits, nil
}

// Count returns the number of vectors added, including zero vectors.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return 0
	}
	return idx.collection.Count() + len(idx.zero)
}

// Close drops the collection.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil
	}
	idx.closed = true
	idx.zero = nil
	return idx.db.DeleteCollection(collectionName)
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
