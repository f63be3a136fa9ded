package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// errIndexRetired is returned by an index that a rebuild has replaced.
// Callers reload the current index and try again.
var errIndexRetired = errors.New("index retired")

// Index is one immutable build of the corpus: the vectors, the chunks and
// documents they point to, the embedder that produced the vectors and the
// prompt template in effect.
//
// Any number of goroutines may Retrieve concurrently. Retire waits for
// in-flight retrievals before releasing the vector index.
type Index struct {
	embedder driven.EmbeddingService
	vectors  driven.VectorIndex
	docs     driven.DocumentStore
	prompt   string
	stats    domain.IndexStats

	mu      sync.RWMutex
	retired bool
}

// Stats describes the build.
func (i *Index) Stats() domain.IndexStats {
	return i.stats
}

// Retrieve embeds question and returns up to k chunks most similar to it,
// most similar first. Hits below minSimilarity, and hits with no positive
// similarity at all, are dropped.
func (i *Index) Retrieve(ctx context.Context, question string, k int, minSimilarity float64) ([]domain.RetrievedChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.retired {
		return nil, errIndexRetired
	}

	query, err := i.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := i.vectors.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Similarity <= 0 || hit.Similarity < minSimilarity {
			continue
		}

		chunk, err := i.docs.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}
		doc, err := i.docs.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		results = append(results, domain.RetrievedChunk{
			Chunk:         *chunk,
			DocumentTitle: doc.Title,
			DocumentPath:  doc.Path,
			Similarity:    hit.Similarity,
		})
	}
	return results, nil
}

// Retire marks the index replaced and closes the vector index once no
// retrieval is running. Safe to call more than once.
func (i *Index) Retire() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.retired {
		return nil
	}
	i.retired = true
	return i.vectors.Close()
}
