package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func chunk(doc string, pos int) domain.Chunk {
	return domain.Chunk{
		ID:         doc + "#" + string(rune('0'+pos)),
		DocumentID: doc,
		Content:    "content",
		Position:   pos,
	}
}

func TestDocumentStore_Documents(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "b.txt", Title: "B"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "a.txt", Title: "A"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "a.txt", Title: "A2"}))

	doc, err := store.GetDocument(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "A2", doc.Title)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].ID)
	assert.Equal(t, "b.txt", docs[1].ID)

	_, err = store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveDocument_Invalid(t *testing.T) {
	store := NewDocumentStore()
	assert.ErrorIs(t, store.SaveDocument(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveDocument(context.Background(), &domain.Document{}), domain.ErrInvalidInput)
}

func TestDocumentStore_Chunks(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("a", 1), chunk("a", 0)}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("b", 0)}))
	require.NoError(t, store.SaveChunks(ctx, nil))

	chunks, err := store.GetChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)

	c, err := store.GetChunk(ctx, "b#0")
	require.NoError(t, err)
	assert.Equal(t, "b", c.DocumentID)
	assert.Equal(t, 3, store.ChunkCount())

	none, err := store.GetChunks(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.GetChunk(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_SaveChunks_Replaces(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("a", 0), chunk("a", 1)}))

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("a", 2)}))

	_, err := store.GetChunk(ctx, "a#0")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.ChunkCount())
}

func TestDocumentStore_SaveChunks_MixedDocuments(t *testing.T) {
	store := NewDocumentStore()
	err := store.SaveChunks(context.Background(), []domain.Chunk{chunk("a", 0), chunk("b", 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_GetChunks_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("a", 0)}))

	chunks, err := store.GetChunks(ctx, "a")
	require.NoError(t, err)
	chunks[0].Content = "mutated"

	again, err := store.GetChunks(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "content", again[0].Content)
}

func TestDocumentStore_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore()
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "a"}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{chunk("a", 0)}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.GetChunk(ctx, "a#0")
			assert.NoError(t, err)
			_, err = store.ListDocuments(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
