package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/docqa/internal/models"
)

// runStorageContract exercises behaviour every Storage must share. Vectors
// are 3-dimensional.
func runStorageContract(t *testing.T, newStore func(t *testing.T) Storage) {
	t.Run("documents", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		doc := &models.Document{ID: "doc1", Title: "Title", Content: "Content"}
		require.NoError(t, store.CreateDocument(ctx, doc))
		assert.False(t, doc.CreatedAt.IsZero())

		got, err := store.GetDocument(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, "Title", got.Title)
		assert.Equal(t, "Content", got.Content)

		list, err := store.ListDocuments(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Content)

		n, err := store.CountDocuments(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		_, err = store.GetDocument(ctx, "missing")
		assert.True(t, errors.Is(err, models.ErrNotFound))
		assert.True(t, errors.Is(store.DeleteDocument(ctx, "missing"), models.ErrNotFound))
	})

	t.Run("replace and query", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.CreateDocument(ctx, &models.Document{ID: "d1", Content: "abcdefgh"}))
		require.NoError(t, store.CreateDocument(ctx, &models.Document{ID: "d2", Content: "ijkl"}))

		ids, err := store.ReplaceChunks(ctx, "d1", []*models.Chunk{
			{Content: "abcd", StartChar: 0, EndChar: 4, Embedding: []float64{1, 0, 0}},
			{Content: "efgh", StartChar: 4, EndChar: 8, Embedding: []float64{0, 1, 0}},
		})
		require.NoError(t, err)
		require.Len(t, ids, 2)
		assert.NotEqual(t, ids[0], ids[1])

		_, err = store.ReplaceChunks(ctx, "d2", []*models.Chunk{
			{Content: "ijkl", StartChar: 0, EndChar: 4, Embedding: []float64{0.9, 0.1, 0}},
		})
		require.NoError(t, err)

		all, err := store.QueryNearest(ctx, []float64{1, 0, 0}, 5, "")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "abcd", all[0].Content)
		assert.Equal(t, "ijkl", all[1].Content)
		assert.Equal(t, "efgh", all[2].Content)
		for i := 1; i < len(all); i++ {
			assert.LessOrEqual(t, all[i-1].Distance, all[i].Distance)
		}
		assert.InDelta(t, 0, all[0].Distance, 1e-6)

		scoped, err := store.QueryNearest(ctx, []float64{1, 0, 0}, 5, "d2")
		require.NoError(t, err)
		require.Len(t, scoped, 1)
		assert.Equal(t, "d2", scoped[0].DocumentID)

		top, err := store.QueryNearest(ctx, []float64{0, 1, 0}, 1, "")
		require.NoError(t, err)
		require.Len(t, top, 1)
		assert.Equal(t, "efgh", top[0].Content)
		assert.Equal(t, 4, top[0].StartChar)
		assert.Equal(t, 8, top[0].EndChar)

		chunks, err := store.GetChunksByDocumentID(ctx, "d1")
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, 0, chunks[0].StartChar)
		assert.Equal(t, 4, chunks[1].StartChar)

		count, err := store.CountChunks(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)
	})

	t.Run("re-ingest replaces", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.CreateDocument(ctx, &models.Document{ID: "d", Content: "abcdef"}))

		_, err := store.ReplaceChunks(ctx, "d", []*models.Chunk{
			{Content: "abc", StartChar: 0, EndChar: 3, Embedding: []float64{1, 0, 0}},
			{Content: "def", StartChar: 3, EndChar: 6, Embedding: []float64{0, 1, 0}},
		})
		require.NoError(t, err)
		_, err = store.ReplaceChunks(ctx, "d", []*models.Chunk{
			{Content: "abcdef", StartChar: 0, EndChar: 6, Embedding: []float64{0, 0, 1}},
		})
		require.NoError(t, err)

		chunks, err := store.GetChunksByDocumentID(ctx, "d")
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "abcdef", chunks[0].Content)

		res, err := store.QueryNearest(ctx, []float64{1, 0, 0}, 10, "d")
		require.NoError(t, err)
		assert.Len(t, res, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.CreateDocument(ctx, &models.Document{ID: "d", Content: "abc"}))
		_, err := store.ReplaceChunks(ctx, "d", []*models.Chunk{
			{Content: "abc", StartChar: 0, EndChar: 3, Embedding: []float64{1, 1, 1}},
		})
		require.NoError(t, err)

		require.NoError(t, store.DeleteDocument(ctx, "d"))
		chunks, err := store.GetChunksByDocumentID(ctx, "d")
		require.NoError(t, err)
		assert.Empty(t, chunks)
		n, err := store.CountChunks(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
	})
}
