// Package storage defines the persistence interfaces for documents and chunks
// and their SQLite, Postgres, Qdrant and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/docqa/internal/models"
)

// DocumentStore persists uploaded documents.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	// GetDocument returns an error wrapping models.ErrNotFound when absent.
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// ListDocuments returns documents newest first, without their text.
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	CountDocuments(ctx context.Context) (int64, error)
}

// ChunkStore persists chunks with their embeddings and answers
// nearest-neighbour queries by cosine distance.
type ChunkStore interface {
	// ReplaceChunks atomically swaps the chunk set of docID for chunks and
	// returns the stored chunk IDs. On error the previous set is intact.
	ReplaceChunks(ctx context.Context, docID string, chunks []*models.Chunk) ([]string, error)
	// QueryNearest returns up to k chunks ascending by distance. An empty
	// docID searches the whole corpus.
	QueryNearest(ctx context.Context, vec []float64, k int, docID string) ([]*models.RetrievalResult, error)
	// GetChunksByDocumentID returns chunks ordered by StartChar.
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error
	CountChunks(ctx context.Context) (int64, error)
}

// Storage combines document and chunk persistence.
type Storage interface {
	DocumentStore
	ChunkStore
	Close() error
}

type composed struct {
	DocumentStore
	ChunkStore
	closers []func() error
}

// Compose keeps documents in one store and chunks in another. Deleting a
// document removes its chunks first. Close closes both.
func Compose(docs DocumentStore, chunks ChunkStore) Storage {
	c := &composed{DocumentStore: docs, ChunkStore: chunks}
	for _, v := range []any{docs, chunks} {
		if closer, ok := v.(interface{ Close() error }); ok {
			c.closers = append(c.closers, closer.Close)
		}
	}
	return c
}

func (c *composed) DeleteDocument(ctx context.Context, id string) error {
	if _, err := c.DocumentStore.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := c.ChunkStore.DeleteChunksByDocumentID(ctx, id); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return c.DocumentStore.DeleteDocument(ctx, id)
}

func (c *composed) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notFound(id string) error {
	return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
}
