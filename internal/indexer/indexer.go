package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
)

// Embedder turns text into a vector and never fails.
type Embedder interface {
	Embed(ctx context.Context, text string) []float64
}

const defaultWorkers = 4

// Indexer creates documents and ingests them into chunk storage.
type Indexer struct {
	store     storage.Storage
	embedder  Embedder
	chunker   *Chunker
	workers   int
	extractor *extract.Extractor
	logger    *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingestion events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithExtractor replaces the default text extractor used by ImportFile.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer. cfg supplies chunk size and embedding
// concurrency; zero values select the defaults.
func NewIndexer(store storage.Storage, embedder Embedder, cfg *config.IngestConfig, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:     store,
		embedder:  embedder,
		chunker:   NewChunker(cfg.ChunkSize),
		workers:   cfg.Workers,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
	}
	if idx.workers <= 0 {
		idx.workers = defaultWorkers
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// CreateDocument stores a new document with preprocessed text. Blank text is
// rejected with ErrInvalidInput.
func (idx *Indexer) CreateDocument(ctx context.Context, title, text string) (*models.Document, error) {
	text = Preprocess(text)
	if text == "" {
		return nil, fmt.Errorf("document text is empty: %w", models.ErrInvalidInput)
	}
	return idx.storeDocument(ctx, uuid.NewString(), title, text)
}

func (idx *Indexer) storeDocument(ctx context.Context, id, title, text string) (*models.Document, error) {
	doc := &models.Document{
		ID:      id,
		Title:   strings.TrimSpace(title),
		Content: text,
	}
	if err := idx.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("%w: failed to store document: %w", models.ErrPersistence, err)
	}
	idx.logger.Info("document created",
		zap.String("doc_id", doc.ID),
		zap.String("title", doc.Title),
		zap.Int("chars", len([]rune(doc.Content))))
	return doc, nil
}

// ImportFile extracts text from an uploaded file and stores it as a document
// titled with the file's base name.
func (idx *Indexer) ImportFile(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	name := filepath.Base(filename)
	text, err := idx.extractor.ExtractBytes(content, filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w: %w", name, models.ErrInvalidInput, err)
	}
	return idx.CreateDocument(ctx, name, text)
}

// Ingest chunks the document, embeds every chunk and atomically replaces the
// document's stored chunks. Re-ingesting a document replaces its chunks.
// Embedding failures never abort ingestion; storage failures report
// ErrPersistence and leave the previous chunks in place.
func (idx *Indexer) Ingest(ctx context.Context, documentID string) (*models.IngestResult, error) {
	req := models.IngestRequest{DocumentID: documentID}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	doc, err := idx.store.GetDocument(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to load document: %w", models.ErrPersistence, err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("document %s has no text: %w", doc.ID, models.ErrInvalidInput)
	}

	spans, err := idx.chunker.Chunk(doc.Content)
	if err != nil {
		return nil, err
	}
	chunks := make([]*models.Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = &models.Chunk{
			DocumentID: doc.ID,
			Content:    s.Text,
			StartChar:  s.Start,
			EndChar:    s.End,
		}
	}

	if err := idx.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	ids, err := idx.store.ReplaceChunks(ctx, doc.ID, chunks)
	if err != nil {
		idx.logger.Error("failed to store chunks", zap.String("doc_id", doc.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: failed to store chunks: %w", models.ErrPersistence, err)
	}

	idx.logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(ids)),
		zap.Duration("took", time.Since(start)))
	return &models.IngestResult{Status: "ok", DocumentID: doc.ID, Ingested: len(ids)}, nil
}

// embedChunks fills each chunk's embedding with at most idx.workers calls in
// flight. Each goroutine writes only its own chunk.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for _, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Embedding = idx.embedder.Embed(gctx, c.Content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	// A cancelled caller must not persist vectors from the fallback path.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes a document and its chunks.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document_id is required: %w", models.ErrInvalidInput)
	}
	if err := idx.store.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: failed to delete document: %w", models.ErrPersistence, err)
	}
	idx.logger.Info("document deleted", zap.String("doc_id", id))
	return nil
}
