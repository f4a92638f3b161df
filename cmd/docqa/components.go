package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hyperjump/docqa/internal/cli"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/embedding"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/search"
	"github.com/hyperjump/docqa/internal/storage"
	"github.com/hyperjump/docqa/internal/watcher"
	"go.uber.org/zap"
)

// backend is what the client commands need. *cli.Client serves it over HTTP
// and *Components serves it from local storage.
type backend interface {
	Upload(ctx context.Context, filename string, content []byte) (*models.Document, error)
	Ingest(ctx context.Context, documentID string) (*models.IngestResult, error)
	Query(ctx context.Context, req *models.QueryRequest) (*models.Answer, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error)
	DeleteDocument(ctx context.Context, id string) error
	Status(ctx context.Context) (*cli.Status, error)
}

var (
	_ backend = (*cli.Client)(nil)
	_ backend = (*Components)(nil)
)

// Components holds initialized services.
type Components struct {
	Config      *config.Config
	Storage     storage.Storage
	Embedder    *embedding.Chain
	Synthesizer *llm.Chain
	Engine      *search.Engine
	Indexer     *indexer.Indexer
	closers     []io.Closer
}

// Close releases provider clients, caches and storage.
func (c *Components) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	c := &Components{Config: cfg, Storage: store}
	embedder, embedClosers := embedding.NewChainFromConfig(ctx, cfg, logger)
	for _, closer := range embedClosers {
		c.closers = append(c.closers, closer)
	}
	synthesizer, synthClosers := llm.NewChainFromConfig(ctx, cfg, logger)
	for _, closer := range synthClosers {
		c.closers = append(c.closers, closer)
	}

	c.Embedder = embedder
	c.Synthesizer = synthesizer
	c.Indexer = indexer.NewIndexer(store, embedder, &cfg.Ingest,
		indexer.WithLogger(logger),
		indexer.WithExtractor(extract.NewExtractor()),
	)
	c.Engine = search.NewEngine(store, embedder, synthesizer, &cfg.Query, search.WithLogger(logger))
	return c, nil
}

// startWatcher imports files from the configured watch folders until ctx is
// cancelled. The returned channel is closed once the watcher has stopped.
func (c *Components) startWatcher(ctx context.Context, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	w := c.Config.Watch
	if len(w.Directories) == 0 {
		close(done)
		return done
	}
	fw := watcher.New(c.Indexer, watcher.Options{
		Roots:      w.Directories,
		Extensions: w.Extensions,
		Recursive:  w.Recursive,
		Debounce:   w.Debounce,
		Logger:     logger,
	})
	go func() {
		defer close(done)
		if err := fw.Run(ctx); err != nil {
			logger.Error("folder watcher stopped", zap.Error(err))
		}
	}()
	return done
}

// Upload stores the file as a document titled with its base name.
func (c *Components) Upload(ctx context.Context, filename string, content []byte) (*models.Document, error) {
	return c.Indexer.ImportFile(ctx, filename, content)
}

// Ingest chunks and embeds a stored document.
func (c *Components) Ingest(ctx context.Context, documentID string) (*models.IngestResult, error) {
	return c.Indexer.Ingest(ctx, documentID)
}

// Query answers a question.
func (c *Components) Query(ctx context.Context, req *models.QueryRequest) (*models.Answer, error) {
	return c.Engine.Query(ctx, req)
}

// ListDocuments returns one page of documents and the total count.
func (c *Components) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, int64, error) {
	docs, err := c.Storage.ListDocuments(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to list documents: %w", models.ErrPersistence, err)
	}
	total, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: failed to count documents: %w", models.ErrPersistence, err)
	}
	return docs, total, nil
}

// DeleteDocument removes a document and its chunks.
func (c *Components) DeleteDocument(ctx context.Context, id string) error {
	return c.Indexer.DeleteDocument(ctx, id)
}

// Status reports counts, provider chains and, for SQLite, the database size.
func (c *Components) Status(ctx context.Context) (*cli.Status, error) {
	docCount, err := c.Storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunkCount, err := c.Storage.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	status := &cli.Status{
		Documents:           docCount,
		Chunks:              chunkCount,
		EmbeddingProviders:  c.Embedder.Names(),
		SynthesisProviders:  c.Synthesizer.Names(),
		EmbeddingDimensions: c.Embedder.Dimensions(),
	}
	if sqlite, ok := c.Storage.(*storage.SQLiteStorage); ok {
		if n, err := sqlite.SizeBytes(); err == nil {
			status.DiskUsageBytes = &n
		}
	}
	return status, nil
}
