// Package search answers questions from retrieved chunks.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
)

// Embedder turns text into a vector and never fails.
type Embedder interface {
	Embed(ctx context.Context, text string) []float64
}

// Synthesizer generates an answer; ok is false when none is available.
type Synthesizer interface {
	Synthesize(ctx context.Context, system, user string) (answer string, ok bool)
}

const defaultTopK = 5

// Engine runs retrieval and answer synthesis.
type Engine struct {
	storage     storage.Storage
	embedder    Embedder
	synthesizer Synthesizer
	topK        int
	logger      *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for query events.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. A zero cfg.TopK selects 5.
func NewEngine(store storage.Storage, embedder Embedder, synthesizer Synthesizer, cfg *config.QueryConfig, opts ...EngineOption) *Engine {
	e := &Engine{
		storage:     store,
		embedder:    embedder,
		synthesizer: synthesizer,
		topK:        cfg.TopK,
		logger:      zap.NewNop(),
	}
	if e.topK <= 0 {
		e.topK = defaultTopK
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query validates req and answers it.
func (e *Engine) Query(ctx context.Context, req *models.QueryRequest) (*models.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return e.answer(ctx, req.DocumentID, req.Question)
}

// Answer answers question from the k nearest chunks, scoped to documentID
// when it is not empty. Without a synthesized answer it quotes the top chunk.
func (e *Engine) Answer(ctx context.Context, documentID, question string) (*models.Answer, error) {
	return e.Query(ctx, &models.QueryRequest{DocumentID: documentID, Question: question})
}

func (e *Engine) answer(ctx context.Context, documentID, question string) (*models.Answer, error) {
	start := time.Now()
	if documentID != "" {
		if _, err := e.storage.GetDocument(ctx, documentID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: failed to load document: %w", models.ErrPersistence, err)
		}
	}

	vec := e.embedder.Embed(ctx, question)
	results, err := e.storage.QueryNearest(ctx, vec, e.topK, documentID)
	if err != nil {
		e.logger.Error("retrieval failed", zap.String("doc_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("%w: retrieval failed: %w", models.ErrPersistence, err)
	}

	prompt := UserPrompt(BuildContext(results), question)
	text, ok := e.synthesizer.Synthesize(ctx, SystemPrompt, prompt)
	if !ok {
		text = FallbackAnswer(results)
	}

	e.logger.Info("query answered",
		zap.String("doc_id", documentID),
		zap.Int("sources", len(results)),
		zap.Bool("synthesized", ok),
		zap.Duration("took", time.Since(start)))
	return &models.Answer{Answer: text, Sources: Sources(results), Synthesized: ok}, nil
}
