package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/restclient"
)

// OllamaProvider calls a local Ollama server's /api/embeddings endpoint.
type OllamaProvider struct {
	client *restclient.Client
	model  string
	guard  *guard.Guard
}

var _ Provider = (*OllamaProvider)(nil)

// OllamaOptions configures an OllamaProvider.
type OllamaOptions struct {
	URL     string
	Model   string
	Timeout time.Duration
	Guard   *guard.Guard
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaProvider returns ErrNotConfigured without a server URL.
func NewOllamaProvider(opts OllamaOptions) (*OllamaProvider, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("ollama: %w", ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = "nomic-embed-text"
	}
	return &OllamaProvider{
		client: restclient.New(opts.URL, nil, opts.Timeout),
		model:  opts.Model,
		guard:  opts.Guard,
	}, nil
}

// Name returns "ollama".
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Embed returns the model's embedding for text.
func (p *OllamaProvider) Embed(ctx context.Context, text string, _ int) ([]float64, error) {
	var resp ollamaEmbedResponse
	err := p.guard.Do(ctx, func(ctx context.Context) error {
		return p.client.PostJSON(ctx, "/api/embeddings", ollamaEmbedRequest{Model: p.model, Prompt: text}, &resp, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama embed: %w", errEmptyVector)
	}
	return resp.Embedding, nil
}
