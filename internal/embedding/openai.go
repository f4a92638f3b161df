package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/restclient"
)

// OpenAIProvider calls /v1/embeddings on OpenAI or a compatible server.
type OpenAIProvider struct {
	client *restclient.Client
	model  string
	guard  *guard.Guard
}

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Guard   *guard.Guard
}

type openAIEmbedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	// Some compatible servers answer in the Ollama shape.
	Embedding []float64 `json:"embedding"`
}

// NewOpenAIProvider returns ErrNotConfigured without an API key.
func NewOpenAIProvider(opts OpenAIOptions) (*OpenAIProvider, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	if opts.Model == "" {
		opts.Model = "text-embedding-3-small"
	}
	headers := map[string]string{"Authorization": "Bearer " + opts.APIKey}
	return &OpenAIProvider{
		client: restclient.New(opts.BaseURL, headers, opts.Timeout),
		model:  opts.Model,
		guard:  opts.Guard,
	}, nil
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Embed returns the first embedding in the response.
func (p *OpenAIProvider) Embed(ctx context.Context, text string, _ int) ([]float64, error) {
	var resp openAIEmbedResponse
	err := p.guard.Do(ctx, func(ctx context.Context) error {
		return p.client.PostJSON(ctx, "/v1/embeddings", openAIEmbedRequest{Input: text, Model: p.model}, &resp, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) > 0 && len(resp.Data[0].Embedding) > 0 {
		return resp.Data[0].Embedding, nil
	}
	if len(resp.Embedding) > 0 {
		return resp.Embedding, nil
	}
	return nil, fmt.Errorf("openai embed: %w", errEmptyVector)
}
