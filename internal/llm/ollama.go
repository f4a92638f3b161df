package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/restclient"
)

// OllamaSynthesizer answers with a local Ollama server's /api/chat endpoint.
type OllamaSynthesizer struct {
	client *restclient.Client
	model  string
	guard  *guard.Guard
}

var _ Synthesizer = (*OllamaSynthesizer)(nil)

// OllamaOptions configures an OllamaSynthesizer.
type OllamaOptions struct {
	URL     string
	Model   string
	Timeout time.Duration
	Guard   *guard.Guard
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
}

// NewOllamaSynthesizer returns ErrNotConfigured without a server URL.
func NewOllamaSynthesizer(opts OllamaOptions) (*OllamaSynthesizer, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("ollama: %w", ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = "llama3.2"
	}
	return &OllamaSynthesizer{
		client: restclient.New(opts.URL, nil, opts.Timeout),
		model:  opts.Model,
		guard:  opts.Guard,
	}, nil
}

// Name returns "ollama".
func (s *OllamaSynthesizer) Name() string {
	return "ollama"
}

// Synthesize sends a non-streaming chat request.
func (s *OllamaSynthesizer) Synthesize(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := ollamaChatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Options: map[string]any{"num_predict": maxTokens},
	}
	var resp ollamaChatResponse
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return s.client.PostJSON(ctx, "/api/chat", req, &resp, nil)
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return resp.Message.Content, nil
}
