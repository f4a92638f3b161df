package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/restclient"
)

// OpenAISynthesizer answers with /v1/chat/completions.
type OpenAISynthesizer struct {
	client    *restclient.Client
	model     string
	maxTokens int
	guard     *guard.Guard
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)

// OpenAIOptions configures an OpenAISynthesizer.
type OpenAIOptions struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Guard     *guard.Guard
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAISynthesizer returns ErrNotConfigured without an API key.
func NewOpenAISynthesizer(opts OpenAIOptions) (*OpenAISynthesizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	headers := map[string]string{"Authorization": "Bearer " + opts.APIKey}
	return &OpenAISynthesizer{
		client:    restclient.New(opts.BaseURL, headers, opts.Timeout),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		guard:     opts.Guard,
	}, nil
}

// Name returns "openai".
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// Synthesize returns the first choice's message content.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if s.maxTokens > 0 {
		maxTokens = s.maxTokens
	}
	req := chatCompletionRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens: maxTokens,
	}
	var resp chatCompletionResponse
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return s.client.PostJSON(ctx, "/v1/chat/completions", req, &resp, nil)
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: %w", errEmptyAnswer)
	}
	return resp.Choices[0].Message.Content, nil
}
