package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/guard"
	"github.com/hyperjump/docqa/internal/restclient"
)

const anthropicVersion = "2023-06-01"

// AnthropicSynthesizer answers with the Anthropic /v1/messages API.
type AnthropicSynthesizer struct {
	client *restclient.Client
	model  string
	guard  *guard.Guard
}

var _ Synthesizer = (*AnthropicSynthesizer)(nil)

// AnthropicOptions configures an AnthropicSynthesizer.
type AnthropicOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Guard   *guard.Guard
}

type messagesRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewAnthropicSynthesizer returns ErrNotConfigured without an API key.
func NewAnthropicSynthesizer(opts AnthropicOptions) (*AnthropicSynthesizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNotConfigured)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.anthropic.com"
	}
	if opts.Model == "" {
		opts.Model = "claude-3-5-haiku-latest"
	}
	headers := map[string]string{
		"x-api-key":         opts.APIKey,
		"anthropic-version": anthropicVersion,
	}
	return &AnthropicSynthesizer{
		client: restclient.New(opts.BaseURL, headers, opts.Timeout),
		model:  opts.Model,
		guard:  opts.Guard,
	}, nil
}

// Name returns "anthropic".
func (s *AnthropicSynthesizer) Name() string {
	return "anthropic"
}

// Synthesize joins the text blocks of the response.
func (s *AnthropicSynthesizer) Synthesize(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := messagesRequest{
		Model:     s.model,
		System:    system,
		Messages:  []chatMessage{{Role: "user", Content: user}},
		MaxTokens: maxTokens,
	}
	var resp messagesResponse
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return s.client.PostJSON(ctx, "/v1/messages", req, &resp, nil)
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String(), nil
}
