package llm

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/hyperjump/docqa/internal/guard"
	"google.golang.org/api/option"
)

// GeminiSynthesizer answers with the Gemini generateContent API.
type GeminiSynthesizer struct {
	client *genai.Client
	model  string
	// maxTokens overrides the chain budget when set.
	maxTokens int
	guard     *guard.Guard
}

var _ Synthesizer = (*GeminiSynthesizer)(nil)

// GeminiOptions configures a GeminiSynthesizer.
type GeminiOptions struct {
	APIKey    string
	Endpoint  string
	Model     string
	MaxTokens int
	Guard     *guard.Guard
}

const geminiDefaultHost = "generativelanguage.googleapis.com"

// geminiEndpoint converts a configured base URL into the host:port endpoint
// the SDK expects. The public API host maps to "" so the SDK default is kept.
func geminiEndpoint(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return ""
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if u.Hostname() == geminiDefaultHost && (port == "" || port == "443") {
		return ""
	}
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}

// NewGeminiSynthesizer returns ErrNotConfigured without an API key.
func NewGeminiSynthesizer(ctx context.Context, opts GeminiOptions) (*GeminiSynthesizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.APIKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiSynthesizer{
		client:    client,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		guard:     opts.Guard,
	}, nil
}

// Name returns "gemini".
func (g *GeminiSynthesizer) Name() string {
	return "gemini"
}

// Synthesize sends system as the system instruction and user as the only turn.
func (g *GeminiSynthesizer) Synthesize(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if g.maxTokens > 0 {
		maxTokens = g.maxTokens
	}
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	model.SetMaxOutputTokens(int32(maxTokens))

	var resp *genai.GenerateContentResponse
	err := g.guard.Do(ctx, func(ctx context.Context) error {
		r, err := model.GenerateContent(ctx, genai.Text(user))
		resp = r
		return err
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return candidateText(resp), nil
}

// candidateText joins the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// Close releases the underlying client.
func (g *GeminiSynthesizer) Close() error {
	return g.client.Close()
}
