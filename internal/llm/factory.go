package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/guard"
	"go.uber.org/zap"
)

// Closer is implemented by synthesizers holding client connections.
type Closer interface {
	Close() error
}

// NewSynthesizer builds the named synthesizer from cfg. It returns an error
// wrapping ErrNotConfigured when the provider has no credentials.
func NewSynthesizer(ctx context.Context, name string, cfg *config.Config, logger *zap.Logger) (Synthesizer, error) {
	p := cfg.Providers
	g := guard.New("synth-"+name, guard.Options{
		RequestsPerSecond: p.RateLimit,
		Burst:             p.Burst,
		Logger:            logger,
	})
	switch name {
	case "gemini":
		return NewGeminiSynthesizer(ctx, GeminiOptions{
			APIKey:    p.Gemini.APIKey,
			Endpoint:  geminiEndpoint(p.Gemini.BaseURL),
			Model:     p.Gemini.ChatModel,
			MaxTokens: p.Gemini.MaxTokens,
			Guard:     g,
		})
	case "openai":
		return NewOpenAISynthesizer(OpenAIOptions{
			APIKey:    p.OpenAI.APIKey,
			BaseURL:   p.OpenAI.BaseURL,
			Model:     p.OpenAI.ChatModel,
			MaxTokens: p.OpenAI.MaxTokens,
			Timeout:   p.Timeout,
			Guard:     g,
		})
	case "anthropic":
		return NewAnthropicSynthesizer(AnthropicOptions{
			APIKey:  p.Anthropic.APIKey,
			BaseURL: p.Anthropic.BaseURL,
			Model:   p.Anthropic.Model,
			Timeout: p.Timeout,
			Guard:   g,
		})
	case "ollama":
		return NewOllamaSynthesizer(OllamaOptions{
			URL:     p.Ollama.URL,
			Model:   p.Ollama.ChatModel,
			Timeout: p.Timeout,
			Guard:   g,
		})
	default:
		return nil, fmt.Errorf("unknown synthesis provider %q", name)
	}
}

// NewChainFromConfig builds the chain in cfg.Synthesis.Order, skipping
// providers that are not configured.
func NewChainFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Chain, []Closer) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var synthesizers []Synthesizer
	var closers []Closer
	for _, name := range cfg.Synthesis.Order {
		s, err := NewSynthesizer(ctx, name, cfg, logger)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				logger.Warn("synthesis provider unavailable", zap.String("provider", name), zap.Error(err))
			}
			continue
		}
		if c, ok := s.(Closer); ok {
			closers = append(closers, c)
		}
		synthesizers = append(synthesizers, s)
	}

	chain := NewChain(cfg.Synthesis.MaxTokens, synthesizers,
		WithLogger(logger), WithTimeout(cfg.Providers.Timeout))
	logger.Info("synthesis chain ready", zap.Strings("providers", chain.Names()))
	return chain, closers
}
