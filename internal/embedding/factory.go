package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/guard"
	"go.uber.org/zap"
)

// all-MiniLM-L6-v2 output size.
const onnxModelDimensions = 384

// Closer is implemented by providers holding native resources.
type Closer interface {
	Close() error
}

// NewProvider builds the named provider from cfg. It returns an error
// wrapping ErrNotConfigured when the provider has no credentials.
func NewProvider(name string, cfg *config.Config, logger *zap.Logger) (Provider, error) {
	p := cfg.Providers
	g := guard.New("embed-"+name, guard.Options{
		RequestsPerSecond: p.RateLimit,
		Burst:             p.Burst,
		Logger:            logger,
	})
	switch name {
	case "gemini":
		return NewGeminiProvider(GeminiOptions{
			APIKey:  p.Gemini.APIKey,
			BaseURL: p.Gemini.BaseURL,
			Model:   p.Gemini.EmbedModel,
			Timeout: p.Timeout,
			Guard:   g,
			Logger:  logger,
		})
	case "openai":
		return NewOpenAIProvider(OpenAIOptions{
			APIKey:  p.OpenAI.APIKey,
			BaseURL: p.OpenAI.BaseURL,
			Model:   p.OpenAI.EmbedModel,
			Timeout: p.Timeout,
			Guard:   g,
		})
	case "ollama":
		return NewOllamaProvider(OllamaOptions{
			URL:     p.Ollama.URL,
			Model:   p.Ollama.EmbedModel,
			Timeout: p.Timeout,
			Guard:   g,
		})
	case "onnx":
		if cfg.Embedding.ModelPath == "" {
			return nil, fmt.Errorf("onnx: %w", ErrNotConfigured)
		}
		return NewONNXProvider(cfg.Embedding.ModelPath, onnxModelDimensions, cfg.Embedding.MaxTokens)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", name)
	}
}

// NewChainFromConfig builds the chain in cfg.Embedding.Order. Unconfigured
// providers are skipped silently; providers that fail to start are logged
// and skipped.
func NewChainFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Chain, []Closer) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var providers []Provider
	var closers []Closer
	for _, name := range cfg.Embedding.Order {
		p, err := NewProvider(name, cfg, logger)
		if err != nil {
			if !errors.Is(err, ErrNotConfigured) {
				logger.Warn("embedding provider unavailable", zap.String("provider", name), zap.Error(err))
			}
			continue
		}
		if _, isMock := p.(*MockProvider); isMock {
			continue
		}
		if c, ok := p.(Closer); ok {
			closers = append(closers, c)
		}
		providers = append(providers, p)
	}

	opts := []ChainOption{WithLogger(logger), WithTimeout(cfg.Providers.Timeout)}
	if cfg.Embedding.RedisURL != "" {
		rc, err := NewRedisCache(ctx, cfg.Embedding.RedisURL, cfg.Embedding.CacheTTL, logger)
		if err != nil {
			logger.Warn("redis embedding cache unavailable, using in-memory cache", zap.Error(err))
			opts = append(opts, WithCache(NewEmbeddingCache(cfg.Embedding.CacheSize)))
		} else {
			closers = append(closers, rc)
			opts = append(opts, WithCache(rc))
		}
	} else {
		opts = append(opts, WithCache(NewEmbeddingCache(cfg.Embedding.CacheSize)))
	}

	chain := NewChain(cfg.Embedding.Dimensions, providers, opts...)
	logger.Info("embedding chain ready",
		zap.Strings("providers", chain.Names()),
		zap.Int("dimensions", chain.Dimensions()))
	return chain, closers
}
