package embedding

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Chain tries providers in priority order and falls back to the mock
// provider, so Embed always returns a vector of exactly Dimensions()
// components.
type Chain struct {
	providers []Provider
	fallback  Provider
	dims      int
	cache     Cache
	timeout   time.Duration
	logger    *zap.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets a logger for provider failures.
func WithLogger(l *zap.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// WithCache caches successful provider vectors. Mock vectors are never cached.
func WithCache(cache Cache) ChainOption {
	return func(c *Chain) { c.cache = cache }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// NewChain returns a chain over providers, tried in the given order.
func NewChain(dims int, providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		fallback:  NewMockProvider(),
		dims:      dims,
		timeout:   30 * time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dimensions returns the length of every vector Embed produces.
func (c *Chain) Dimensions() int {
	return c.dims
}

// Names lists the configured providers in order, ending with the fallback.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers)+1)
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return append(names, c.fallback.Name())
}

// Embed returns an embedding for text. It never fails: provider errors are
// logged and the next provider is tried.
func (c *Chain) Embed(ctx context.Context, text string) []float64 {
	if strings.TrimSpace(text) == "" {
		return c.mock(ctx, text)
	}

	key := cacheKey(text, c.dims)
	if c.cache != nil {
		if vec, ok := c.cache.Get(ctx, key); ok && len(vec) == c.dims {
			return vec
		}
	}

	for i, p := range c.providers {
		if ctx.Err() != nil {
			break
		}
		vec, err := c.call(ctx, p, text)
		if err != nil {
			c.logger.Warn("embedding provider failed",
				zap.String("provider", p.Name()),
				zap.Int("attempt", i+1),
				zap.Error(err))
			continue
		}
		out := Normalize(vec, c.dims)
		if c.cache != nil {
			c.cache.Set(ctx, key, out)
		}
		return out
	}
	return c.mock(ctx, text)
}

func (c *Chain) call(ctx context.Context, p Provider, text string) ([]float64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	vec, err := p.Embed(callCtx, text, c.dims)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, errEmptyVector
	}
	return vec, nil
}

func (c *Chain) mock(ctx context.Context, text string) []float64 {
	vec, _ := c.fallback.Embed(ctx, text, c.dims)
	return Normalize(vec, c.dims)
}
