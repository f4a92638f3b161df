// Package llm synthesizes answers through an ordered chain of language model
// providers. An empty result means no provider answered.
package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Synthesizer produces an answer from a system and a user prompt.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// ErrNotConfigured is returned by constructors lacking credentials.
var ErrNotConfigured = errors.New("synthesizer not configured")

var errEmptyAnswer = errors.New("response contained no text")

// Chain tries synthesizers in order; the first non-empty answer wins.
type Chain struct {
	synthesizers []Synthesizer
	maxTokens    int
	timeout      time.Duration
	logger       *zap.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets a logger for provider failures.
func WithLogger(l *zap.Logger) ChainOption {
	return func(c *Chain) { c.logger = l }
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// NewChain returns a chain over synthesizers with the given output token budget.
func NewChain(maxTokens int, synthesizers []Synthesizer, opts ...ChainOption) *Chain {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	c := &Chain{
		synthesizers: synthesizers,
		maxTokens:    maxTokens,
		timeout:      30 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names lists the configured synthesizers in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.synthesizers))
	for i, s := range c.synthesizers {
		names[i] = s.Name()
	}
	return names
}

// Synthesize returns the first non-empty trimmed answer, or ok=false when
// every synthesizer failed or none is configured.
func (c *Chain) Synthesize(ctx context.Context, system, user string) (answer string, ok bool) {
	for i, s := range c.synthesizers {
		if ctx.Err() != nil {
			return "", false
		}
		text, err := c.call(ctx, s, system, user)
		if err != nil {
			c.logger.Warn("answer synthesizer failed",
				zap.String("provider", s.Name()),
				zap.Int("attempt", i+1),
				zap.Error(err))
			continue
		}
		return text, true
	}
	return "", false
}

func (c *Chain) call(ctx context.Context, s Synthesizer, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	text, err := s.Synthesize(callCtx, system, user, c.maxTokens)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}
