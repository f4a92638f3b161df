package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/docqa/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	for _, name := range []string{"gemini", "openai", "ollama", "onnx"} {
		_, err := NewProvider(name, cfg, nil)
		assert.True(t, errors.Is(err, ErrNotConfigured), "%s without credentials: %v", name, err)
	}

	_, err := NewProvider("nope", cfg, nil)
	assert.Error(t, err)

	cfg.Providers.Gemini.APIKey = "k"
	p, err := NewProvider("gemini", cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.Name())
}

func TestNewChainFromConfig_onlyConfiguredProviders(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Providers.OpenAI.APIKey = "k"
	cfg.Embedding.Dimensions = 12

	chain, closers := NewChainFromConfig(context.Background(), cfg, nil)
	assert.Empty(t, closers)
	assert.Equal(t, []string{"openai", "mock"}, chain.Names())
	assert.Equal(t, 12, chain.Dimensions())
}
