// Package embedding turns text into fixed-dimension vectors through an ordered
// chain of providers that always ends in a deterministic mock.
package embedding

import (
	"context"
	"errors"
)

// Provider produces a raw embedding for text. dims is the dimension the
// caller wants; providers may ignore it, and the chain normalizes whatever
// length comes back.
type Provider interface {
	Name() string
	Embed(ctx context.Context, text string, dims int) ([]float64, error)
}

// ErrNotConfigured is returned by NewProvider when a provider lacks the
// credentials or endpoint it needs. Such providers are left out of the chain.
var ErrNotConfigured = errors.New("provider not configured")

// errEmptyVector is returned when a provider answers without a usable vector.
var errEmptyVector = errors.New("response contained no embedding")
