//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

// ONNXProvider stub type when built without CGO (see onnx.go for real implementation).
type ONNXProvider struct{}

// NewONNXProvider returns an error when built without CGO (ONNX not available).
func NewONNXProvider(_ string, _, _ int) (*ONNXProvider, error) {
	return nil, errors.New("ONNX provider requires CGO; build with CGO_ENABLED=1 and onnxruntime")
}

// Name returns "onnx".
func (e *ONNXProvider) Name() string { return "onnx" }

// Embed always fails in non-cgo builds.
func (e *ONNXProvider) Embed(context.Context, string, int) ([]float64, error) {
	return nil, errors.New("ONNX provider unavailable")
}

// Close is a no-op.
func (e *ONNXProvider) Close() error { return nil }
