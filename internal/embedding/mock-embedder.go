package embedding

import "context"

// MockProvider is the terminal provider of every chain. It never fails.
type MockProvider struct{}

// NewMockProvider returns the deterministic mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return "mock"
}

// Embed returns MockVector(text, dims).
func (m *MockProvider) Embed(_ context.Context, text string, dims int) ([]float64, error) {
	return MockVector(text, dims), nil
}
