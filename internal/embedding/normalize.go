package embedding

import (
	"hash/fnv"
	"math/rand/v2"
)

// mockMagnitude bounds every component of a mock vector.
const mockMagnitude = 1e-3

// Normalize coerces vec to exactly d components. Empty input yields a fresh
// low-magnitude random vector; longer input is truncated and shorter input is
// zero-padded. The result never aliases vec.
func Normalize(vec []float64, d int) []float64 {
	if d <= 0 {
		return []float64{}
	}
	if len(vec) == 0 {
		return randomVector(rand.Float64, d)
	}
	out := make([]float64, d)
	copy(out, vec)
	return out
}

// NormalizeFloat32 widens vec and normalizes it to d components.
func NormalizeFloat32(vec []float32, d int) []float64 {
	if len(vec) == 0 {
		return Normalize(nil, d)
	}
	wide := make([]float64, len(vec))
	for i, v := range vec {
		wide[i] = float64(v)
	}
	return Normalize(wide, d)
}

// MockVector returns a low-magnitude pseudo-random vector seeded by text, so
// the same text maps to the same vector within and across processes.
func MockVector(text string, d int) []float64 {
	if d <= 0 {
		return []float64{}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return randomVector(r.Float64, d)
}

func randomVector(next func() float64, d int) []float64 {
	out := make([]float64, d)
	for i := range out {
		out[i] = next() * mockMagnitude
	}
	return out
}
