// Package vector provides cosine distance ranking over embedding vectors.
package vector

import "math"

// Dot returns the inner product over the shorter of a and b.
func Dot(a, b []float64) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// CosineDistance returns 1 - cos(a, b), in [0, 2]. A zero vector is at
// distance 1 from everything.
func CosineDistance(a, b []float64) float64 {
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 1
	}
	cos := Dot(a, b) / (na * nb)
	cos = math.Max(-1, math.Min(1, cos))
	return 1 - cos
}
