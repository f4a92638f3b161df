package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

const float64Size = 8

// Encode packs a vector as little-endian float64s.
func Encode(v []float64) []byte {
	out := make([]byte, len(v)*float64Size)
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[i*float64Size:], math.Float64bits(x))
	}
	return out
}

// Decode unpacks a vector written by Encode.
func Decode(b []byte) ([]float64, error) {
	if len(b)%float64Size != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of %d", len(b), float64Size)
	}
	out := make([]float64, len(b)/float64Size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*float64Size:]))
	}
	return out, nil
}
