package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"scaled", []float64{1, 1}, []float64{5, 5}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, 2},
		{"zero query", []float64{0, 0}, []float64{1, 0}, 1},
		{"zero stored", []float64{1, 0}, []float64{0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineDistance(tt.a, tt.b), 1e-12)
		})
	}
}

func TestNearest_OrderAndTies(t *testing.T) {
	candidates := []Candidate{
		{ID: "far", Vector: []float64{0, 1}},
		{ID: "tie1", Vector: []float64{1, 1}},
		{ID: "near", Vector: []float64{1, 0}},
		{ID: "tie2", Vector: []float64{2, 2}},
	}
	got := Nearest([]float64{1, 0}, candidates, 10)
	ids := make([]string, len(got))
	for i, m := range got {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"near", "tie1", "tie2", "far"}, ids)
	assert.Equal(t, 2, got[0].Index)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Distance, got[i].Distance)
	}
}

func TestNearest_Limits(t *testing.T) {
	c := []Candidate{{ID: "a", Vector: []float64{1}}, {ID: "b", Vector: []float64{1}}}
	assert.Nil(t, Nearest([]float64{1}, c, 0))
	assert.Nil(t, Nearest([]float64{1}, nil, 3))
	assert.Len(t, Nearest([]float64{1}, c, 1), 1)
}

func TestCodec_RoundTrip(t *testing.T) {
	in := []float64{0, -1.5, math.Pi, 1e-300}
	out, err := Decode(Encode(in))
	assert.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
