package embedding

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		d    int
		want []float64
	}{
		{"same length", []float64{1, 2, 3}, 3, []float64{1, 2, 3}},
		{"truncates", []float64{1, 2, 3, 4}, 2, []float64{1, 2}},
		{"pads with zeros", []float64{1, 2}, 4, []float64{1, 2, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, tt.d)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalize_emptyYieldsLowMagnitude(t *testing.T) {
	for _, in := range [][]float64{nil, {}} {
		got := Normalize(in, 64)
		if len(got) != 64 {
			t.Fatalf("len: got %d", len(got))
		}
		for i, v := range got {
			if v < 0 || v >= 1e-3 {
				t.Errorf("component %d = %v out of [0, 1e-3)", i, v)
			}
		}
	}
}

func TestNormalize_idempotent(t *testing.T) {
	inputs := [][]float64{
		{0.1, 0.2},
		{0.1, 0.2, 0.3, 0.4, 0.5},
		make([]float64, 8),
	}
	for _, d := range []int{1, 4, 8} {
		for _, in := range inputs {
			once := Normalize(in, d)
			twice := Normalize(once, d)
			if len(once) != d || len(twice) != d {
				t.Fatalf("d=%d: lengths %d, %d", d, len(once), len(twice))
			}
			for i := range once {
				if once[i] != twice[i] {
					t.Errorf("d=%d: component %d changed: %v -> %v", d, i, once[i], twice[i])
				}
			}
		}
	}
}

func TestNormalize_pads768To1536(t *testing.T) {
	in := make([]float64, 768)
	for i := range in {
		in[i] = float64(i + 1)
	}
	got := Normalize(in, 1536)
	if len(got) != 1536 {
		t.Fatalf("len: got %d", len(got))
	}
	for i := 0; i < 768; i++ {
		if got[i] != in[i] {
			t.Fatalf("component %d: got %v, want %v", i, got[i], in[i])
		}
	}
	for i := 768; i < 1536; i++ {
		if got[i] != 0 {
			t.Fatalf("component %d: got %v, want 0", i, got[i])
		}
	}
}

func TestNormalize_doesNotAlias(t *testing.T) {
	in := []float64{1, 2}
	out := Normalize(in, 2)
	out[0] = 99
	if in[0] != 1 {
		t.Error("Normalize must not return the input slice")
	}
}

func TestNormalizeFloat32(t *testing.T) {
	got := NormalizeFloat32([]float32{0.5, 0.25}, 3)
	if len(got) != 3 || got[0] != 0.5 || got[1] != 0.25 || got[2] != 0 {
		t.Errorf("got %v", got)
	}
	if len(NormalizeFloat32(nil, 5)) != 5 {
		t.Error("nil input should yield a mock vector")
	}
}

func TestMockVector(t *testing.T) {
	a := MockVector("hello", 16)
	b := MockVector("hello", 16)
	c := MockVector("world", 16)
	if len(a) != 16 {
		t.Fatalf("len: got %d", len(a))
	}
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same text should give same vector at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
		if a[i] < 0 || a[i] >= 1e-3 {
			t.Errorf("component %d = %v out of range", i, a[i])
		}
	}
	if same {
		t.Error("different texts should give different vectors")
	}
}
