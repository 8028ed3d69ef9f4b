package fftgrid

import (
	"math"
	"testing"
)

func TestWeightsSumToOne(t *testing.T) {
	nodes := NodePositions(3)
	for _, t2 := range []float64{0, 0.1, 0.5, 0.9, 1.0} {
		w := Weights(nodes, t2)
		var sum float64
		for _, v := range w {
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("weights at t=%v sum to %v, want 1", t2, sum)
		}
	}
}

func TestWeightsInterpolateNodesExactly(t *testing.T) {
	nodes := NodePositions(3)
	for k, nk := range nodes {
		w := Weights(nodes, nk)
		for j := range w {
			want := 0.0
			if j == k {
				want = 1.0
			}
			if math.Abs(w[j]-want) > 1e-9 {
				t.Errorf("phi_%d(node_%d) = %v, want %v", j, k, w[j], want)
			}
		}
	}
}

func TestCauchyKernel1DSymmetric(t *testing.T) {
	m := 8
	k := CauchyKernel1D(m, 0.5)
	size := 2 * m
	for i := 1; i < m; i++ {
		if k[i] != k[size-i] {
			t.Errorf("kernel not mirrored at offset %d: %v != %v", i, k[i], k[size-i])
		}
	}
	if k[0] != 1.0 {
		t.Errorf("kernel at zero offset = %v, want 1 (1/(1+0))", k[0])
	}
}

func TestCauchyKernel2DQuadrantSymmetric(t *testing.T) {
	m := 6
	k := CauchyKernel2D(m, 0.4)
	size := 2 * m
	for i := 1; i < m; i++ {
		for j := 1; j < m; j++ {
			v := k[i][j]
			if k[size-i][j] != v || k[i][size-j] != v || k[size-i][size-j] != v {
				t.Fatalf("kernel not quadrant-symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestTransform1DRoundTrip(t *testing.T) {
	n := 16
	seq := make([]complex128, n)
	for i := range seq {
		seq[i] = complex(float64(i%5)-2, 0)
	}
	tr := NewTransform1D(n)
	freq := tr.Forward(seq)
	back := tr.Inverse(freq)
	for i := range seq {
		if math.Abs(real(back[i])-real(seq[i])) > 1e-6 {
			t.Fatalf("round-trip mismatch at %d: got %v want %v", i, back[i], seq[i])
		}
	}
}
