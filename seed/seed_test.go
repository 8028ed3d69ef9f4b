package seed

import (
	"math"
	"math/rand"
	"testing"
)

func clusteredData(n, dim int) []float64 {
	rng := rand.New(rand.NewSource(3))
	data := make([]float64, n*dim)
	for i := 0; i < n; i++ {
		center := 10.0
		if i%2 == 0 {
			center = -10.0
		}
		for d := 0; d < dim; d++ {
			data[i*dim+d] = center + rng.NormFloat64()*0.1
		}
	}
	return data
}

func maxAbsCoord(y []float64) float64 {
	var m float64
	for _, v := range y {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

func TestPCARejectsZeroDimension(t *testing.T) {
	if _, err := PCA([]float64{1, 2, 3, 4}, 2, 2, 0); err != ErrInvalidDimension {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestPCASingleton(t *testing.T) {
	e, err := PCA([]float64{1, 2, 3}, 1, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if e.N != 1 || e.D != 2 {
		t.Fatalf("want shape (1,2), got (%d,%d)", e.N, e.D)
	}
}

func TestPCAScalesToInitScale(t *testing.T) {
	n, dim, target := 60, 5, 2
	data := clusteredData(n, dim)
	e, err := PCA(data, n, dim, target)
	if err != nil {
		t.Fatal(err)
	}
	m := maxAbsCoord(e.Y)
	if m <= 0 || m > initScale+1e-12 {
		t.Fatalf("expected max |coord| in (0, %v], got %v", initScale, m)
	}
}

func TestPCAPreservesClusterSeparationOrdering(t *testing.T) {
	// The two synthetic clusters sit far apart along one axis; after PCA
	// and rescaling, within-cluster distances should still be much
	// smaller than between-cluster distances (relative ordering, not
	// absolute scale, survives the initScale rescale).
	n, dim, target := 40, 5, 2
	data := clusteredData(n, dim)
	e, err := PCA(data, n, dim, target)
	if err != nil {
		t.Fatal(err)
	}
	within := e.SquaredDistance(0, 2)
	between := e.SquaredDistance(0, 1)
	if within >= between {
		t.Fatalf("expected within-cluster distance (%v) < between-cluster distance (%v)", within, between)
	}
}

func TestRandomRejectsZeroDimension(t *testing.T) {
	if _, err := Random(5, 0, 1); err != ErrInvalidDimension {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestRandomDeterministicForFixedSeed(t *testing.T) {
	a, err := Random(20, 2, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Random(20, 2, 42)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Y {
		if a.Y[i] != b.Y[i] {
			t.Fatalf("expected identical output for identical seed at index %d", i)
		}
	}
}

func TestRandomScalesToInitScale(t *testing.T) {
	e, err := Random(50, 2, 7)
	if err != nil {
		t.Fatal(err)
	}
	m := maxAbsCoord(e.Y)
	if m <= 0 || m > initScale+1e-12 {
		t.Fatalf("expected max |coord| in (0, %v], got %v", initScale, m)
	}
}
