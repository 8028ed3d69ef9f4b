package neighbors

import (
	"math/rand"
	"testing"
)

func gridPoints(n, dims int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return data
}

func TestExactRejectsInvalidK(t *testing.T) {
	data := gridPoints(5, 2, 1)
	e := NewExact()
	if _, err := e.Query(data, 5, 2, 0); err != ErrInvalidK {
		t.Fatalf("expected ErrInvalidK for k=0, got %v", err)
	}
	if _, err := e.Query(data, 5, 2, 5); err != ErrInvalidK {
		t.Fatalf("expected ErrInvalidK for k=n, got %v", err)
	}
}

func TestExactNeverReturnsSelf(t *testing.T) {
	n, dims, k := 30, 3, 5
	data := gridPoints(n, dims, 7)
	e := NewExact()
	dist, err := e.Query(data, n, dims, k)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range dist.Indices {
		if len(row) != k {
			t.Fatalf("row %d: want %d neighbors, got %d", i, k, len(row))
		}
		for _, j := range row {
			if j == i {
				t.Fatalf("row %d: neighbor list includes self", i)
			}
		}
	}
}

func TestExactNeighborsAreSortedByDistance(t *testing.T) {
	n, dims, k := 20, 2, 6
	data := gridPoints(n, dims, 11)
	e := NewExact()
	dist, err := e.Query(data, n, dims, k)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range dist.Values {
		for j := 1; j < len(row); j++ {
			if row[j] < row[j-1] {
				t.Fatalf("row %d distances not sorted: %v", i, row)
			}
		}
	}
}

func TestBallTreeAgreesWithExactOnRandomCloud(t *testing.T) {
	n, dims, k := 120, 4, 8
	data := gridPoints(n, dims, 99)

	exactDist, err := NewExact().Query(data, n, dims, k)
	if err != nil {
		t.Fatal(err)
	}
	btDist, err := NewBallTree(8).Query(data, n, dims, k)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		exactFarthest := exactDist.Values[i][k-1]
		btFarthest := btDist.Values[i][k-1]
		if btFarthest > exactFarthest+1e-9 {
			t.Fatalf("row %d: ball tree k-th distance %v exceeds exact k-th distance %v", i, btFarthest, exactFarthest)
		}
	}
}

func TestBallTreeNeverReturnsSelf(t *testing.T) {
	n, dims, k := 50, 3, 4
	data := gridPoints(n, dims, 5)
	dist, err := NewBallTree(4).Query(data, n, dims, k)
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range dist.Indices {
		if len(row) != k {
			t.Fatalf("row %d: want %d neighbors, got %d", i, k, len(row))
		}
		for _, j := range row {
			if j == i {
				t.Fatalf("row %d: neighbor list includes self", i)
			}
		}
	}
}

func TestQueryRejectsShapeMismatch(t *testing.T) {
	data := make([]float64, 7) // not a multiple of dims=3
	if _, err := NewExact().Query(data, 2, 3, 1); err != ErrShapeInput {
		t.Fatalf("expected ErrShapeInput, got %v", err)
	}
}
