package quadtree

import (
	"math"
	"math/rand"
	"testing"
)

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil, 0)
	if tree.NumNodes() != 0 {
		t.Fatalf("expected empty tree, got %d nodes", tree.NumNodes())
	}
}

func TestBuildSinglePoint(t *testing.T) {
	tree := Build([]float64{1, 2}, 1)
	if tree.NumNodes() != 1 {
		t.Fatalf("expected 1 node, got %d", tree.NumNodes())
	}
	visited := 0
	tree.Walk(1, 2, 0.5, -1, func(cx, cy, mass float64, isLeaf bool) {
		visited++
	})
	if visited != 1 {
		t.Fatalf("expected 1 visit for single-point tree, got %d", visited)
	}
}

func TestBuildAllDuplicatesFlagsRoot(t *testing.T) {
	y := []float64{5, 5, 5, 5, 5, 5, 5, 5}
	tree := Build(y, 4)
	if !tree.RootDuplicate() {
		t.Fatal("expected root to be flagged duplicate when all points coincide")
	}
}

func TestWalkSkipsSelfInteraction(t *testing.T) {
	y := []float64{0, 0, 10, 10, -10, -10}
	tree := Build(y, 3)

	var masses []float64
	tree.Walk(0, 0, 100.0, 0, func(cx, cy, mass float64, isLeaf bool) {
		masses = append(masses, mass)
	})
	total := 0.0
	for _, m := range masses {
		total += m
	}
	// Querying point 0 against the other two points (mass 1 each); since
	// theta is huge, the whole tree collapses into a single summarizing
	// node (or leaves), but point 0 itself must never contribute.
	if total > 2.0+1e-9 {
		t.Fatalf("expected mass <= 2 (excluding self), got %v", total)
	}
}

func TestWalkCoversAllMassForSmallTheta(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 200
	y := make([]float64, 2*n)
	for i := range y {
		y[i] = rng.NormFloat64() * 10
	}
	tree := Build(y, n)

	total := 0.0
	tree.Walk(y[0], y[1], 1e-9, 0, func(cx, cy, mass float64, isLeaf bool) {
		total += mass
	})
	if math.Abs(total-float64(n-1)) > 1e-9 {
		t.Fatalf("exact walk (theta~0) should cover all other points; got mass=%v want %v", total, n-1)
	}
}

func TestBuildBoundingBoxContainsAllPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 50
	y := make([]float64, 2*n)
	for i := range y {
		y[i] = rng.Float64()*20 - 10
	}
	tree := Build(y, n)

	total := 0.0
	tree.Walk(1e9, 1e9, 1e9, -1, func(cx, cy, mass float64, isLeaf bool) {
		total += mass
	})
	if math.Abs(total-float64(n)) > 1e-9 {
		t.Fatalf("expected total mass %d, got %v", n, total)
	}
}
