package tsne

import (
	"math"
	"math/rand"
	"testing"
)

func blobData(nPerCluster, dim int, centers [][]float64, seedValue int64) []float64 {
	rng := rand.New(rand.NewSource(seedValue))
	n := nPerCluster * len(centers)
	data := make([]float64, n*dim)
	row := 0
	for _, c := range centers {
		for i := 0; i < nPerCluster; i++ {
			for d := 0; d < dim; d++ {
				data[row*dim+d] = c[d] + rng.NormFloat64()*0.3
			}
			row++
		}
	}
	return data
}

func smallConfig(n int) Config {
	cfg := DefaultConfig(n)
	cfg.NIter = 60
	cfg.EarlyExaggerationIter = 20
	cfg.CallbacksEveryIters = 20
	cfg.Perplexity = 5
	return cfg
}

func TestFitRejectsEmptyInput(t *testing.T) {
	cfg := DefaultConfig(0)
	cfg.Perplexity = 1
	_, err := Fit(nil, 0, 3, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}
	terr, ok := err.(*Error)
	if !ok || terr.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFitRejectsHighPerplexity(t *testing.T) {
	n := 10
	cfg := DefaultConfig(n)
	cfg.Perplexity = 5 // >= N/3 for N=10
	x := blobData(5, 2, [][]float64{{0, 0}, {10, 10}}, 1)
	_, err := Fit(x, n, 2, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error for perplexity >= N/3")
	}
	if terr, ok := err.(*Error); !ok || terr.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestFitRejectsNonFiniteInput(t *testing.T) {
	n := 10
	cfg := smallConfig(n)
	x := blobData(5, 3, [][]float64{{0, 0, 0}, {10, 10, 10}}, 1)
	x[0] = math.NaN()
	_, err := Fit(x, n, 3, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error for non-finite input")
	}
}

func TestFitShapeMismatch(t *testing.T) {
	cfg := smallConfig(5)
	_, err := Fit(make([]float64, 7), 5, 3, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestFitRejectsBHWithOutputDimOne(t *testing.T) {
	n := 10
	cfg := smallConfig(n)
	cfg.OutputDim = 1
	cfg.NegativeGradientMethod = MethodBarnesHut
	x := blobData(5, 3, [][]float64{{0, 0, 0}, {10, 10, 10}}, 1)
	_, err := Fit(x, n, 3, cfg, nil, nil)
	if err == nil {
		t.Fatal("expected error for bh with output_dim=1")
	}
}

func TestFitEndToEndProducesFiniteEmbedding(t *testing.T) {
	n := 30
	dim := 4
	cfg := smallConfig(n)
	x := blobData(15, dim, [][]float64{{0, 0, 0, 0}, {20, 20, 20, 20}}, 5)

	result, err := Fit(x, n, dim, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Embedding.N != n || result.Embedding.D != 2 {
		t.Fatalf("unexpected embedding shape (%d, %d)", result.Embedding.N, result.Embedding.D)
	}
	if result.Embedding.HasNonFinite() {
		t.Fatal("expected finite embedding")
	}
}

func TestFitSingletonReturnsUnchangedInit(t *testing.T) {
	cfg := smallConfig(1)
	cfg.Perplexity = 0.5
	x := []float64{1, 2, 3}
	result, err := Fit(x, 1, 3, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Embedding.N != 1 {
		t.Fatalf("expected N=1, got %d", result.Embedding.N)
	}
}

func TestTransformProjectsNewPointsNearOwnCluster(t *testing.T) {
	n := 30
	dim := 3
	cfg := smallConfig(n)
	centers := [][]float64{{0, 0, 0}, {30, 30, 30}}
	x := blobData(15, dim, centers, 11)

	result, err := Fit(x, n, dim, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	newX := blobData(4, dim, [][]float64{centers[0]}, 23)
	out, err := Transform(result, newX, 4)
	if err != nil {
		t.Fatal(err)
	}
	if out.N != 4 || out.D != 2 {
		t.Fatalf("unexpected output shape (%d, %d)", out.N, out.D)
	}
	if out.HasNonFinite() {
		t.Fatal("expected finite transformed embedding")
	}

	// The new points all came from the same original cluster as the
	// first 15 reference points; their embedded centroid should sit
	// closer to that cluster's embedded centroid than to the other
	// cluster's.
	var c0x, c0y, c1x, c1y float64
	for i := 0; i < 15; i++ {
		c0x += result.Embedding.Y[i*2]
		c0y += result.Embedding.Y[i*2+1]
	}
	for i := 15; i < 30; i++ {
		c1x += result.Embedding.Y[i*2]
		c1y += result.Embedding.Y[i*2+1]
	}
	c0x, c0y = c0x/15, c0y/15
	c1x, c1y = c1x/15, c1y/15

	var newX0, newY0 float64
	for i := 0; i < 4; i++ {
		newX0 += out.Y[i*2]
		newY0 += out.Y[i*2+1]
	}
	newX0, newY0 = newX0/4, newY0/4

	d0 := math.Hypot(newX0-c0x, newY0-c0y)
	d1 := math.Hypot(newX0-c1x, newY0-c1y)
	if d0 >= d1 {
		t.Fatalf("expected new points closer to their own cluster's centroid: d0=%v d1=%v", d0, d1)
	}
}

func TestTransformLeavesReferenceEmbeddingUnchanged(t *testing.T) {
	n := 20
	dim := 3
	cfg := smallConfig(n)
	x := blobData(10, dim, [][]float64{{0, 0, 0}, {25, 25, 25}}, 2)
	result, err := Fit(x, n, dim, cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	before := make([]float64, len(result.Embedding.Y))
	copy(before, result.Embedding.Y)

	newX := blobData(3, dim, [][]float64{{0, 0, 0}}, 6)
	if _, err := Transform(result, newX, 3); err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if before[i] != result.Embedding.Y[i] {
			t.Fatalf("Fit's own result.Embedding mutated by Transform at index %d", i)
		}
	}
}
