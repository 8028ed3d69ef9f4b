package optimize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/datviz/fastTSNE/affinity"
	"github.com/datviz/fastTSNE/gradient"
	"github.com/datviz/fastTSNE/manifold"
)

func uniformAffinity(n, k int) *affinity.Matrix {
	indptr := make([]int32, n+1)
	var idx []int32
	var vals []float64
	for i := 0; i < n; i++ {
		count := 0
		for j := 0; j < n && count < k; j++ {
			if j == i {
				continue
			}
			idx = append(idx, int32(j))
			vals = append(vals, 1.0/float64(n*k))
			count++
		}
		indptr[i+1] = int32(len(idx))
	}
	return &affinity.Matrix{Indices: idx, Indptr: indptr, Values: vals, N: n}
}

func randomEmbedding(n, d int, seed int64) *manifold.Embedding {
	rng := rand.New(rand.NewSource(seed))
	e := manifold.NewEmbedding(n, d)
	for i := range e.Y {
		e.Y[i] = rng.NormFloat64()
	}
	return e
}

func TestOptimizerSinglePointNoOp(t *testing.T) {
	y := manifold.NewEmbedding(1, 2)
	y.Y[0], y.Y[1] = 3, 4
	p := &affinity.Matrix{Indptr: []int32{0, 0}, N: 1}
	opt := New(y, p, gradient.NewBarnesHut(1), DefaultConfig(1))
	res, err := opt.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res.Embedding.Y[0] != 3 || res.Embedding.Y[1] != 4 {
		t.Fatalf("N=1 embedding should be unchanged, got %v", res.Embedding.Y)
	}
	if res.IterationsRun != 0 {
		t.Fatalf("expected 0 iterations for N=1, got %d", res.IterationsRun)
	}
}

func TestOptimizerRecentersEveryIteration(t *testing.T) {
	n := 40
	y := randomEmbedding(n, 2, 1)
	p := uniformAffinity(n, 5)
	cfg := DefaultConfig(n)
	cfg.NIter = 20
	cfg.CallbacksEveryIters = 1
	var maxMean float64
	cfg.Observer = ObserverFunc(func(iter int, kl float64, y *manifold.Embedding) Signal {
		means := y.ColumnMeans()
		for _, m := range means {
			if math.Abs(m) > maxMean {
				maxMean = math.Abs(m)
			}
		}
		return Continue
	})

	opt := New(y, p, gradient.NewBarnesHut(1), cfg)
	_, err := opt.Run()
	if err != nil {
		t.Fatal(err)
	}
	if maxMean > 1e-9 {
		t.Fatalf("column means should stay ~0 after recentering, got max %v", maxMean)
	}
}

func TestOptimizerObserverStopHaltsAtExactIteration(t *testing.T) {
	n := 30
	y := randomEmbedding(n, 2, 2)
	p := uniformAffinity(n, 5)
	cfg := DefaultConfig(n)
	cfg.NIter = 1000
	cfg.CallbacksEveryIters = 1
	cfg.Observer = ObserverFunc(func(iter int, kl float64, y *manifold.Embedding) Signal {
		if iter == 25 {
			return Stop
		}
		return Continue
	})

	opt := New(y, p, gradient.NewBarnesHut(1), cfg)
	res, err := opt.Run()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Stopped {
		t.Fatal("expected Stopped=true")
	}
	if res.IterationsRun != 25 {
		t.Fatalf("expected IterationsRun=25, got %d", res.IterationsRun)
	}
}

func TestOptimizerFrozenRowsStayFixed(t *testing.T) {
	n := 30
	frozen := 10
	y := randomEmbedding(n, 2, 9)
	reference := make([]float64, frozen*2)
	copy(reference, y.Y[:frozen*2])

	p := uniformAffinity(n, 5)
	cfg := DefaultConfig(n)
	cfg.NIter = 30
	cfg.FrozenRows = frozen

	opt := New(y, p, gradient.NewBarnesHut(1), cfg)
	res, err := opt.Run()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < frozen*2; i++ {
		if math.Abs(res.Embedding.Y[i]-reference[i]) > 1e-9 {
			t.Fatalf("frozen coordinate %d moved: got %v, want %v", i, res.Embedding.Y[i], reference[i])
		}
	}
}

func TestOptimizerDetectsNumericalDivergence(t *testing.T) {
	n := 5
	y := manifold.NewEmbedding(n, 2)
	for i := range y.Y {
		y.Y[i] = math.NaN()
	}
	p := uniformAffinity(n, 2)
	cfg := DefaultConfig(n)
	cfg.NIter = 1
	opt := New(y, p, gradient.NewBarnesHut(1), cfg)
	_, err := opt.Run()
	if err == nil {
		t.Fatal("expected numerical failure for NaN-seeded embedding")
	}
}
