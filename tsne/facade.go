// Package tsne is the public facade wiring affinity, neighbors, seed,
// optimize, and gradient into spec.md §6's two operations:
// Fit and Transform.
package tsne

import (
	"math"

	"github.com/datviz/fastTSNE/affinity"
	"github.com/datviz/fastTSNE/gradient"
	"github.com/datviz/fastTSNE/manifold"
	"github.com/datviz/fastTSNE/neighbors"
	"github.com/datviz/fastTSNE/optimize"
	"github.com/datviz/fastTSNE/seed"
)

// Embedding is the public alias for the shared low-level point-cloud
// type every numerical package already depends on; kept as a distinct
// package (manifold) instead of living in tsne itself because gradient,
// optimize, seed, and diagnostics all need the type and would
// otherwise import tsne, which imports all of them (see DESIGN.md).
type Embedding = manifold.Embedding

// Result is the "handle carrying sufficient state to support transform"
// spec.md §6's fit operation names.
type Result struct {
	Embedding *Embedding
	P         *affinity.Matrix

	referenceX []float64
	refN, dim  int
	cfg        Config
}

// kNeighborsForPerplexity follows the common t-SNE convention of
// retrieving roughly 3x the target perplexity worth of neighbors per
// row, the same order of magnitude smooth_knn_dist's k plays in the
// teacher's UMAP path.
func kNeighborsForPerplexity(perplexity float64, n int) int {
	k := int(math.Ceil(3 * perplexity))
	if k >= n {
		k = n - 1
	}
	if k < 1 {
		k = 1
	}
	return k
}

func validateConfig(n int, cfg Config) *Error {
	if n == 0 {
		return invalidInputf("empty input: 0 points")
	}
	if cfg.Perplexity <= 0 || cfg.Perplexity >= float64(n)/3 {
		return invalidInputf("perplexity %v must be in (0, N/3); N=%d", cfg.Perplexity, n)
	}
	if cfg.OutputDim != 1 && cfg.OutputDim != 2 {
		return invalidInputf("unsupported output dimension %d (only 1 or 2)", cfg.OutputDim)
	}
	if cfg.NegativeGradientMethod == MethodBarnesHut && cfg.OutputDim != 2 {
		return invalidInputf("negative_gradient_method=bh requires output_dim=2, got %d", cfg.OutputDim)
	}
	return nil
}

func resolveNeighborMethod(cfg Config) neighbors.Provider {
	if cfg.Neighbors == NeighborsApprox {
		return neighbors.NewBallTree(16)
	}
	return neighbors.NewExact()
}

func resolveNegativeEngine(cfg Config) (gradient.NegativeEngine, *Error) {
	switch cfg.NegativeGradientMethod {
	case MethodFFT:
		params := fftParamsWithPublicDefaults(gradient.FFTParams{
			NInterp:         cfg.NInterpolationPoints,
			MinIntervals:    cfg.MinNumIntervals,
			IntervalsPerInt: cfg.IntsPerInterval,
		})
		if cfg.OutputDim == 1 {
			return &gradient.FFT1D{Params: params}, nil
		}
		return &gradient.FFT2D{Params: params}, nil
	case MethodBarnesHut, "":
		bh := gradient.NewBarnesHut(cfg.NJobs)
		if cfg.Theta > 0 {
			bh.Theta = cfg.Theta
		}
		return bh, nil
	default:
		return nil, configurationErrorf("unknown negative_gradient_method %q", cfg.NegativeGradientMethod)
	}
}

func buildDistances(x []float64, n, dim int, cfg Config) (affinity.Distances, *Error) {
	k := kNeighborsForPerplexity(cfg.Perplexity, n)
	provider := resolveNeighborMethod(cfg)
	dist, err := provider.Query(x, n, dim, k)
	if err != nil {
		return affinity.Distances{}, invalidInputf("neighbor query failed: %v", err)
	}
	return dist, nil
}

func resolveInit(x []float64, n, dim int, cfg Config, initOverride *Embedding) (*Embedding, error) {
	if initOverride != nil {
		return initOverride.Clone(), nil
	}
	if cfg.Init == InitRandom {
		return seed.Random(n, cfg.OutputDim, cfg.RandomSeed)
	}
	return seed.PCA(x, n, dim, cfg.OutputDim)
}

func buildAffinity(dist affinity.Distances, cfg Config) (*affinity.Matrix, *Error) {
	p, err := affinity.Build(dist, affinity.Config{Perplexity: cfg.Perplexity, NJobs: cfg.NJobs})
	if err != nil {
		return nil, invalidInputf("affinity build failed: %v", err)
	}
	return p, nil
}

// Fit runs spec.md §6's fit operation: X is N*D row-major high-dimensional
// points, dim is D. neighborsOverride lets a caller hand in a precomputed
// affinity.Distances instead of having Fit compute one (spec.md §10's
// exact-neighbor-fallback supplement still applies when it is nil).
// initOverride lets a caller hand in an initial embedding instead of the
// PCA/random default.
func Fit(x []float64, n, dim int, cfg Config, neighborsOverride *affinity.Distances, initOverride *Embedding) (*Result, error) {
	if n == 0 {
		return nil, invalidInputf("empty input: 0 points")
	}
	if len(x) != n*dim {
		return nil, invalidInputf("data length %d does not match N*D=%d", len(x), n*dim)
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalidInputf("input contains non-finite values")
		}
	}

	if n == 1 {
		// spec.md §8 boundary: "N=1: returns initialization unchanged."
		// There is no neighbor to calibrate perplexity against, so the
		// usual perplexity-vs-N/3 validation does not apply here.
		y, ierr := resolveInit(x, n, dim, cfg, initOverride)
		if ierr != nil {
			return nil, invalidInputf("seed initialization failed: %v", ierr)
		}
		refX := make([]float64, len(x))
		copy(refX, x)
		return &Result{Embedding: y, P: nil, referenceX: refX, refN: n, dim: dim, cfg: cfg}, nil
	}

	if verr := validateConfig(n, cfg); verr != nil {
		return nil, verr
	}

	var dist affinity.Distances
	if neighborsOverride != nil {
		dist = *neighborsOverride
	} else {
		var derr *Error
		dist, derr = buildDistances(x, n, dim, cfg)
		if derr != nil {
			return nil, derr
		}
	}

	p, aerr := buildAffinity(dist, cfg)
	if aerr != nil {
		return nil, aerr
	}

	y, ierr := resolveInit(x, n, dim, cfg, initOverride)
	if ierr != nil {
		return nil, invalidInputf("seed initialization failed: %v", ierr)
	}

	engine, eerr := resolveNegativeEngine(cfg)
	if eerr != nil {
		return nil, eerr
	}

	optCfg := optimize.Config{
		LearningRate:          cfg.LearningRate,
		NIter:                 cfg.NIter,
		EarlyExaggerationIter: cfg.EarlyExaggerationIter,
		EarlyExaggeration:     cfg.EarlyExaggeration,
		InitialMomentum:       cfg.InitialMomentum,
		FinalMomentum:         cfg.FinalMomentum,
		DOF:                   cfg.DOF,
		NJobs:                 cfg.NJobs,
		CallbacksEveryIters:   cfg.CallbacksEveryIters,
		Observer:              cfg.Observer,
		EvalError:             cfg.EvalError,
	}

	opt := optimize.New(y, p, engine, optCfg)
	res, rerr := opt.Run()
	if rerr != nil {
		return nil, numericalFailuref(rerr, "optimization failed")
	}

	refX := make([]float64, len(x))
	copy(refX, x)

	return &Result{
		Embedding:  res.Embedding,
		P:          p,
		referenceX: refX,
		refN:       n,
		dim:        dim,
		cfg:        cfg,
	}, nil
}

// fftParamsWithPublicDefaults mirrors gradient.FFTParams.withDefaults, which is
// unexported; the facade rebuilds the zero-value-filling logic here so
// a caller's partially-specified Config still gets spec.md §6's named
// FFT defaults (n_interpolation_points=3, min_num_intervals=10,
// ints_per_interval=1) without reaching into gradient's internals.
func fftParamsWithPublicDefaults(p gradient.FFTParams) gradient.FFTParams {
	if p.NInterp <= 0 {
		p.NInterp = 3
	}
	if p.MinIntervals <= 0 {
		p.MinIntervals = 10
	}
	if p.IntervalsPerInt <= 0 {
		p.IntervalsPerInt = 1
	}
	return p
}
