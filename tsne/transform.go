package tsne

import (
	"math"

	"github.com/datviz/fastTSNE/affinity"
	"github.com/datviz/fastTSNE/optimize"
)

// Transform runs spec.md §6's transform operation: newX (M*dim row-major
// points, same dim as the original Fit call) is optimized against the
// frozen reference embedding result carries, via optimize.Config's
// FrozenRows (see the optimize entry on Config.FrozenRows in DESIGN.md
// for why this replaces a literal second gradient pass).
func Transform(result *Result, newX []float64, m int) (*Embedding, error) {
	if result == nil {
		return nil, invalidInputf("nil Fit result")
	}
	if m == 0 {
		return nil, invalidInputf("empty input: 0 points")
	}
	if len(newX) != m*result.dim {
		return nil, invalidInputf("data length %d does not match M*D=%d", len(newX), m*result.dim)
	}
	for _, v := range newX {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalidInputf("input contains non-finite values")
		}
	}

	refN, dim := result.refN, result.dim
	combinedX := make([]float64, (refN+m)*dim)
	copy(combinedX, result.referenceX)
	copy(combinedX[refN*dim:], newX)
	combinedN := refN + m

	cfg := result.cfg
	dist, derr := buildDistances(combinedX, combinedN, dim, cfg)
	if derr != nil {
		return nil, derr
	}
	p, aerr := buildAffinity(dist, cfg)
	if aerr != nil {
		return nil, aerr
	}

	y := result.Embedding.Clone()
	combinedY := &Embedding{N: combinedN, D: y.D, Y: make([]float64, combinedN*y.D)}
	copy(combinedY.Y, y.Y)
	for i := 0; i < m; i++ {
		initNewPointFromNearestReference(combinedY, dist, refN, i)
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
		FrozenRows:            refN,
	}

	opt := optimize.New(combinedY, p, engine, optCfg)
	res, rerr := opt.Run()
	if rerr != nil {
		return nil, numericalFailuref(rerr, "transform optimization failed")
	}

	out := &Embedding{N: m, D: res.Embedding.D, Y: make([]float64, m*res.Embedding.D)}
	copy(out.Y, res.Embedding.Y[refN*res.Embedding.D:])
	return out, nil
}

// initNewPointFromNearestReference seeds new point i's coordinates at
// its nearest reference point's embedded position, the standard
// "place the new point where its closest known neighbor already is"
// starting guess for out-of-sample extension, before the frozen-reference
// optimization pass nudges it according to its full neighbor set.
func initNewPointFromNearestReference(combinedY *Embedding, dist affinity.Distances, refN, newIdx int) {
	row := refN + newIdx
	neighborIdx := dist.Indices[row]
	neighborDist := dist.Values[row]

	best := -1
	bestDist := math.Inf(1)
	for k, j := range neighborIdx {
		if j < refN && neighborDist[k] < bestDist {
			best = j
			bestDist = neighborDist[k]
		}
	}
	if best < 0 {
		// No reference point among this new point's neighbors (possible
		// only when m > 1 and two new points are mutually closer than
		// any reference point); fall back to the centroid of whatever
		// reference points exist.
		for d := 0; d < combinedY.D; d++ {
			combinedY.Y[row*combinedY.D+d] = 0
		}
		return
	}
	copy(combinedY.Y[row*combinedY.D:(row+1)*combinedY.D], combinedY.Y[best*combinedY.D:(best+1)*combinedY.D])
}
