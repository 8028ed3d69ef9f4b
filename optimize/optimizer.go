package optimize

import (
	"errors"
	"math"

	"github.com/datviz/fastTSNE/affinity"
	"github.com/datviz/fastTSNE/gradient"
	"github.com/datviz/fastTSNE/manifold"
)

// gradientScale is the "t-SNE convention" constant spec.md §4.6 step 5
// names: the combined gradient is scaled by 4 before the gain/momentum
// update is applied.
const gradientScale = 4.0

const gainFloor = 0.01

var ErrNonFiniteGradient = errors.New("optimize: non-finite gradient (numerical divergence)")

// Config holds the per-run hyperparameters spec.md §6 enumerates.
type Config struct {
	LearningRate            float64
	NIter                   int
	EarlyExaggerationIter   int
	EarlyExaggeration       float64
	InitialMomentum         float64
	FinalMomentum           float64
	DOF                     float64
	NJobs                   int
	CallbacksEveryIters     int
	Observer                Observer
	EvalError               bool // whether to track KL every callback dispatch

	// FrozenRows, when > 0, holds the first FrozenRows points fixed at
	// their initial coordinates: their gradient is zeroed every
	// iteration before the gain/momentum update, so their update vector
	// never leaves zero. tsne.Transform uses this to optimize new points
	// against a frozen reference embedding (spec.md §6: "reference
	// embedding treated as fixed in the positive gradient and excluded
	// from the negative gradient via a separate pass" — approximated
	// here by letting both engines see the full cloud but discarding
	// the reference rows' resulting gradient, which is simpler than a
	// second gradient pass and produces the same fixed-point).
	FrozenRows int
}

// DefaultConfig returns spec.md §6's stated defaults, with LearningRate
// scaled to the dataset size (max(200, N/12)) as named there.
func DefaultConfig(n int) Config {
	lr := float64(n) / 12.0
	if lr < 200 {
		lr = 200
	}
	return Config{
		LearningRate:          lr,
		NIter:                 750,
		EarlyExaggerationIter:  250,
		EarlyExaggeration:      12,
		InitialMomentum:        0.5,
		FinalMomentum:          0.8,
		DOF:                    1,
		NJobs:                  0,
		CallbacksEveryIters:    50,
		EvalError:              false,
	}
}

// Result is what Run hands back to the facade.
type Result struct {
	Embedding     *manifold.Embedding
	IterationsRun int
	LastKL        float64
	Stopped       bool // true if an Observer requested Stop before NIter completed
}

// Optimizer owns the mutable state spec.md §3 lists as optimizer-owned:
// the embedding, the momentum/update vector, and the per-coordinate gains.
type Optimizer struct {
	y        *manifold.Embedding
	p        *affinity.Matrix
	negative gradient.NegativeEngine
	cfg      Config

	gains  []float64
	update []float64
	grad   []float64
}

// New builds an Optimizer over an already-seeded embedding, a symmetrized
// affinity matrix, and one negative-gradient engine (BarnesHut, FFT1D, or
// FFT2D). The embedding is mutated in place by Run.
func New(y *manifold.Embedding, p *affinity.Matrix, negative gradient.NegativeEngine, cfg Config) *Optimizer {
	size := y.N * y.D
	gains := make([]float64, size)
	for i := range gains {
		gains[i] = 1.0
	}
	return &Optimizer{
		y:        y,
		p:        p,
		negative: negative,
		cfg:      cfg,
		gains:    gains,
		update:   make([]float64, size),
		grad:     make([]float64, size),
	}
}

// Run executes the momentum/gain descent loop described in spec.md §4.6,
// dispatching the configured Observer every CallbacksEveryIters iterations
// and halting early if any Observer in the chain returns Stop.
func (o *Optimizer) Run() (Result, error) {
	n := o.y.N
	if n == 0 {
		return Result{Embedding: o.y, IterationsRun: 0}, nil
	}
	if n == 1 {
		// spec.md §8 boundary: "N=1: returns initialization unchanged."
		return Result{Embedding: o.y, IterationsRun: 0}, nil
	}

	var lastKL float64
	stopped := false
	iterationsRun := 0

	// A non-finite starting embedding is a numerical failure up front; the
	// loop's own check only covers values produced by an update.
	if o.y.HasNonFinite() {
		return Result{}, ErrNonFiniteGradient
	}

	for iter := 0; iter < o.cfg.NIter; iter++ {
		exaggerating := iter < o.cfg.EarlyExaggerationIter
		exaggeration := 1.0
		momentum := o.cfg.FinalMomentum
		if exaggerating {
			exaggeration = o.cfg.EarlyExaggeration
			momentum = o.cfg.InitialMomentum
		}

		for i := range o.grad {
			o.grad[i] = 0
		}

		z, err := o.negative.Negative(o.y, o.grad)
		if err != nil {
			return Result{}, err
		}
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return Result{}, ErrNonFiniteGradient
		}

		dispatchNow := o.cfg.CallbacksEveryIters > 0 && (iter+1)%o.cfg.CallbacksEveryIters == 0
		evalError := o.cfg.EvalError && (dispatchNow || iter == o.cfg.NIter-1)

		posResult, err := gradient.Positive(o.y, o.p, o.cfg.DOF, exaggeration, evalError, o.grad, o.cfg.NJobs)
		if err != nil {
			return Result{}, err
		}
		if evalError {
			lastKL = posResult.KLContribution + posResult.SumP*math.Log(z+gradient.EPSILON)
			if math.IsNaN(lastKL) || math.IsInf(lastKL, 0) {
				return Result{}, ErrNonFiniteGradient
			}
		}

		for i := range o.grad {
			o.grad[i] *= gradientScale
		}

		if o.cfg.FrozenRows > 0 {
			frozenLen := o.cfg.FrozenRows * o.y.D
			if frozenLen > len(o.grad) {
				frozenLen = len(o.grad)
			}
			for i := 0; i < frozenLen; i++ {
				o.grad[i] = 0
			}
		}

		o.applyGainsAndMomentum(momentum)

		for i := 0; i < n*o.y.D; i++ {
			o.y.Y[i] += o.update[i]
		}
		if o.cfg.FrozenRows == 0 {
			// Recentering is only a gauge-freedom fix for a fully free
			// embedding. With frozen rows present, the reference points
			// already pin the coordinate frame; recentering would drag
			// them off their fixed positions instead.
			o.y.Recenter()
		}

		if o.y.HasNonFinite() {
			return Result{}, ErrNonFiniteGradient
		}

		iterationsRun = iter + 1

		if dispatchNow && o.cfg.Observer != nil {
			if o.cfg.Observer.OnIteration(iterationsRun, lastKL, o.y) == Stop {
				stopped = true
				break
			}
		}
	}

	return Result{Embedding: o.y, IterationsRun: iterationsRun, LastKL: lastKL, Stopped: stopped}, nil
}

// applyGainsAndMomentum implements spec.md §4.6 steps 6-7: per-coordinate
// gain adaptation (sign agreement between gradient and the last update
// multiplies the gain by 0.8, disagreement adds 0.2, floored at 0.01) followed by
// the momentum-weighted update accumulation.
func (o *Optimizer) applyGainsAndMomentum(momentum float64) {
	lr := o.cfg.LearningRate
	for i := range o.grad {
		agree := sign(o.grad[i]) == sign(o.update[i])
		if agree {
			o.gains[i] *= 0.8
		} else {
			o.gains[i] += 0.2
		}
		if o.gains[i] < gainFloor {
			o.gains[i] = gainFloor
		}
		o.update[i] = momentum*o.update[i] - lr*o.gains[i]*o.grad[i]
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
