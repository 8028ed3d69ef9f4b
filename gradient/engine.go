package gradient

import "github.com/datviz/fastTSNE/manifold"

// NegativeEngine is the tagged-variant abstraction spec.md Design Notes §9
// calls for in place of the source's string-keyed dispatch: the optimizer
// holds exactly one implementation (BarnesHut, FFT1D, or FFT2D) and calls
// it uniformly once per iteration.
type NegativeEngine interface {
	// Negative writes the repulsive gradient for every point into grad
	// (row-major, length N*D) and returns the partition function Z.
	Negative(y *manifold.Embedding, grad []float64) (z float64, err error)
}
