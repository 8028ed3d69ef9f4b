package gradient

import (
	"math"
	"sync"

	"github.com/datviz/fastTSNE/manifold"
	"github.com/datviz/fastTSNE/quadtree"
)

// DefaultTheta is the Barnes–Hut accuracy/speed trade-off spec.md §4.4
// names as the default.
const DefaultTheta = 0.5

// BarnesHut is the quadtree-accelerated negative gradient engine
// (spec.md §4.4). Only D==2 is supported, matching the quadtree's 2-D
// contract.
type BarnesHut struct {
	Theta float64
	NJobs int
}

// NewBarnesHut returns a BarnesHut engine with spec.md's default theta.
func NewBarnesHut(nJobs int) *BarnesHut {
	return &BarnesHut{Theta: DefaultTheta, NJobs: nJobs}
}

// Negative walks a freshly built quadtree for every point, accumulates
// the repulsive term sum_c mass_c * q^2 * (y_i - c), and writes its
// negation divided by Z into grad (the same sign the FFT engines use),
// returning the partition function Z = sum_i sum_Q_i (spec.md §4.4).
// A Theta of 0 descends to every leaf (exact); a negative Theta selects
// DefaultTheta. Gradient rows
// are written (not added), since per spec.md §4.6 the negative engine
// runs first each iteration and the positive engine adds on top.
func (e *BarnesHut) Negative(y *manifold.Embedding, grad []float64) (float64, error) {
	if y.D != 2 {
		return 0, ErrUnsupportedDimension
	}
	n := y.N
	if n == 0 {
		return 0, nil
	}
	if len(grad) != n*y.D {
		return 0, ErrShapeMismatch
	}

	theta := e.Theta
	if theta < 0 {
		theta = DefaultTheta
	}

	tree := quadtree.Build(y.Y, n)
	sumQ := make([]float64, n) // per-point partial sum, written once each (spec.md §4.4 "pre-sized array... to avoid contention")

	workers := resolveWorkers(e.NJobs, n)
	rowCh := make(chan int, n)
	for i := 0; i < n; i++ {
		rowCh <- i
	}
	close(rowCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rowCh {
				qi := y.Row(i)
				gi := grad[i*2 : i*2+2]
				var localSumQ, fx, fy float64
				tree.Walk(qi[0], qi[1], theta, i, func(cx, cy, mass float64, isLeaf bool) {
					dx := qi[0] - cx
					dy := qi[1] - cy
					distSq := dx*dx + dy*dy
					q := 1.0 / (1.0 + distSq)
					localSumQ += mass * q
					coef := mass * q * q
					fx += coef * dx
					fy += coef * dy
				})
				gi[0] = -fx
				gi[1] = -fy
				sumQ[i] = localSumQ
			}
		}()
	}
	wg.Wait()

	var z float64
	for _, s := range sumQ {
		z += s
	}
	zInv := 1.0 / (z + EPSILON)
	for i := 0; i < n*2; i++ {
		grad[i] *= zInv
	}

	if math.IsNaN(z) || math.IsInf(z, 0) {
		return z, ErrNumericalFailure
	}
	return z, nil
}
