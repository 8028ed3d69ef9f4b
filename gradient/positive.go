// Package gradient implements the attractive and repulsive force
// computations the optimizer calls once per iteration: Positive (the
// sparse-neighbor attractive term, §4.3) and the NegativeEngine variants
// BarnesHut, FFT1D, FFT2D (§4.4/§4.5).
package gradient

import (
	"math"
	"sync"

	"github.com/datviz/fastTSNE/affinity"
	"github.com/datviz/fastTSNE/manifold"
)

// EPSILON matches affinity.EPSILON's role here: guards the log(q+EPSILON)
// KL term and the Z-normalized gradient divisions named in spec.md §4.3/§4.4.
const EPSILON = 1e-12

// PositiveResult carries the optional KL accounting spec.md §4.3 names:
// the unnormalized KL contribution and the row mass needed to normalize
// it by Z once the negative engine's Z is known.
type PositiveResult struct {
	KLContribution float64
	SumP           float64
}

// Positive accumulates, for every point i in parallel, the attractive
// term sum_j P_ij * q_ij * (y_i - y_j) into grad (row-major, length N*D),
// ADDING to whatever the negative engine already wrote there (spec.md §4.6
// step 4: "adds to gradient"). P is the unexaggerated affinity matrix;
// exaggeration multiplies it in the force term only. dof is the
// Student-t degrees of freedom.
func Positive(y *manifold.Embedding, p *affinity.Matrix, dof, exaggeration float64, evalError bool, grad []float64, nJobs int) (PositiveResult, error) {
	n := y.N
	if n == 0 {
		return PositiveResult{}, nil
	}
	if len(grad) != n*y.D {
		return PositiveResult{}, ErrShapeMismatch
	}

	workers := resolveWorkers(nJobs, n)
	rowCh := make(chan int, n)
	for i := 0; i < n; i++ {
		rowCh <- i
	}
	close(rowCh)

	var mu sync.Mutex
	var totalKL, totalSumP float64
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			diff := make([]float64, y.D) // thread-local scratch, per spec.md §4.3
			var kl, sumP float64
			for i := range rowCh {
				cols, vals := p.Row(i)
				yi := y.Row(i)
				gi := grad[i*y.D : (i+1)*y.D]
				for k, col := range cols {
					j := int(col)
					pij := vals[k]
					yj := y.Row(j)

					var distSq float64
					for d := 0; d < y.D; d++ {
						diff[d] = yi[d] - yj[d]
						distSq += diff[d] * diff[d]
					}

					base := dof / (dof + distSq)
					qij := base
					if dof != 1 {
						qij = math.Pow(base, (dof+1)/2)
					}

					coef := pij * exaggeration * qij
					for d := 0; d < y.D; d++ {
						gi[d] += coef * diff[d]
					}

					if evalError {
						// KL is always reported against the true P, never
						// the exaggerated one, so the monotonic-KL
						// property (spec.md §8) is meaningful once
						// exaggeration ends.
						kl += pij * math.Log(pij/(qij+EPSILON))
						sumP += pij
					}
				}
			}
			if evalError {
				mu.Lock()
				totalKL += kl
				totalSumP += sumP
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return PositiveResult{KLContribution: totalKL, SumP: totalSumP}, nil
}
