// Package affinity converts pairwise high-dimensional neighbor distances
// into the sparse, symmetric probability matrix P that the positive
// gradient engine reads every iteration. Each row is calibrated
// independently by binary-searching a precision (inverse squared
// bandwidth) that makes the row's Shannon entropy match a target
// perplexity, the same "binary search a bandwidth against a target
// statistic" shape as the teacher's UMAP smooth-kNN-distance pass, just
// calibrated against entropy instead of log2(k).
package affinity

import (
	"math"
	"sort"
	"sync"
)

// EPSILON guards divisions by a near-zero normalizer, matching the
// convention spec.md names explicitly (affinity row sums, positive
// gradient's q_ij, BH's Z).
const EPSILON = 1e-12

const (
	defaultTolerance = 1e-8
	maxBinarySearch  = 200
)

// Distances is the dense N x k neighbor distance/index table supplied by
// an external collaborator (exact or approximate neighbor search is
// explicitly out of scope for this module, per spec.md §1).
type Distances struct {
	// Indices[i][j] is the global index of row i's j-th neighbor.
	Indices [][]int
	// Values[i][j] is the distance (not squared-distance necessarily;
	// callers pass whatever distance they want entropy calibrated
	// against, conventionally squared Euclidean) from point i to its
	// j-th neighbor.
	Values [][]float64
}

// Matrix is the sparse symmetric affinity matrix P in compressed-row
// (CSR) form: Indices/Values are row-concatenated, Indptr marks row
// boundaries. After Build, rows are symmetrized and hold both triangles
// (spec.md Design Notes §9 "Sparse P layout").
type Matrix struct {
	Indices []int32
	Indptr  []int32
	Values  []float64
	N       int
}

// Row returns the column indices and values for row i.
func (m *Matrix) Row(i int) ([]int32, []float64) {
	lo, hi := m.Indptr[i], m.Indptr[i+1]
	return m.Indices[lo:hi], m.Values[lo:hi]
}

// Sum returns the total mass of the matrix (should be ~1 after Build).
func (m *Matrix) Sum() float64 {
	var s float64
	for _, v := range m.Values {
		s += v
	}
	return s
}

// Config tunes the perplexity search.
type Config struct {
	Perplexity float64
	Tolerance  float64 // entropy convergence tolerance, default 1e-8
	NJobs      int      // 0 or negative per spec.md §5 ("all but |n| cores"); 0 means all cores
}

// Build calibrates one conditional row distribution per point to the
// target perplexity, then symmetrizes into the final sparse P consumed
// by gradient.Positive.
func Build(dist Distances, cfg Config) (*Matrix, error) {
	n := len(dist.Indices)
	if n == 0 {
		return nil, ErrEmptyInput
	}
	k := len(dist.Indices[0])
	if cfg.Perplexity <= 0 {
		return nil, ErrInvalidPerplexity
	}
	if float64(k) < cfg.Perplexity {
		// Falls back to uniform weighting over the supplied neighbors
		// rather than erroring — spec.md §8 boundary behavior
		// "Perplexity exceeding effective neighborhood".
	}
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}

	condRows := make([][]float64, n)   // per-row, aligned with dist.Indices[i]
	workers := resolveWorkers(cfg.NJobs, n)

	rowCh := make(chan int, n)
	for i := 0; i < n; i++ {
		rowCh <- i
	}
	close(rowCh)

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rowCh {
				row, err := calibrateRow(dist.Values[i], cfg.Perplexity, tol)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					return
				}
				condRows[i] = row
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}

	return symmetrize(dist.Indices, condRows, n)
}

// resolveWorkers turns spec.md's n_jobs convention (negative = all-but-|n|)
// into a positive worker count, bounded by the row count.
func resolveWorkers(nJobs, n int) int {
	cores := numCPU()
	var workers int
	switch {
	case nJobs > 0:
		workers = nJobs
	case nJobs < 0:
		workers = cores + nJobs
	default:
		workers = cores
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	return workers
}

// calibrateRow binary-searches beta (precision) so that the row's entropy
// equals log(perplexity) within tol, per spec.md §4.1.
func calibrateRow(distances []float64, perplexity, tol float64) ([]float64, error) {
	k := len(distances)
	if k == 0 {
		return nil, nil
	}
	for _, d := range distances {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
			return nil, ErrNonFiniteDistance
		}
	}

	target := math.Log(perplexity)
	beta := 1.0
	betaMin, betaMax := 0.0, math.Inf(1)

	p := make([]float64, k)
	for iter := 0; iter < maxBinarySearch; iter++ {
		sumP := 0.0
		sumDP := 0.0
		for j, d := range distances {
			pj := math.Exp(-d * beta)
			p[j] = pj
			sumP += pj
			sumDP += d * pj
		}
		if sumP <= 0 {
			sumP = EPSILON
		}
		h := math.Log(sumP) + beta*sumDP/sumP

		diff := h - target
		if math.Abs(diff) < tol {
			break
		}

		if diff > 0 {
			// Entropy too high -> distribution too spread -> raise beta (sharpen).
			betaMin = beta
			if math.IsInf(betaMax, 1) {
				beta *= 2
			} else {
				beta = (beta + betaMax) / 2
			}
		} else {
			betaMax = beta
			beta = (beta + betaMin) / 2
		}
		// Silent best-effort on max_iter exceeded, per spec.md §4.1 "Failure".
	}

	sumP := 0.0
	for _, pj := range p {
		sumP += pj
	}
	inv := 1.0 / (sumP + EPSILON)
	for j := range p {
		p[j] *= inv
	}
	return p, nil
}

// symmetrize builds P <- (P + P^T) / (2N) over the sparse neighbor graph,
// keeping both triangles explicitly stored (spec.md Design Notes §9).
func symmetrize(indices [][]int, condRows [][]float64, n int) (*Matrix, error) {
	type entry struct {
		col int
		val float64
	}
	byRow := make([][]entry, n)

	for i := 0; i < n; i++ {
		for j, col := range indices[i] {
			if col == i {
				continue // no self-entries
			}
			v := condRows[i][j]
			byRow[i] = append(byRow[i], entry{col, v})
		}
	}

	// Accumulate P_ij and P_ji into a single symmetric map per row, using
	// column-sorted maps to merge the two halves without quadratic scans.
	acc := make([]map[int]float64, n)
	for i := range acc {
		acc[i] = make(map[int]float64, len(byRow[i]))
	}
	for i := 0; i < n; i++ {
		for _, e := range byRow[i] {
			acc[i][e.col] += e.val
			acc[e.col][i] += e.val
		}
	}

	denom := 2.0 * float64(n)
	indptr := make([]int32, n+1)
	var flatIdx []int32
	var flatVal []float64

	for i := 0; i < n; i++ {
		cols := make([]int, 0, len(acc[i]))
		for c := range acc[i] {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		for _, c := range cols {
			flatIdx = append(flatIdx, int32(c))
			flatVal = append(flatVal, acc[i][c]/denom)
		}
		indptr[i+1] = int32(len(flatIdx))
	}

	return &Matrix{Indices: flatIdx, Indptr: indptr, Values: flatVal, N: n}, nil
}
