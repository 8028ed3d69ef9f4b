// Package seed builds the initial embedding the optimizer descends from:
// PCA projection (default) or standard-normal random, the two initializers
// spec.md's facade accepts via its optional init parameter without
// specifying how a caller obtains one (spec.md §6, §10).
package seed

import (
	"errors"
	"math/rand"

	"github.com/datviz/fastTSNE/manifold"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrInvalidDimension = errors.New("seed: target dimension must be >= 1")

// initScale matches the openTSNE/FIt-SNE convention of rescaling the
// initial embedding so its largest-magnitude coordinate is initScale, so early-exaggeration
// pulls points together from a near-degenerate starting configuration
// rather than from whatever scale PCA or the RNG happened to produce.
const initScale = 1e-4

// PCA projects the N x D input matrix onto its top d principal
// components via SVD, adapted from the teacher's ProjectTo2D: same
// center-columns -> thin-SVD -> right-singular-vectors pipeline,
// generalized from a fixed d=2 to any d and rescaled to initScale.
func PCA(x []float64, n, dataDim, targetDim int) (*manifold.Embedding, error) {
	if targetDim < 1 {
		return nil, ErrInvalidDimension
	}
	if n == 0 {
		return manifold.NewEmbedding(0, targetDim), nil
	}
	if n == 1 {
		// spec.md §8 boundary: the embedding is returned unchanged by the
		// optimizer for N=1, so any finite starting point is acceptable.
		return manifold.NewEmbedding(1, targetDim), nil
	}

	dense := mat.NewDense(n, dataDim, append([]float64(nil), x...))
	means := make([]float64, dataDim)
	for col := 0; col < dataDim; col++ {
		means[col] = stat.Mean(mat.Col(nil, col, dense), nil)
	}
	for row := 0; row < n; row++ {
		for col := 0; col < dataDim; col++ {
			dense.Set(row, col, dense.At(row, col)-means[col])
		}
	}

	var svd mat.SVD
	effectiveDim := targetDim
	if effectiveDim > dataDim {
		effectiveDim = dataDim
	}
	if !svd.Factorize(dense, mat.SVDThin) {
		return randomFallback(n, targetDim, 0), nil
	}
	var vt mat.Dense
	svd.VTo(&vt)
	rows, cols := vt.Dims()
	if rows < dataDim || cols < effectiveDim {
		return randomFallback(n, targetDim, 0), nil
	}

	components := mat.NewDense(dataDim, targetDim, nil)
	for d := 0; d < dataDim; d++ {
		for c := 0; c < effectiveDim; c++ {
			components.Set(d, c, vt.At(d, c))
		}
	}

	var projected mat.Dense
	projected.Mul(dense, components)

	embedding := manifold.NewEmbedding(n, targetDim)
	var maxAbs float64
	for i := 0; i < n; i++ {
		for d := 0; d < targetDim; d++ {
			v := projected.At(i, d)
			embedding.Y[i*targetDim+d] = v
			if a := abs(v); a > maxAbs {
				maxAbs = a
			}
		}
	}
	rescale(embedding, maxAbs)
	return embedding, nil
}

// Random draws a standard-normal embedding, the fallback path the
// teacher's UMAP initializer takes when the structured init is
// unavailable (spec.md §10: "random init as the explicit alternative").
func Random(n, targetDim int, seedValue int64) (*manifold.Embedding, error) {
	if targetDim < 1 {
		return nil, ErrInvalidDimension
	}
	return randomFallback(n, targetDim, seedValue), nil
}

func randomFallback(n, targetDim int, seedValue int64) *manifold.Embedding {
	rng := rand.New(rand.NewSource(seedValue))
	embedding := manifold.NewEmbedding(n, targetDim)
	var maxAbs float64
	for i := range embedding.Y {
		v := rng.NormFloat64()
		embedding.Y[i] = v
		if a := abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	rescale(embedding, maxAbs)
	return embedding
}

// rescale normalizes the embedding's largest-magnitude coordinate to
// initScale, preserving the relative geometry PCA or the RNG produced.
func rescale(e *manifold.Embedding, maxAbs float64) {
	if maxAbs == 0 {
		return
	}
	factor := initScale / maxAbs
	for i := range e.Y {
		e.Y[i] *= factor
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
