// Package neighbors supplies affinity.Distances producers: the exact
// brute-force k-NN the affinity builder needs when the caller has no
// neighbor index of its own, and a ball-tree-accelerated approximate
// provider for larger point counts. Neither is part of the core t-SNE
// algorithm proper; both exist so tsne.Fit is runnable on raw points
// without requiring an external ANN library.
package neighbors

import (
	"errors"

	"github.com/datviz/fastTSNE/affinity"
)

var (
	ErrInvalidK    = errors.New("neighbors: k must be >= 1 and < n")
	ErrShapeInput  = errors.New("neighbors: data length is not a multiple of dims")
)

// Metric computes a distance between two points of equal length.
type Metric interface {
	Distance(a, b []float64) float64
}

// Euclidean returns squared Euclidean distance, matching the convention
// affinity.calibrateRow's Gaussian kernel expects (spec.md §4.1: the
// kernel is exp(-beta * d_ij) over squared distances, not their root).
type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Provider finds, for every point in a row-major data matrix, its k
// nearest other points (self excluded) and their distances.
type Provider interface {
	Query(data []float64, n, dims, k int) (affinity.Distances, error)
}

func rowAt(data []float64, dims, i int) []float64 {
	return data[i*dims : (i+1)*dims]
}

func validate(n, dims, k int, dataLen int) error {
	if dims <= 0 || dataLen != n*dims {
		return ErrShapeInput
	}
	if k < 1 || k >= n {
		return ErrInvalidK
	}
	return nil
}
