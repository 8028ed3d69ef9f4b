// Package fftgrid provides the grid/interpolation/convolution machinery
// shared by the two FFT-accelerated negative gradient engines
// (gradient.FFT1D, gradient.FFT2D): Lagrange interpolation onto a uniform
// grid, a Cauchy-kernel circulant embedding, and the complex FFT wrapper
// used to convolve them (spec.md §4.5). The FFT itself is
// gonum.org/v1/gonum/dsp/fourier's CmplxFFT — already the teacher's own
// numerical dependency family (gonum), satisfying spec.md Design Notes
// §9's "any equivalent library" for the FFT contract without introducing
// a cgo/native FFTW binding the rest of the corpus never imports.
package fftgrid

// NodePositions returns the nInterp Lagrange interpolation node positions
// within a unit cell, placed at half-cell offsets (h/2, 3h/2, ...) per
// spec.md §4.5 step 3, normalized to [0,1] (h = 1/nInterp).
func NodePositions(nInterp int) []float64 {
	nodes := make([]float64, nInterp)
	h := 1.0 / float64(nInterp)
	for k := 0; k < nInterp; k++ {
		nodes[k] = (float64(k) + 0.5) * h
	}
	return nodes
}

// Weights evaluates the nInterp Lagrange basis polynomials phi_k(t) at
// intra-cell position t (normalized to [0,1]) given the node placement
// from NodePositions: phi_k(t) = prod_{j != k} (t - node_j)/(node_k - node_j).
func Weights(nodes []float64, t float64) []float64 {
	n := len(nodes)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		num, den := 1.0, 1.0
		for j := 0; j < n; j++ {
			if j == k {
				continue
			}
			num *= t - nodes[j]
			den *= nodes[k] - nodes[j]
		}
		out[k] = num / den
	}
	return out
}
