package fftgrid

// KernelFFT1D precomputes the frequency-domain kernel once per iteration
// (spec.md §4.5 step 8), reused for every one of n_terms charge channels.
func KernelFFT1D(t *Transform1D, kernel []float64) []complex128 {
	seq := make([]complex128, len(kernel))
	for i, v := range kernel {
		seq[i] = complex(v, 0)
	}
	return t.Forward(seq)
}

// Convolve1D embeds the real charge vector w (length m, one entry per
// grid node) into the zero-padded circulant buffer, convolves against
// the precomputed kernel spectrum, and returns the real potentials at
// the first m nodes (spec.md §4.5 steps 8-9). A fresh complex128 buffer
// is built for every pointwise product rather than mutated in place, so
// there is no possibility of the real/imaginary aliasing bug spec.md's
// Design Notes §9 flags for the 2-D case.
func Convolve1D(t *Transform1D, kernelFFT []complex128, w []float64, m int) []float64 {
	size := 2 * m
	padded := make([]complex128, size)
	for i := 0; i < m; i++ {
		padded[i] = complex(w[i], 0)
	}

	wFFT := t.Forward(padded)
	product := make([]complex128, size)
	for i := range product {
		product[i] = wFFT[i] * kernelFFT[i]
	}

	result := t.Inverse(product)
	potentials := make([]float64, m)
	for i := 0; i < m; i++ {
		potentials[i] = real(result[i])
	}
	return potentials
}

// KernelFFT2D is KernelFFT1D's 2-D analogue for the kernel spectrum.
func KernelFFT2D(t *Transform2D, kernel [][]float64) [][]complex128 {
	size := len(kernel)
	seq := make([][]complex128, size)
	for i := range kernel {
		seq[i] = make([]complex128, size)
		for j, v := range kernel[i] {
			seq[i][j] = complex(v, 0)
		}
	}
	return t.Forward(seq)
}

// Convolve2D is Convolve1D's 2-D analogue: w is an m x m real charge
// grid, kernelFFT the precomputed (2m)x(2m) kernel spectrum.
func Convolve2D(t *Transform2D, kernelFFT [][]complex128, w [][]float64, m int) [][]float64 {
	size := 2 * m
	padded := make([][]complex128, size)
	for i := range padded {
		padded[i] = make([]complex128, size)
	}
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			padded[i][j] = complex(w[i][j], 0)
		}
	}

	wFFT := t.Forward(padded)
	product := make([][]complex128, size)
	for i := range product {
		product[i] = make([]complex128, size)
		for j := range product[i] {
			// Fresh read-then-write into a brand new slice: both the
			// real and imaginary parts of product[i][j] are derived from
			// the original wFFT[i][j] and kernelFFT[i][j] values, never
			// from a partially updated element of product itself.
			product[i][j] = wFFT[i][j] * kernelFFT[i][j]
		}
	}

	result := t.Inverse(product)
	potentials := make([][]float64, m)
	for i := 0; i < m; i++ {
		potentials[i] = make([]float64, m)
		for j := 0; j < m; j++ {
			potentials[i][j] = real(result[i][j])
		}
	}
	return potentials
}
