package fftgrid

// CauchyKernel1D evaluates the squared Student-t (dof=1) Cauchy kernel
// K(r) = 1/(1+r^2)^2 on a circulant-embedded grid of size 2*m (spec.md
// §4.5 step 7): entries 0..m hold K(k*h), and entries m+1..2m-1 mirror
// them, so a circular convolution against this kernel equals the desired
// linear convolution for offsets within [-m, m]. The square is what makes
// the FFT engines' Z and gradient formulas come out as sum q and
// sum q^2 (y_i - y_j).
func CauchyKernel1D(m int, h float64) []float64 {
	size := 2 * m
	k := make([]float64, size)
	for i := 0; i <= m; i++ {
		r := float64(i) * h
		v := 1.0 / (1.0 + r*r)
		v *= v
		k[i] = v
		if i > 0 && i < m {
			k[size-i] = v
		}
	}
	return k
}

// CauchyKernel2D evaluates K(r) = 1/(1+r^2)^2 on a (2m)x(2m) circulant grid,
// symmetrized across all four quadrants per spec.md §4.5 step 7 ("In 2-D
// the kernel is symmetrized across four quadrants").
func CauchyKernel2D(m int, h float64) [][]float64 {
	size := 2 * m
	k := make([][]float64, size)
	for i := range k {
		k[i] = make([]float64, size)
	}
	for i := 0; i <= m; i++ {
		for j := 0; j <= m; j++ {
			rx := float64(i) * h
			ry := float64(j) * h
			v := 1.0 / (1.0 + rx*rx+ry*ry)
			v *= v
			k[i][j] = v
			if i > 0 && i < m {
				k[size-i][j] = v
			}
			if j > 0 && j < m {
				k[i][size-j] = v
			}
			if i > 0 && i < m && j > 0 && j < m {
				k[size-i][size-j] = v
			}
		}
	}
	return k
}
