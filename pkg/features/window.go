// ABOUTME: Analysis window and DCT basis
// ABOUTME: Periodic Hann window and orthonormal DCT-II matrix
package features

import "math"

// hannWindow generates a periodic Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// dctBasis returns the orthonormal DCT-II basis truncated to the first rows
// outputs, as [rows][n].
func dctBasis(rows, n int) [][]float64 {
	basis := make([][]float64, rows)
	scale0 := math.Sqrt(1.0 / float64(n))
	scale := math.Sqrt(2.0 / float64(n))
	for k := 0; k < rows; k++ {
		row := make([]float64, n)
		s := scale
		if k == 0 {
			s = scale0
		}
		for i := 0; i < n; i++ {
			row[i] = s * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n)))
		}
		basis[k] = row
	}
	return basis
}
