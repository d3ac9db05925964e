// ABOUTME: Feature matrix type
// ABOUTME: Row-major coefficient by frame storage with accessors
package features

// Matrix is a row-major Coefficients × Frames feature matrix.
type Matrix struct {
	Coefficients int
	Frames       int
	Data         []float64
}

// NewMatrix allocates a zeroed matrix.
func NewMatrix(coefficients, frames int) *Matrix {
	return &Matrix{
		Coefficients: coefficients,
		Frames:       frames,
		Data:         make([]float64, coefficients*frames),
	}
}

// At returns the value of coefficient c in frame f.
func (m *Matrix) At(c, f int) float64 {
	return m.Data[c*m.Frames+f]
}

// Set stores v as coefficient c of frame f.
func (m *Matrix) Set(c, f int, v float64) {
	m.Data[c*m.Frames+f] = v
}

// Row returns the trajectory of coefficient c across all frames.
// The slice aliases the matrix storage.
func (m *Matrix) Row(c int) []float64 {
	return m.Data[c*m.Frames : (c+1)*m.Frames]
}

// Values returns every entry flattened. The slice aliases the matrix storage.
func (m *Matrix) Values() []float64 {
	return m.Data
}
