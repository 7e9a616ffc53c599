package render

import "math"

// Matrix is a 2D affine transformation in cairo_matrix_t layout:
//
//	| XX  XY |   | x |   | X0 |
//	| YX  YY | * | y | + | Y0 |
//
// The wire order (a, b, c, d, e, f) maps to XX, YX, XY, YY, X0, Y0.
type Matrix struct {
	XX, XY float64
	YX, YY float64
	X0, Y0 float64
}

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{XX: 1, YY: 1}
}

// MatrixFromWire builds a matrix from the six wire components.
func MatrixFromWire(a, b, c, d, e, f float64) Matrix {
	return Matrix{XX: a, YX: b, XY: c, YY: d, X0: e, Y0: f}
}

// Wire returns the matrix as (a, b, c, d, e, f).
func (m Matrix) Wire() [6]float64 {
	return [6]float64{m.XX, m.YX, m.XY, m.YY, m.X0, m.Y0}
}

// Translated returns m with a translation applied in user space.
// This is equivalent to cairo_matrix_translate.
func (m Matrix) Translated(tx, ty float64) Matrix {
	m.X0 += m.XX*tx + m.XY*ty
	m.Y0 += m.YX*tx + m.YY*ty
	return m
}

// Scaled returns m with a scale applied in user space.
// This is equivalent to cairo_matrix_scale.
func (m Matrix) Scaled(sx, sy float64) Matrix {
	m.XX *= sx
	m.XY *= sy
	m.YX *= sx
	m.YY *= sy
	return m
}

// Rotated returns m with a rotation applied in user space.
// This is equivalent to cairo_matrix_rotate.
func (m Matrix) Rotated(angle float64) Matrix {
	s, c := math.Sincos(angle)
	return Matrix{
		XX: m.XX*c + m.XY*s,
		XY: -m.XX*s + m.XY*c,
		YX: m.YX*c + m.YY*s,
		YY: -m.YX*s + m.YY*c,
		X0: m.X0,
		Y0: m.Y0,
	}
}

// Mul returns the matrix that applies inner first and then m, i.e. the
// new current transform after cairo_transform(m, inner).
func (m Matrix) Mul(inner Matrix) Matrix {
	return Matrix{
		XX: m.XX*inner.XX + m.XY*inner.YX,
		XY: m.XX*inner.XY + m.XY*inner.YY,
		YX: m.YX*inner.XX + m.YY*inner.YX,
		YY: m.YX*inner.XY + m.YY*inner.YY,
		X0: m.XX*inner.X0 + m.XY*inner.Y0 + m.X0,
		Y0: m.YX*inner.X0 + m.YY*inner.Y0 + m.Y0,
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m.XX*x + m.XY*y + m.X0, m.YX*x + m.YY*y + m.Y0
}

// ApplyDistance transforms a vector, ignoring translation.
func (m Matrix) ApplyDistance(dx, dy float64) (float64, float64) {
	return m.XX*dx + m.XY*dy, m.YX*dx + m.YY*dy
}

// Det returns the determinant of the linear part.
func (m Matrix) Det() float64 {
	return m.XX*m.YY - m.XY*m.YX
}

// Invert returns the inverse of m. ok is false when m is singular.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m.Det()
	if det == 0 || math.IsInf(det, 0) || math.IsNaN(det) {
		return Matrix{}, false
	}
	id := 1 / det
	return Matrix{
		XX: m.YY * id,
		XY: -m.XY * id,
		YX: -m.YX * id,
		YY: m.XX * id,
		X0: (m.XY*m.Y0 - m.YY*m.X0) * id,
		Y0: (m.YX*m.X0 - m.XX*m.Y0) * id,
	}, true
}

// ScaleFactor returns the uniform scale the matrix applies to lengths,
// sqrt(|det|). Stroke widths and font sizes use it.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Det()))
}
