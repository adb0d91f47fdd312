// Package geom holds the transform maths shared by the compositor and its
// backends.
//
// Matrices use the row-vector convention: a point is the row (x, y, z, 1)
// and is transformed as p' = p * M. Composition therefore reads left to
// right in application order: A.Multiply(B) applies A first, then B. The
// translation lives in row 3.
package geom

import "github.com/chewxy/math32"

// Matrix is a 4x4 float32 transform in row-vector form.
type Matrix [4][4]float32

// Identity returns the identity matrix.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translate creates a translation matrix.
func Translate(x, y, z float32) Matrix {
	m := Identity()
	m[3][0] = x
	m[3][1] = y
	m[3][2] = z
	return m
}

// Scale creates a scaling matrix.
func Scale(x, y, z float32) Matrix {
	m := Identity()
	m[0][0] = x
	m[1][1] = y
	m[2][2] = z
	return m
}

// RotateZ creates a rotation about the Z axis (angle in radians).
// Positive angles rotate counter-clockwise in a Y-up space.
func RotateZ(angle float32) Matrix {
	sin, cos := math32.Sincos(angle)
	m := Identity()
	m[0][0] = cos
	m[0][1] = sin
	m[1][0] = -sin
	m[1][1] = cos
	return m
}

// Multiply returns m * n: the transform that applies m, then n.
func (m Matrix) Multiply(n Matrix) Matrix {
	var r Matrix
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[i][k] * n[k][j]
			}
			r[i][j] = sum
		}
	}
	return r
}

// TransformPoint applies the matrix to the point (x, y, 0, 1).
func (m Matrix) TransformPoint(x, y float32) (float32, float32) {
	return x*m[0][0] + y*m[1][0] + m[3][0],
		x*m[0][1] + y*m[1][1] + m[3][1]
}

// Transform2D builds the standard sprite transform: rotate, then scale,
// then translate to (x, y).
func Transform2D(x, y, scaleX, scaleY, rotation float32) Matrix {
	return RotateZ(rotation).
		Multiply(Scale(scaleX, scaleY, 1)).
		Multiply(Translate(x, y, 0))
}

// IsIdentity reports whether m is exactly the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// ApproxEqual reports whether every element of m and n differs by at most eps.
func (m Matrix) ApproxEqual(n Matrix, eps float32) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math32.Abs(m[i][j]-n[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// Floats returns the matrix in row-major order, ready for a uniform upload.
func (m Matrix) Floats() [16]float32 {
	var out [16]float32
	for i := 0; i < 4; i++ {
		copy(out[i*4:i*4+4], m[i][:])
	}
	return out
}
