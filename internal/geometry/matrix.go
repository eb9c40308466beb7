package geometry

import "math"

// Matrix2D is an affine transform in Canvas2D setTransform order
// [a, b, c, d, e, f]: x' = a·x + c·y + e, y' = b·x + d·y + f.
type Matrix2D [6]float64

func Identity() Matrix2D { return Matrix2D{1, 0, 0, 1, 0, 0} }

func Translate(tx, ty float64) Matrix2D { return Matrix2D{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix2D { return Matrix2D{sx, 0, 0, sy, 0, 0} }

// Rotate turns by radians, clockwise on a y-down canvas.
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Multiply composes m after n: (m.Multiply(n)).Apply(p) == m.Apply(n.Apply(p)).
func (m Matrix2D) Multiply(n Matrix2D) Matrix2D {
	a, b, c, d, e, f := m[0], m[1], m[2], m[3], m[4], m[5]
	return Matrix2D{
		a*n[0] + c*n[1],
		b*n[0] + d*n[1],
		a*n[2] + c*n[3],
		b*n[2] + d*n[3],
		a*n[4] + c*n[5] + e,
		b*n[4] + d*n[5] + f,
	}
}

func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ToSlice is the JSON form carried on draw commands.
func (m Matrix2D) ToSlice() []float64 { return m[:] }
