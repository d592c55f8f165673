package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Transform2 is a 3x3 homogeneous planar transformation. Affine
// transformations keep the last row at [0 0 1]; projective ones use it
// freely.
type Transform2 struct {
	M [3][3]float64
}

// Identity2 returns the planar identity transformation.
func Identity2() Transform2 {
	return Transform2{M: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// NewSimilarity2 builds a planar similarity from scale, rotation angle and
// translation. A scale of 1 yields a Euclidean transformation.
func NewSimilarity2(scale, theta, tx, ty float64) Transform2 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Transform2{M: [3][3]float64{
		{scale * c, -scale * s, tx},
		{scale * s, scale * c, ty},
		{0, 0, 1},
	}}
}

// Apply maps p through the transformation, performing the homogeneous
// division. Points mapped onto the line at infinity come back infinite.
func (t Transform2) Apply(p r2.Point) r2.Point {
	w := t.M[2][0]*p.X + t.M[2][1]*p.Y + t.M[2][2]
	if w == 0 {
		return r2.Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return r2.Point{
		X: (t.M[0][0]*p.X + t.M[0][1]*p.Y + t.M[0][2]) / w,
		Y: (t.M[1][0]*p.X + t.M[1][1]*p.Y + t.M[1][2]) / w,
	}
}

// Inverse returns the inverse transformation, or false when t is singular.
func (t Transform2) Inverse() (Transform2, bool) {
	m := t.M
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math.Abs(det) < 1e-15 {
		return Transform2{}, false
	}
	var inv Transform2
	inv.M[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	inv.M[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	inv.M[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	inv.M[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	inv.M[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	inv.M[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	inv.M[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	inv.M[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	inv.M[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return inv, true
}

// TransferError is the distance between q and p mapped through t.
func (t Transform2) TransferError(p, q r2.Point) float64 {
	return t.Apply(p).Sub(q).Norm()
}

// SymmetricTransferError averages the forward and backward transfer
// distances so thresholds stay comparable in both images. Falls back to the
// forward distance when t is singular.
func (t Transform2) SymmetricTransferError(p, q r2.Point) float64 {
	forward := t.TransferError(p, q)
	inv, ok := t.Inverse()
	if !ok {
		return forward
	}
	return 0.5 * (forward + inv.TransferError(q, p))
}
