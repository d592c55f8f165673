package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// RotationFromVector builds a 3x3 rotation matrix from a rotation vector
// (axis scaled by angle) via the Rodrigues formula.
func RotationFromVector(v r3.Vector) [3][3]float64 {
	theta := v.Norm()
	if theta < 1e-12 {
		return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	axis := v.Mul(1 / theta)
	c, s := math.Cos(theta), math.Sin(theta)
	t := 1 - c
	x, y, z := axis.X, axis.Y, axis.Z
	return [3][3]float64{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c},
	}
}

// RotationToVector extracts the rotation vector of a 3x3 rotation matrix.
// The inverse of RotationFromVector up to the 2*pi ambiguity.
func RotationToVector(m [3][3]float64) r3.Vector {
	trace := m[0][0] + m[1][1] + m[2][2]
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)
	if theta < 1e-12 {
		return r3.Vector{}
	}
	axis := r3.Vector{
		X: m[2][1] - m[1][2],
		Y: m[0][2] - m[2][0],
		Z: m[1][0] - m[0][1],
	}
	norm := axis.Norm()
	if norm < 1e-12 {
		// Angle near pi; recover the axis from the diagonal.
		x := math.Sqrt(math.Max(0, (m[0][0]+1)/2))
		y := math.Sqrt(math.Max(0, (m[1][1]+1)/2))
		z := math.Sqrt(math.Max(0, (m[2][2]+1)/2))
		if m[0][1] < 0 {
			y = -y
		}
		if m[0][2] < 0 {
			z = -z
		}
		return r3.Vector{X: x, Y: y, Z: z}.Mul(theta)
	}
	return axis.Mul(theta / norm)
}
