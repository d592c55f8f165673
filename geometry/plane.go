package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// Plane is the surface a*x + b*y + c*z + d = 0.
type Plane struct {
	A, B, C, D float64
}

// NewPlane builds a plane from a normal vector and a point on the plane.
func NewPlane(normal, point r3.Vector) Plane {
	return Plane{
		A: normal.X,
		B: normal.Y,
		C: normal.Z,
		D: -normal.Dot(point),
	}
}

// Normal returns the plane's (unnormalized) normal vector.
func (pl Plane) Normal() r3.Vector {
	return r3.Vector{X: pl.A, Y: pl.B, Z: pl.C}
}

// DistanceTo returns the unsigned euclidean distance from p to the plane.
// Infinite for a degenerate plane with zero normal.
func (pl Plane) DistanceTo(p r3.Vector) float64 {
	norm := pl.Normal().Norm()
	if norm == 0 {
		return math.Inf(1)
	}
	return math.Abs(pl.A*p.X+pl.B*p.Y+pl.C*p.Z+pl.D) / norm
}

// Vector returns the homogeneous coefficient vector [a b c d].
func (pl Plane) Vector() [4]float64 {
	return [4]float64{pl.A, pl.B, pl.C, pl.D}
}
