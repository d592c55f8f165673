package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Conic is the planar curve a*x^2 + b*x*y + c*y^2 + d*x + e*y + f = 0.
type Conic struct {
	A, B, C, D, E, F float64
}

// Eval returns the algebraic value of the conic equation at p.
func (c Conic) Eval(p r2.Point) float64 {
	return c.A*p.X*p.X + c.B*p.X*p.Y + c.C*p.Y*p.Y + c.D*p.X + c.E*p.Y + c.F
}

// SampsonDistance is the first-order geometric distance from p to the conic:
// the algebraic value normalized by the gradient magnitude. Comparable
// across conics of different coefficient scales.
func (c Conic) SampsonDistance(p r2.Point) float64 {
	gx := 2*c.A*p.X + c.B*p.Y + c.D
	gy := c.B*p.X + 2*c.C*p.Y + c.E
	grad := math.Hypot(gx, gy)
	value := math.Abs(c.Eval(p))
	if grad == 0 {
		return value
	}
	return value / grad
}

// Normalize scales the coefficients to unit norm, fixing the sign of the
// first non-zero coefficient positive. Returns false for the zero conic.
func (c Conic) Normalize() (Conic, bool) {
	coeffs := [6]float64{c.A, c.B, c.C, c.D, c.E, c.F}
	norm := 0.0
	for _, v := range coeffs {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm < 1e-15 {
		return Conic{}, false
	}
	for _, v := range coeffs {
		if v != 0 {
			if v < 0 {
				norm = -norm
			}
			break
		}
	}
	return Conic{
		A: c.A / norm, B: c.B / norm, C: c.C / norm,
		D: c.D / norm, E: c.E / norm, F: c.F / norm,
	}, true
}
