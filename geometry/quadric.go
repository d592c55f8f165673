package geometry

import "math"

// DualQuadric is a symmetric 4x4 quadric surface in dual form: planes
// tangent to the surface satisfy l^T Q l = 0 for their homogeneous
// coefficient vectors l.
type DualQuadric struct {
	Q [4][4]float64
}

// Eval returns the algebraic value l^T Q l for the plane's coefficients.
func (dq DualQuadric) Eval(pl Plane) float64 {
	l := pl.Vector()
	sum := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum += l[i] * dq.Q[i][j] * l[j]
		}
	}
	return sum
}

// AlgebraicDistance normalizes Eval by the Frobenius norm of Q and the
// squared plane coefficient norm so residuals are comparable across
// candidates.
func (dq DualQuadric) AlgebraicDistance(pl Plane) float64 {
	l := pl.Vector()
	lSq := l[0]*l[0] + l[1]*l[1] + l[2]*l[2] + l[3]*l[3]
	qNorm := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			qNorm += dq.Q[i][j] * dq.Q[i][j]
		}
	}
	qNorm = math.Sqrt(qNorm)
	if lSq == 0 || qNorm == 0 {
		return math.Inf(1)
	}
	return math.Abs(dq.Eval(pl)) / (qNorm * lSq)
}
