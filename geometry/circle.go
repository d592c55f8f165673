package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Circle is a planar circle.
type Circle struct {
	Center r2.Point
	Radius float64
}

// DistanceTo returns the unsigned distance from p to the circle boundary.
func (c Circle) DistanceTo(p r2.Point) float64 {
	return math.Abs(p.Sub(c.Center).Norm() - c.Radius)
}

// CircleThrough returns the circle through three points, or false when they
// are (nearly) colinear.
func CircleThrough(p1, p2, p3 r2.Point) (Circle, bool) {
	// Perpendicular bisector intersection as a 2x2 linear system.
	ax, ay := p2.X-p1.X, p2.Y-p1.Y
	bx, by := p3.X-p1.X, p3.Y-p1.Y
	det := 2 * (ax*by - ay*bx)
	if math.Abs(det) < 1e-12 {
		return Circle{}, false
	}
	aSq := ax*ax + ay*ay
	bSq := bx*bx + by*by
	cx := (by*aSq - ay*bSq) / det
	cy := (ax*bSq - bx*aSq) / det
	center := r2.Point{X: p1.X + cx, Y: p1.Y + cy}
	return Circle{Center: center, Radius: math.Hypot(cx, cy)}, true
}
