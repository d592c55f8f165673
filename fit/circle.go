package fit

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/geofit/estimation"
	"go.viam.com/geofit/geometry"
	"go.viam.com/geofit/logging"
)

// CircleFit estimates a planar circle from sample points.
type CircleFit struct {
	points []r2.Point
}

// NewCircleFit validates the sample points and builds the problem.
func NewCircleFit(points []r2.Point) (*CircleFit, error) {
	if len(points) < 3 {
		return nil, errors.Errorf("need at least 3 points, got %d", len(points))
	}
	return &CircleFit{points: points}, nil
}

// NewCircleEstimator returns a robust estimator of a planar circle.
func NewCircleEstimator(
	points []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Circle], error) {
	problem, err := NewCircleFit(points)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Circle](problem, method, logger)
}

func (p *CircleFit) NumSamples() int { return len(p.points) }

func (p *CircleFit) ResidualDoF() int { return 1 }

func (p *CircleFit) MinimumSize() int { return 3 }

func (p *CircleFit) WeakMinimumSize() int { return 4 }

// Fit computes the circumcircle for three points and a Kasa algebraic
// least-squares fit for larger subsets.
func (p *CircleFit) Fit(indices []int) []geometry.Circle {
	if len(indices) == 3 {
		circle, ok := geometry.CircleThrough(
			p.points[indices[0]], p.points[indices[1]], p.points[indices[2]])
		if !ok {
			return nil
		}
		return []geometry.Circle{circle}
	}

	// Kasa fit: x^2 + y^2 = 2*cx*x + 2*cy*y + c.
	k := len(indices)
	a := mat.NewDense(k, 3, nil)
	b := mat.NewVecDense(k, nil)
	for r, idx := range indices {
		pt := p.points[idx]
		a.Set(r, 0, 2*pt.X)
		a.Set(r, 1, 2*pt.Y)
		a.Set(r, 2, 1)
		b.SetVec(r, pt.X*pt.X+pt.Y*pt.Y)
	}
	x, ok := solveLS(a, b)
	if !ok {
		return nil
	}
	rSq := x[2] + x[0]*x[0] + x[1]*x[1]
	if rSq <= 0 {
		return nil
	}
	return []geometry.Circle{{
		Center: r2.Point{X: x[0], Y: x[1]},
		Radius: math.Sqrt(rSq),
	}}
}

func (p *CircleFit) Residual(c geometry.Circle, i int) float64 {
	return c.DistanceTo(p.points[i])
}

func (p *CircleFit) Params(c geometry.Circle) []float64 {
	return []float64{c.Center.X, c.Center.Y, c.Radius}
}

func (p *CircleFit) FromParams(params []float64) geometry.Circle {
	return geometry.Circle{
		Center: r2.Point{X: params[0], Y: params[1]},
		Radius: params[2],
	}
}
