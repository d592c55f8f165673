package fit

import (
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/geofit/estimation"
	"go.viam.com/geofit/geometry"
	"go.viam.com/geofit/logging"
)

// ConicFit estimates a planar conic from sample points.
type ConicFit struct {
	points []r2.Point
}

// NewConicFit validates the sample points and builds the problem.
func NewConicFit(points []r2.Point) (*ConicFit, error) {
	if len(points) < 5 {
		return nil, errors.Errorf("need at least 5 points, got %d", len(points))
	}
	return &ConicFit{points: points}, nil
}

// NewConicEstimator returns a robust estimator of a planar conic.
func NewConicEstimator(
	points []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Conic], error) {
	problem, err := NewConicFit(points)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Conic](problem, method, logger)
}

func (p *ConicFit) NumSamples() int { return len(p.points) }

func (p *ConicFit) ResidualDoF() int { return 1 }

func (p *ConicFit) MinimumSize() int { return 5 }

func (p *ConicFit) WeakMinimumSize() int { return 6 }

// Fit solves the six homogeneous conic coefficients as the null vector of
// the k x 6 design matrix.
func (p *ConicFit) Fit(indices []int) []geometry.Conic {
	k := len(indices)
	a := mat.NewDense(k, 6, nil)
	for r, idx := range indices {
		pt := p.points[idx]
		a.Set(r, 0, pt.X*pt.X)
		a.Set(r, 1, pt.X*pt.Y)
		a.Set(r, 2, pt.Y*pt.Y)
		a.Set(r, 3, pt.X)
		a.Set(r, 4, pt.Y)
		a.Set(r, 5, 1)
	}
	h, ok := nullVector(a)
	if !ok {
		return nil
	}
	conic, ok := geometry.Conic{
		A: h[0], B: h[1], C: h[2], D: h[3], E: h[4], F: h[5],
	}.Normalize()
	if !ok {
		return nil
	}
	return []geometry.Conic{conic}
}

func (p *ConicFit) Residual(c geometry.Conic, i int) float64 {
	return c.SampsonDistance(p.points[i])
}

func (p *ConicFit) Params(c geometry.Conic) []float64 {
	return []float64{c.A, c.B, c.C, c.D, c.E, c.F}
}

func (p *ConicFit) FromParams(params []float64) geometry.Conic {
	c := geometry.Conic{
		A: params[0], B: params[1], C: params[2],
		D: params[3], E: params[4], F: params[5],
	}
	if normalized, ok := c.Normalize(); ok {
		return normalized
	}
	return c
}
