package fit

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/geofit/estimation"
	"go.viam.com/geofit/geometry"
	"go.viam.com/geofit/logging"
)

// Point3DFit estimates the spatial point at the common intersection of a
// set of planes.
type Point3DFit struct {
	planes []geometry.Plane
}

// NewPoint3DFit validates the planes and builds the problem.
func NewPoint3DFit(planes []geometry.Plane) (*Point3DFit, error) {
	if len(planes) < 3 {
		return nil, errors.Errorf("need at least 3 planes, got %d", len(planes))
	}
	return &Point3DFit{planes: planes}, nil
}

// NewPoint3DEstimator returns a robust estimator of the intersection point
// of a plane set.
func NewPoint3DEstimator(
	planes []geometry.Plane, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[r3.Vector], error) {
	problem, err := NewPoint3DFit(planes)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[r3.Vector](problem, method, logger)
}

func (p *Point3DFit) NumSamples() int { return len(p.planes) }

func (p *Point3DFit) ResidualDoF() int { return 1 }

func (p *Point3DFit) MinimumSize() int { return 3 }

func (p *Point3DFit) WeakMinimumSize() int { return 4 }

// Fit solves the homogeneous point satisfying l^T x = 0 for every sampled
// plane. Parallel or pencil configurations are degenerate and points at
// infinity are rejected.
func (p *Point3DFit) Fit(indices []int) []r3.Vector {
	k := len(indices)
	a := mat.NewDense(k, 4, nil)
	for r, idx := range indices {
		l := p.planes[idx].Vector()
		for c := 0; c < 4; c++ {
			a.Set(r, c, l[c])
		}
	}
	x, ok := nullVector(a)
	if !ok {
		return nil
	}
	norm := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2] + x[3]*x[3])
	if math.Abs(x[3]) < 1e-12*norm {
		return nil
	}
	return []r3.Vector{{X: x[0] / x[3], Y: x[1] / x[3], Z: x[2] / x[3]}}
}

func (p *Point3DFit) Residual(pt r3.Vector, i int) float64 {
	return p.planes[i].DistanceTo(pt)
}

func (p *Point3DFit) Params(pt r3.Vector) []float64 {
	return []float64{pt.X, pt.Y, pt.Z}
}

func (p *Point3DFit) FromParams(params []float64) r3.Vector {
	return r3.Vector{X: params[0], Y: params[1], Z: params[2]}
}
