package fit

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/geofit/estimation"
	"go.viam.com/geofit/geometry"
	"go.viam.com/geofit/logging"
)

// DualQuadricFit estimates a dual quadric surface from tangent planes.
type DualQuadricFit struct {
	planes []geometry.Plane
}

// NewDualQuadricFit validates the tangent planes and builds the problem.
func NewDualQuadricFit(planes []geometry.Plane) (*DualQuadricFit, error) {
	if len(planes) < 9 {
		return nil, errors.Errorf("need at least 9 planes, got %d", len(planes))
	}
	return &DualQuadricFit{planes: planes}, nil
}

// NewDualQuadricEstimator returns a robust estimator of a dual quadric.
func NewDualQuadricEstimator(
	planes []geometry.Plane, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.DualQuadric], error) {
	problem, err := NewDualQuadricFit(planes)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.DualQuadric](problem, method, logger)
}

func (p *DualQuadricFit) NumSamples() int { return len(p.planes) }

func (p *DualQuadricFit) ResidualDoF() int { return 1 }

func (p *DualQuadricFit) MinimumSize() int { return 9 }

func (p *DualQuadricFit) WeakMinimumSize() int { return 10 }

// Fit solves the ten independent entries of the symmetric quadric matrix as
// the null vector of the k x 10 design matrix built from l^T Q l = 0.
func (p *DualQuadricFit) Fit(indices []int) []geometry.DualQuadric {
	k := len(indices)
	a := mat.NewDense(k, 10, nil)
	for r, idx := range indices {
		l := p.planes[idx].Vector()
		a.Set(r, 0, l[0]*l[0])
		a.Set(r, 1, 2*l[0]*l[1])
		a.Set(r, 2, 2*l[0]*l[2])
		a.Set(r, 3, 2*l[0]*l[3])
		a.Set(r, 4, l[1]*l[1])
		a.Set(r, 5, 2*l[1]*l[2])
		a.Set(r, 6, 2*l[1]*l[3])
		a.Set(r, 7, l[2]*l[2])
		a.Set(r, 8, 2*l[2]*l[3])
		a.Set(r, 9, l[3]*l[3])
	}
	q, ok := nullVector(a)
	if !ok {
		return nil
	}
	return []geometry.DualQuadric{quadricFromParams(q)}
}

func (p *DualQuadricFit) Residual(dq geometry.DualQuadric, i int) float64 {
	return dq.AlgebraicDistance(p.planes[i])
}

func (p *DualQuadricFit) Params(dq geometry.DualQuadric) []float64 {
	return []float64{
		dq.Q[0][0], dq.Q[0][1], dq.Q[0][2], dq.Q[0][3],
		dq.Q[1][1], dq.Q[1][2], dq.Q[1][3],
		dq.Q[2][2], dq.Q[2][3],
		dq.Q[3][3],
	}
}

func (p *DualQuadricFit) FromParams(params []float64) geometry.DualQuadric {
	return quadricFromParams(params)
}

func quadricFromParams(q []float64) geometry.DualQuadric {
	var dq geometry.DualQuadric
	dq.Q[0] = [4]float64{q[0], q[1], q[2], q[3]}
	dq.Q[1] = [4]float64{q[1], q[4], q[5], q[6]}
	dq.Q[2] = [4]float64{q[2], q[5], q[7], q[8]}
	dq.Q[3] = [4]float64{q[3], q[6], q[8], q[9]}
	return dq
}
