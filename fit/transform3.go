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

// pointPairs3 holds the spatial correspondences shared by the 3D
// transformation problems.
type pointPairs3 struct {
	input  []r3.Vector
	output []r3.Vector
}

func newPointPairs3(input, output []r3.Vector, minimum int) (pointPairs3, error) {
	if len(input) != len(output) {
		return pointPairs3{}, errors.Errorf("got %d input points for %d output points", len(input), len(output))
	}
	if len(input) < minimum {
		return pointPairs3{}, errors.Errorf("need at least %d correspondences, got %d", minimum, len(input))
	}
	return pointPairs3{input: input, output: output}, nil
}

func (p pointPairs3) NumSamples() int { return len(p.input) }

func (p pointPairs3) ResidualDoF() int { return 3 }

// Euclidean3D estimates a spatial rotation plus translation from point
// correspondences.
type Euclidean3D struct {
	pointPairs3
}

// NewEuclidean3D validates the correspondences and builds the problem.
func NewEuclidean3D(input, output []r3.Vector) (*Euclidean3D, error) {
	pairs, err := newPointPairs3(input, output, 3)
	if err != nil {
		return nil, err
	}
	return &Euclidean3D{pairs}, nil
}

// NewEuclidean3DEstimator returns a robust estimator of a spatial euclidean
// transformation.
func NewEuclidean3DEstimator(
	input, output []r3.Vector, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform3], error) {
	problem, err := NewEuclidean3D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform3](problem, method, logger)
}

func (p *Euclidean3D) MinimumSize() int { return 3 }

func (p *Euclidean3D) WeakMinimumSize() int { return 4 }

func (p *Euclidean3D) Fit(indices []int) []geometry.Transform3 {
	rotation, _, translation, ok := alignPoints(p.input, p.output, indices, false)
	if !ok {
		return nil
	}
	return []geometry.Transform3{geometry.NewRigid3(rotation, translation)}
}

func (p *Euclidean3D) Residual(t geometry.Transform3, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Euclidean3D) Params(t geometry.Transform3) []float64 {
	rv := geometry.RotationToVector(upperRotation(t, 1))
	return []float64{rv.X, rv.Y, rv.Z, t.M[0][3], t.M[1][3], t.M[2][3]}
}

func (p *Euclidean3D) FromParams(params []float64) geometry.Transform3 {
	rotation := geometry.RotationFromVector(r3.Vector{X: params[0], Y: params[1], Z: params[2]})
	return geometry.NewRigid3(rotation, r3.Vector{X: params[3], Y: params[4], Z: params[5]})
}

// Metric3D estimates a spatial similarity (scale, rotation, translation)
// from point correspondences.
type Metric3D struct {
	pointPairs3
}

// NewMetric3D validates the correspondences and builds the problem.
func NewMetric3D(input, output []r3.Vector) (*Metric3D, error) {
	pairs, err := newPointPairs3(input, output, 3)
	if err != nil {
		return nil, err
	}
	return &Metric3D{pairs}, nil
}

// NewMetric3DEstimator returns a robust estimator of a spatial metric
// (similarity) transformation.
func NewMetric3DEstimator(
	input, output []r3.Vector, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform3], error) {
	problem, err := NewMetric3D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform3](problem, method, logger)
}

func (p *Metric3D) MinimumSize() int { return 3 }

func (p *Metric3D) WeakMinimumSize() int { return 4 }

func (p *Metric3D) Fit(indices []int) []geometry.Transform3 {
	rotation, scale, translation, ok := alignPoints(p.input, p.output, indices, true)
	if !ok {
		return nil
	}
	return []geometry.Transform3{scaledRigid3(scale, rotation, translation)}
}

func (p *Metric3D) Residual(t geometry.Transform3, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Metric3D) Params(t geometry.Transform3) []float64 {
	scale, rotation := splitScaledRotation(t)
	rv := geometry.RotationToVector(rotation)
	return []float64{scale, rv.X, rv.Y, rv.Z, t.M[0][3], t.M[1][3], t.M[2][3]}
}

func (p *Metric3D) FromParams(params []float64) geometry.Transform3 {
	rotation := geometry.RotationFromVector(r3.Vector{X: params[1], Y: params[2], Z: params[3]})
	translation := r3.Vector{X: params[4], Y: params[5], Z: params[6]}
	return scaledRigid3(params[0], rotation, translation)
}

func scaledRigid3(scale float64, rotation [3][3]float64, translation r3.Vector) geometry.Transform3 {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rotation[i][j] *= scale
		}
	}
	return geometry.NewRigid3(rotation, translation)
}

// upperRotation extracts the upper 3x3 block divided by scale.
func upperRotation(t geometry.Transform3, scale float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = t.M[i][j] / scale
		}
	}
	return out
}

// splitScaledRotation recovers the scale of an s*R upper block from its
// determinant and returns the pure rotation.
func splitScaledRotation(t geometry.Transform3) (float64, [3][3]float64) {
	m := t.M
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	scale := math.Cbrt(det)
	if scale == 0 {
		scale = 1
	}
	return scale, upperRotation(t, scale)
}

// alignPoints solves the (optionally scaled) rigid alignment of the
// selected pairs by SVD of the cross covariance, the Kabsch/Umeyama closed
// form. Colinear subsets are degenerate and return false.
func alignPoints(
	input, output []r3.Vector, indices []int, withScale bool,
) (rotation [3][3]float64, scale float64, translation r3.Vector, ok bool) {
	k := float64(len(indices))
	var cp, cq r3.Vector
	for _, idx := range indices {
		cp = cp.Add(input[idx])
		cq = cq.Add(output[idx])
	}
	cp = cp.Mul(1 / k)
	cq = cq.Mul(1 / k)

	h := mat.NewDense(3, 3, nil)
	varIn := 0.0
	for _, idx := range indices {
		dp := input[idx].Sub(cp)
		dq := output[idx].Sub(cq)
		varIn += dp.Norm2()
		h.Set(0, 0, h.At(0, 0)+dp.X*dq.X)
		h.Set(0, 1, h.At(0, 1)+dp.X*dq.Y)
		h.Set(0, 2, h.At(0, 2)+dp.X*dq.Z)
		h.Set(1, 0, h.At(1, 0)+dp.Y*dq.X)
		h.Set(1, 1, h.At(1, 1)+dp.Y*dq.Y)
		h.Set(1, 2, h.At(1, 2)+dp.Y*dq.Z)
		h.Set(2, 0, h.At(2, 0)+dp.Z*dq.X)
		h.Set(2, 1, h.At(2, 1)+dp.Z*dq.Y)
		h.Set(2, 2, h.At(2, 2)+dp.Z*dq.Z)
	}

	var svd mat.SVD
	if !svd.Factorize(h, mat.SVDFull) {
		return rotation, 0, translation, false
	}
	values := svd.Values(nil)
	// Colinear points leave the second singular value at zero.
	if values[1] <= rankTolerance*math.Max(values[0], 1) || varIn == 0 {
		return rotation, 0, translation, false
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var r mat.Dense
	r.Mul(&v, u.T())
	dSign := 1.0
	if mat.Det(&r) < 0 {
		dSign = -1
		for i := 0; i < 3; i++ {
			v.Set(i, 2, -v.At(i, 2))
		}
		r.Mul(&v, u.T())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rotation[i][j] = r.At(i, j)
		}
	}

	scale = 1.0
	if withScale {
		scale = (values[0] + values[1] + dSign*values[2]) / varIn
		if scale <= 0 {
			return rotation, 0, translation, false
		}
	}
	rp := r3.Vector{
		X: rotation[0][0]*cp.X + rotation[0][1]*cp.Y + rotation[0][2]*cp.Z,
		Y: rotation[1][0]*cp.X + rotation[1][1]*cp.Y + rotation[1][2]*cp.Z,
		Z: rotation[2][0]*cp.X + rotation[2][1]*cp.Y + rotation[2][2]*cp.Z,
	}
	translation = cq.Sub(rp.Mul(scale))
	return rotation, scale, translation, true
}

// Affine3D estimates a spatial affine transformation from point
// correspondences.
type Affine3D struct {
	pointPairs3
}

// NewAffine3D validates the correspondences and builds the problem.
func NewAffine3D(input, output []r3.Vector) (*Affine3D, error) {
	pairs, err := newPointPairs3(input, output, 4)
	if err != nil {
		return nil, err
	}
	return &Affine3D{pairs}, nil
}

// NewAffine3DEstimator returns a robust estimator of a spatial affine
// transformation.
func NewAffine3DEstimator(
	input, output []r3.Vector, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform3], error) {
	problem, err := NewAffine3D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform3](problem, method, logger)
}

func (p *Affine3D) MinimumSize() int { return 4 }

func (p *Affine3D) WeakMinimumSize() int { return 5 }

// Fit solves the twelve affine unknowns as a linear least-squares system.
// Coplanar subsets make the system rank deficient and yield no candidate.
func (p *Affine3D) Fit(indices []int) []geometry.Transform3 {
	k := len(indices)
	a := mat.NewDense(3*k, 12, nil)
	b := mat.NewVecDense(3*k, nil)
	for r, idx := range indices {
		in, out := p.input[idx], p.output[idx]
		for c := 0; c < 3; c++ {
			row := 3*r + c
			a.Set(row, 4*c, in.X)
			a.Set(row, 4*c+1, in.Y)
			a.Set(row, 4*c+2, in.Z)
			a.Set(row, 4*c+3, 1)
		}
		b.SetVec(3*r, out.X)
		b.SetVec(3*r+1, out.Y)
		b.SetVec(3*r+2, out.Z)
	}
	x, ok := solveLS(a, b)
	if !ok {
		return nil
	}
	return []geometry.Transform3{affine3FromParams(x)}
}

func (p *Affine3D) Residual(t geometry.Transform3, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Affine3D) Params(t geometry.Transform3) []float64 {
	params := make([]float64, 0, 12)
	for i := 0; i < 3; i++ {
		params = append(params, t.M[i][0], t.M[i][1], t.M[i][2], t.M[i][3])
	}
	return params
}

func (p *Affine3D) FromParams(params []float64) geometry.Transform3 {
	return affine3FromParams(params)
}

func affine3FromParams(x []float64) geometry.Transform3 {
	t := geometry.Identity3()
	for i := 0; i < 3; i++ {
		t.M[i] = [4]float64{x[4*i], x[4*i+1], x[4*i+2], x[4*i+3]}
	}
	return t
}

// Projective3D estimates a spatial projective transformation from point
// correspondences.
type Projective3D struct {
	pointPairs3
}

// NewProjective3D validates the correspondences and builds the problem.
func NewProjective3D(input, output []r3.Vector) (*Projective3D, error) {
	pairs, err := newPointPairs3(input, output, 5)
	if err != nil {
		return nil, err
	}
	return &Projective3D{pairs}, nil
}

// NewProjective3DEstimator returns a robust estimator of a spatial
// projective transformation.
func NewProjective3DEstimator(
	input, output []r3.Vector, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform3], error) {
	problem, err := NewProjective3D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform3](problem, method, logger)
}

func (p *Projective3D) MinimumSize() int { return 5 }

func (p *Projective3D) WeakMinimumSize() int { return 6 }

// Fit solves the sixteen homogeneous unknowns by direct linear
// transformation: each correspondence contributes three equations
// eliminating the projective scale.
func (p *Projective3D) Fit(indices []int) []geometry.Transform3 {
	k := len(indices)
	a := mat.NewDense(3*k, 16, nil)
	for r, idx := range indices {
		in, out := p.input[idx], p.output[idx]
		coords := [3]float64{out.X, out.Y, out.Z}
		for c := 0; c < 3; c++ {
			row := 3*r + c
			a.Set(row, 4*c, in.X)
			a.Set(row, 4*c+1, in.Y)
			a.Set(row, 4*c+2, in.Z)
			a.Set(row, 4*c+3, 1)
			a.Set(row, 12, -coords[c]*in.X)
			a.Set(row, 13, -coords[c]*in.Y)
			a.Set(row, 14, -coords[c]*in.Z)
			a.Set(row, 15, -coords[c])
		}
	}
	h, ok := nullVector(a)
	if !ok {
		return nil
	}
	return []geometry.Transform3{projective3FromParams(h)}
}

func (p *Projective3D) Residual(t geometry.Transform3, i int) float64 {
	return t.SymmetricTransferError(p.input[i], p.output[i])
}

func (p *Projective3D) Params(t geometry.Transform3) []float64 {
	params := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		params = append(params, t.M[i][0], t.M[i][1], t.M[i][2], t.M[i][3])
	}
	return params
}

func (p *Projective3D) FromParams(params []float64) geometry.Transform3 {
	return projective3FromParams(params)
}

// projective3FromParams rebuilds the transformation at unit coefficient
// norm to remove the scale ambiguity of the parameterization.
func projective3FromParams(h []float64) geometry.Transform3 {
	norm := 0.0
	for _, v := range h {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	var t geometry.Transform3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			t.M[i][j] = h[4*i+j] / norm
		}
	}
	return t
}
