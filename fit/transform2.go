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

// pointPairs2 holds the planar correspondences shared by the 2D
// transformation problems. Problems keep references to the caller's slices,
// never copies.
type pointPairs2 struct {
	input  []r2.Point
	output []r2.Point
}

func newPointPairs2(input, output []r2.Point, minimum int) (pointPairs2, error) {
	if len(input) != len(output) {
		return pointPairs2{}, errors.Errorf("got %d input points for %d output points", len(input), len(output))
	}
	if len(input) < minimum {
		return pointPairs2{}, errors.Errorf("need at least %d correspondences, got %d", minimum, len(input))
	}
	return pointPairs2{input: input, output: output}, nil
}

func (p pointPairs2) NumSamples() int { return len(p.input) }

func (p pointPairs2) ResidualDoF() int { return 2 }

// Euclidean2D estimates a planar rotation plus translation from point
// correspondences.
type Euclidean2D struct {
	pointPairs2
}

// NewEuclidean2D validates the correspondences and builds the problem.
func NewEuclidean2D(input, output []r2.Point) (*Euclidean2D, error) {
	pairs, err := newPointPairs2(input, output, 2)
	if err != nil {
		return nil, err
	}
	return &Euclidean2D{pairs}, nil
}

// NewEuclidean2DEstimator returns a robust estimator of a planar euclidean
// transformation.
func NewEuclidean2DEstimator(
	input, output []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform2], error) {
	problem, err := NewEuclidean2D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform2](problem, method, logger)
}

func (p *Euclidean2D) MinimumSize() int { return 2 }

func (p *Euclidean2D) Fit(indices []int) []geometry.Transform2 {
	i, j := indices[0], indices[1]
	dp := p.input[j].Sub(p.input[i])
	dq := p.output[j].Sub(p.output[i])
	if dp.Norm() < 1e-12 {
		return nil
	}
	theta := math.Atan2(dq.Y, dq.X) - math.Atan2(dp.Y, dp.X)
	return []geometry.Transform2{similarityThrough(1, theta, p.input[i], p.output[i])}
}

func (p *Euclidean2D) Residual(t geometry.Transform2, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Euclidean2D) Params(t geometry.Transform2) []float64 {
	return []float64{math.Atan2(t.M[1][0], t.M[0][0]), t.M[0][2], t.M[1][2]}
}

func (p *Euclidean2D) FromParams(params []float64) geometry.Transform2 {
	return geometry.NewSimilarity2(1, params[0], params[1], params[2])
}

// Metric2D estimates a planar similarity (scale, rotation, translation)
// from point correspondences.
type Metric2D struct {
	pointPairs2
}

// NewMetric2D validates the correspondences and builds the problem.
func NewMetric2D(input, output []r2.Point) (*Metric2D, error) {
	pairs, err := newPointPairs2(input, output, 2)
	if err != nil {
		return nil, err
	}
	return &Metric2D{pairs}, nil
}

// NewMetric2DEstimator returns a robust estimator of a planar metric
// (similarity) transformation.
func NewMetric2DEstimator(
	input, output []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform2], error) {
	problem, err := NewMetric2D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform2](problem, method, logger)
}

func (p *Metric2D) MinimumSize() int { return 2 }

func (p *Metric2D) Fit(indices []int) []geometry.Transform2 {
	i, j := indices[0], indices[1]
	dp := p.input[j].Sub(p.input[i])
	dq := p.output[j].Sub(p.output[i])
	if dp.Norm() < 1e-12 {
		return nil
	}
	scale := dq.Norm() / dp.Norm()
	if scale < 1e-12 {
		return nil
	}
	theta := math.Atan2(dq.Y, dq.X) - math.Atan2(dp.Y, dp.X)
	return []geometry.Transform2{similarityThrough(scale, theta, p.input[i], p.output[i])}
}

func (p *Metric2D) Residual(t geometry.Transform2, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Metric2D) Params(t geometry.Transform2) []float64 {
	scale := math.Hypot(t.M[0][0], t.M[1][0])
	return []float64{scale, math.Atan2(t.M[1][0], t.M[0][0]), t.M[0][2], t.M[1][2]}
}

func (p *Metric2D) FromParams(params []float64) geometry.Transform2 {
	return geometry.NewSimilarity2(params[0], params[1], params[2], params[3])
}

// similarityThrough builds the similarity with the given scale and angle
// mapping in exactly onto out.
func similarityThrough(scale, theta float64, in, out r2.Point) geometry.Transform2 {
	c, s := math.Cos(theta), math.Sin(theta)
	tx := out.X - scale*(c*in.X-s*in.Y)
	ty := out.Y - scale*(s*in.X+c*in.Y)
	return geometry.NewSimilarity2(scale, theta, tx, ty)
}

// Affine2D estimates a planar affine transformation from point
// correspondences.
type Affine2D struct {
	pointPairs2
}

// NewAffine2D validates the correspondences and builds the problem.
func NewAffine2D(input, output []r2.Point) (*Affine2D, error) {
	pairs, err := newPointPairs2(input, output, 3)
	if err != nil {
		return nil, err
	}
	return &Affine2D{pairs}, nil
}

// NewAffine2DEstimator returns a robust estimator of a planar affine
// transformation.
func NewAffine2DEstimator(
	input, output []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform2], error) {
	problem, err := NewAffine2D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform2](problem, method, logger)
}

func (p *Affine2D) MinimumSize() int { return 3 }

func (p *Affine2D) WeakMinimumSize() int { return 4 }

// Fit solves the six affine unknowns as a linear least-squares system.
// Colinear subsets make the system rank deficient and yield no candidate.
func (p *Affine2D) Fit(indices []int) []geometry.Transform2 {
	k := len(indices)
	a := mat.NewDense(2*k, 6, nil)
	b := mat.NewVecDense(2*k, nil)
	for r, idx := range indices {
		in, out := p.input[idx], p.output[idx]
		a.Set(2*r, 0, in.X)
		a.Set(2*r, 1, in.Y)
		a.Set(2*r, 2, 1)
		a.Set(2*r+1, 3, in.X)
		a.Set(2*r+1, 4, in.Y)
		a.Set(2*r+1, 5, 1)
		b.SetVec(2*r, out.X)
		b.SetVec(2*r+1, out.Y)
	}
	x, ok := solveLS(a, b)
	if !ok {
		return nil
	}
	return []geometry.Transform2{affineFromParams(x)}
}

func (p *Affine2D) Residual(t geometry.Transform2, i int) float64 {
	return t.TransferError(p.input[i], p.output[i])
}

func (p *Affine2D) Params(t geometry.Transform2) []float64 {
	return []float64{t.M[0][0], t.M[0][1], t.M[0][2], t.M[1][0], t.M[1][1], t.M[1][2]}
}

func (p *Affine2D) FromParams(params []float64) geometry.Transform2 {
	return affineFromParams(params)
}

func affineFromParams(x []float64) geometry.Transform2 {
	t := geometry.Identity2()
	t.M[0] = [3]float64{x[0], x[1], x[2]}
	t.M[1] = [3]float64{x[3], x[4], x[5]}
	return t
}

// Projective2D estimates a planar projective transformation (homography)
// from point correspondences.
type Projective2D struct {
	pointPairs2
}

// NewProjective2D validates the correspondences and builds the problem.
func NewProjective2D(input, output []r2.Point) (*Projective2D, error) {
	pairs, err := newPointPairs2(input, output, 4)
	if err != nil {
		return nil, err
	}
	return &Projective2D{pairs}, nil
}

// NewProjective2DEstimator returns a robust estimator of a planar
// projective transformation.
func NewProjective2DEstimator(
	input, output []r2.Point, method estimation.Method, logger logging.Logger,
) (*estimation.Estimator[geometry.Transform2], error) {
	problem, err := NewProjective2D(input, output)
	if err != nil {
		return nil, err
	}
	return estimation.NewEstimator[geometry.Transform2](problem, method, logger)
}

func (p *Projective2D) MinimumSize() int { return 4 }

func (p *Projective2D) WeakMinimumSize() int { return 5 }

// Fit solves the homography by direct linear transformation: the null
// vector of the 2k x 9 design matrix. Subsets with three colinear points
// leave a wider null space and yield no candidate.
func (p *Projective2D) Fit(indices []int) []geometry.Transform2 {
	k := len(indices)
	a := mat.NewDense(2*k, 9, nil)
	for r, idx := range indices {
		in, out := p.input[idx], p.output[idx]
		row := 2 * r
		a.Set(row, 0, in.X)
		a.Set(row, 1, in.Y)
		a.Set(row, 2, 1)
		a.Set(row, 6, -out.X*in.X)
		a.Set(row, 7, -out.X*in.Y)
		a.Set(row, 8, -out.X)
		a.Set(row+1, 3, in.X)
		a.Set(row+1, 4, in.Y)
		a.Set(row+1, 5, 1)
		a.Set(row+1, 6, -out.Y*in.X)
		a.Set(row+1, 7, -out.Y*in.Y)
		a.Set(row+1, 8, -out.Y)
	}
	h, ok := nullVector(a)
	if !ok {
		return nil
	}
	return []geometry.Transform2{projectiveFromParams(h)}
}

func (p *Projective2D) Residual(t geometry.Transform2, i int) float64 {
	return t.SymmetricTransferError(p.input[i], p.output[i])
}

func (p *Projective2D) Params(t geometry.Transform2) []float64 {
	return []float64{
		t.M[0][0], t.M[0][1], t.M[0][2],
		t.M[1][0], t.M[1][1], t.M[1][2],
		t.M[2][0], t.M[2][1], t.M[2][2],
	}
}

func (p *Projective2D) FromParams(params []float64) geometry.Transform2 {
	return projectiveFromParams(params)
}

// projectiveFromParams rebuilds the homography at unit coefficient norm to
// remove the scale ambiguity of the parameterization.
func projectiveFromParams(h []float64) geometry.Transform2 {
	norm := 0.0
	for _, v := range h {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}
	var t geometry.Transform2
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.M[i][j] = h[3*i+j] / norm
		}
	}
	return t
}
