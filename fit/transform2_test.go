package fit

import (
	"context"
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/geofit/estimation"
	"go.viam.com/geofit/geometry"
	"go.viam.com/geofit/logging"
)

func randomPoints2(n int, r *rand.Rand) []r2.Point {
	points := make([]r2.Point, n)
	for i := range points {
		points[i] = r2.Point{X: 20*r.Float64() - 10, Y: 20*r.Float64() - 10}
	}
	return points
}

// transformed2 maps input through truth and pushes the last outliers
// correspondences far off.
func transformed2(input []r2.Point, truth geometry.Transform2, outliers int, r *rand.Rand) []r2.Point {
	output := make([]r2.Point, len(input))
	for i, p := range input {
		output[i] = truth.Apply(p)
	}
	for i := len(input) - outliers; i < len(input); i++ {
		output[i] = output[i].Add(r2.Point{X: 50 + 100*r.Float64(), Y: 50 + 100*r.Float64()})
	}
	return output
}

func maxTransferError2(tr geometry.Transform2, input, output []r2.Point, n int) float64 {
	worst := 0.0
	for i := 0; i < n; i++ {
		if e := tr.TransferError(input[i], output[i]); e > worst {
			worst = e
		}
	}
	return worst
}

func TestEuclidean2DEstimator(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	truth := geometry.NewSimilarity2(1, 0.7, 1.5, -2)
	input := randomPoints2(600, r)
	output := transformed2(input, truth, 120, r)

	est, err := NewEuclidean2DEstimator(input, output, estimation.RANSAC, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, est.SetRandom(rand.New(rand.NewSource(1))), test.ShouldBeNil)
	test.That(t, est.SetThreshold(1e-6), test.ShouldBeNil)
	test.That(t, est.SetResultRefined(false), test.ShouldBeNil)

	model, err := est.Estimate(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxTransferError2(model, input, output, 480), test.ShouldBeLessThan, 1e-6)
	test.That(t, est.InliersData().NumInliers, test.ShouldEqual, 480)

	t.Run("degenerate pair", func(t *testing.T) {
		problem, err := NewEuclidean2D(
			[]r2.Point{{X: 1, Y: 1}, {X: 1, Y: 1}},
			[]r2.Point{{X: 2, Y: 2}, {X: 3, Y: 3}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, problem.Fit([]int{0, 1}), test.ShouldBeNil)
	})
}

func TestMetric2DEstimator(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	truth := geometry.NewSimilarity2(2.5, -0.4, 3, 1)
	input := randomPoints2(600, r)
	output := transformed2(input, truth, 120, r)

	est, err := NewMetric2DEstimator(input, output, estimation.LMedS, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, est.SetRandom(rand.New(rand.NewSource(1))), test.ShouldBeNil)
	test.That(t, est.SetResultRefined(false), test.ShouldBeNil)

	model, err := est.Estimate(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxTransferError2(model, input, output, 480), test.ShouldBeLessThan, 1e-6)

	data := est.InliersData()
	test.That(t, data, test.ShouldNotBeNil)
	test.That(t, data.NumInliers, test.ShouldEqual, 480)
	test.That(t, data.MedianResidual, test.ShouldAlmostEqual, 0, 1e-9)

	t.Run("params round trip", func(t *testing.T) {
		problem, err := NewMetric2D(input, output)
		test.That(t, err, test.ShouldBeNil)
		rebuilt := problem.FromParams(problem.Params(truth))
		for i := 0; i < 10; i++ {
			test.That(t, rebuilt.TransferError(input[i], truth.Apply(input[i])), test.ShouldBeLessThan, 1e-9)
		}
	})
}

func TestAffine2DEstimator(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	truth := geometry.Identity2()
	truth.M[0] = [3]float64{1.2, 0.3, 4}
	truth.M[1] = [3]float64{-0.2, 0.9, -1}
	input := randomPoints2(500, r)
	output := transformed2(input, truth, 100, r)

	est, err := NewAffine2DEstimator(input, output, estimation.MSAC, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, est.SetRandom(rand.New(rand.NewSource(1))), test.ShouldBeNil)
	test.That(t, est.SetThreshold(1e-6), test.ShouldBeNil)
	test.That(t, est.SetResultRefined(false), test.ShouldBeNil)

	model, err := est.Estimate(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxTransferError2(model, input, output, 400), test.ShouldBeLessThan, 1e-6)

	t.Run("colinear subset", func(t *testing.T) {
		problem, err := NewAffine2D(
			[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}},
			[]r2.Point{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 4, Y: 4}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, problem.Fit([]int{0, 1, 2}), test.ShouldBeNil)
	})
}

func TestProjective2DEstimator(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	var truth geometry.Transform2
	truth.M = [3][3]float64{
		{1, 0.1, 2},
		{-0.05, 1.1, -1},
		{0.0005, -0.0003, 1},
	}
	input := randomPoints2(600, r)
	output := transformed2(input, truth, 120, r)

	scores := make([]float64, len(input))
	for i := range scores {
		scores[i] = float64(len(input) - i)
	}

	est, err := NewProjective2DEstimator(input, output, estimation.PROSAC, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, est.SetRandom(rand.New(rand.NewSource(1))), test.ShouldBeNil)
	test.That(t, est.SetThreshold(1e-6), test.ShouldBeNil)
	test.That(t, est.SetResultRefined(false), test.ShouldBeNil)
	test.That(t, est.SetQualityScores(scores), test.ShouldBeNil)

	model, err := est.Estimate(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxTransferError2(model, input, output, 480), test.ShouldBeLessThan, 1e-6)
	test.That(t, est.NIters(), test.ShouldBeLessThan, 100)

	t.Run("colinear subset", func(t *testing.T) {
		problem, err := NewProjective2D(
			[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 1}},
			[]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 1}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, problem.Fit([]int{0, 1, 2, 3}), test.ShouldBeNil)
	})
}

func TestNewPointPairs2(t *testing.T) {
	_, err := NewEuclidean2D([]r2.Point{{X: 1}}, []r2.Point{{X: 1}, {X: 2}})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewProjective2D(randomPoints2(3, rand.New(rand.NewSource(1))), randomPoints2(3, rand.New(rand.NewSource(1))))
	test.That(t, err, test.ShouldNotBeNil)
}
