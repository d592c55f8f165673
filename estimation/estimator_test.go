package estimation

import (
	"math/rand"
	"testing"

	"go.viam.com/test"

	"go.viam.com/geofit/logging"
)

func TestNewEstimator(t *testing.T) {
	logger := logging.NewTestLogger(t)
	problem := &lineProblem{xs: []float64{0, 1, 2}, ys: []float64{1, 3, 5}}

	t.Run("nil problem", func(t *testing.T) {
		_, err := NewEstimator[lineModel](nil, RANSAC, logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := NewEstimator[lineModel](problem, Method(42), logger)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("defaults", func(t *testing.T) {
		est, err := NewEstimator[lineModel](problem, RANSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.Method(), test.ShouldEqual, RANSAC)
		test.That(t, est.Threshold(), test.ShouldEqual, DefaultThreshold)
		test.That(t, est.StopThreshold(), test.ShouldEqual, DefaultStopThreshold)
		test.That(t, est.Confidence(), test.ShouldEqual, DefaultConfidence)
		test.That(t, est.MaxIterations(), test.ShouldEqual, DefaultMaxIterations)
		test.That(t, est.ProgressDelta(), test.ShouldEqual, DefaultProgressDelta)
		test.That(t, est.IsResultRefined(), test.ShouldBeTrue)
		test.That(t, est.IsCovarianceKept(), test.ShouldBeFalse)
		test.That(t, est.IsWeakMinimumSizeAllowed(), test.ShouldBeFalse)
		test.That(t, est.IsComputeAndKeepInliersEnabled(), test.ShouldBeFalse)
		test.That(t, est.IsComputeAndKeepResidualsEnabled(), test.ShouldBeFalse)
		test.That(t, est.IsLocked(), test.ShouldBeFalse)
		test.That(t, est.InliersData(), test.ShouldBeNil)
		test.That(t, est.Covariance(), test.ShouldBeNil)
	})

	t.Run("create uses the default method", func(t *testing.T) {
		est, err := Create[lineModel](problem, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.Method(), test.ShouldEqual, DefaultMethod)
	})
}

func TestEstimatorSetters(t *testing.T) {
	logger := logging.NewTestLogger(t)
	problem := &lineProblem{xs: []float64{0, 1, 2}, ys: []float64{1, 3, 5}}
	est, err := NewEstimator[lineModel](problem, RANSAC, logger)
	test.That(t, err, test.ShouldBeNil)

	t.Run("threshold", func(t *testing.T) {
		test.That(t, est.SetThreshold(0), test.ShouldNotBeNil)
		test.That(t, est.SetThreshold(-1), test.ShouldNotBeNil)
		test.That(t, est.SetThreshold(2.5), test.ShouldBeNil)
		test.That(t, est.Threshold(), test.ShouldEqual, 2.5)
	})

	t.Run("stop threshold", func(t *testing.T) {
		test.That(t, est.SetStopThreshold(0), test.ShouldNotBeNil)
		test.That(t, est.SetStopThreshold(1e-6), test.ShouldBeNil)
		test.That(t, est.StopThreshold(), test.ShouldEqual, 1e-6)
	})

	t.Run("confidence", func(t *testing.T) {
		test.That(t, est.SetConfidence(-0.1), test.ShouldNotBeNil)
		test.That(t, est.SetConfidence(1.1), test.ShouldNotBeNil)
		test.That(t, est.SetConfidence(0.95), test.ShouldBeNil)
		test.That(t, est.Confidence(), test.ShouldEqual, 0.95)
	})

	t.Run("max iterations", func(t *testing.T) {
		test.That(t, est.SetMaxIterations(0), test.ShouldNotBeNil)
		test.That(t, est.SetMaxIterations(100), test.ShouldBeNil)
		test.That(t, est.MaxIterations(), test.ShouldEqual, 100)
	})

	t.Run("progress delta", func(t *testing.T) {
		test.That(t, est.SetProgressDelta(0), test.ShouldNotBeNil)
		test.That(t, est.SetProgressDelta(1.5), test.ShouldNotBeNil)
		test.That(t, est.SetProgressDelta(0.1), test.ShouldBeNil)
		test.That(t, est.ProgressDelta(), test.ShouldEqual, 0.1)
	})

	t.Run("random", func(t *testing.T) {
		test.That(t, est.SetRandom(nil), test.ShouldNotBeNil)
		test.That(t, est.SetRandom(rand.New(rand.NewSource(1))), test.ShouldBeNil)
	})

	t.Run("flags", func(t *testing.T) {
		test.That(t, est.SetResultRefined(false), test.ShouldBeNil)
		test.That(t, est.IsResultRefined(), test.ShouldBeFalse)
		test.That(t, est.SetCovarianceKept(true), test.ShouldBeNil)
		test.That(t, est.IsCovarianceKept(), test.ShouldBeTrue)
		test.That(t, est.SetWeakMinimumSizeAllowed(true), test.ShouldBeNil)
		test.That(t, est.IsWeakMinimumSizeAllowed(), test.ShouldBeTrue)
		test.That(t, est.SetComputeAndKeepInliersEnabled(true), test.ShouldBeNil)
		test.That(t, est.IsComputeAndKeepInliersEnabled(), test.ShouldBeTrue)
		test.That(t, est.SetComputeAndKeepResidualsEnabled(true), test.ShouldBeNil)
		test.That(t, est.IsComputeAndKeepResidualsEnabled(), test.ShouldBeTrue)
	})
}

func TestQualityScores(t *testing.T) {
	logger := logging.NewTestLogger(t)
	problem := &lineProblem{xs: []float64{0, 1, 2}, ys: []float64{1, 3, 5}}

	t.Run("rejected for threshold methods", func(t *testing.T) {
		est, err := NewEstimator[lineModel](problem, RANSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.SetQualityScores([]float64{1, 2, 3}), test.ShouldNotBeNil)
	})

	t.Run("validated for prosac", func(t *testing.T) {
		est, err := NewEstimator[lineModel](problem, PROSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.SetQualityScores(nil), test.ShouldNotBeNil)
		test.That(t, est.SetQualityScores([]float64{1, 2}), test.ShouldNotBeNil)
		test.That(t, est.SetQualityScores([]float64{1, -2, 3}), test.ShouldNotBeNil)
		test.That(t, est.SetQualityScores([]float64{1, 2, 3}), test.ShouldBeNil)
		test.That(t, est.QualityScores(), test.ShouldResemble, []float64{1, 2, 3})
	})
}

func TestIsReady(t *testing.T) {
	logger := logging.NewTestLogger(t)

	t.Run("not enough data", func(t *testing.T) {
		problem := &lineProblem{xs: []float64{0}, ys: []float64{1}}
		est, err := NewEstimator[lineModel](problem, RANSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.IsReady(), test.ShouldBeFalse)
	})

	t.Run("weak minimum raises the bar", func(t *testing.T) {
		problem := &lineProblem{xs: []float64{0, 1}, ys: []float64{1, 3}}
		est, err := NewEstimator[lineModel](problem, RANSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.IsReady(), test.ShouldBeTrue)
		test.That(t, est.SetWeakMinimumSizeAllowed(true), test.ShouldBeNil)
		test.That(t, est.IsReady(), test.ShouldBeFalse)
	})

	t.Run("prosac requires quality scores", func(t *testing.T) {
		problem := &lineProblem{xs: []float64{0, 1, 2}, ys: []float64{1, 3, 5}}
		est, err := NewEstimator[lineModel](problem, PROSAC, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, est.IsReady(), test.ShouldBeFalse)
		test.That(t, est.SetQualityScores([]float64{3, 2, 1}), test.ShouldBeNil)
		test.That(t, est.IsReady(), test.ShouldBeTrue)
	})
}

func TestMethodString(t *testing.T) {
	test.That(t, RANSAC.String(), test.ShouldEqual, "RANSAC")
	test.That(t, LMedS.String(), test.ShouldEqual, "LMedS")
	test.That(t, MSAC.String(), test.ShouldEqual, "MSAC")
	test.That(t, PROSAC.String(), test.ShouldEqual, "PROSAC")
	test.That(t, PROMedS.String(), test.ShouldEqual, "PROMedS")
}
