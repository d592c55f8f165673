package estimation

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/geofit/logging"
)

// Default configuration values applied by NewEstimator.
const (
	DefaultThreshold     = 1.0
	DefaultStopThreshold = 1e-3
	DefaultConfidence    = 0.99
	DefaultMaxIterations = 5000
	DefaultProgressDelta = 0.05
	DefaultBeta          = 0.01
	DefaultEta0          = 0.05
)

// Estimator runs one of the sample-consensus methods over a Problem. A
// single instance is not safe for concurrent use: a lock flag enforces at
// most one in-flight Estimate and makes all mutators fail fast while it
// runs. Instances operating on disjoint data are independent.
type Estimator[M any] struct {
	problem  Problem[M]
	method   Method
	logger   logging.Logger
	listener *Listener
	random   *rand.Rand

	threshold          float64
	stopThreshold      float64
	confidence         float64
	maxIterations      int
	progressDelta      float64
	refineResult       bool
	keepCovariance     bool
	weakMinimumAllowed bool
	keepInliers        bool
	keepResiduals      bool
	qualityScores      []float64
	beta               float64
	eta0               float64

	locked      bool
	inliersData *InliersData
	covariance  *mat.SymDense
	nIters      int
}

// NewEstimator returns an estimator for the given problem and method with
// default configuration. A nil logger falls back to a package-named one.
func NewEstimator[M any](problem Problem[M], method Method, logger logging.Logger) (*Estimator[M], error) {
	if problem == nil {
		return nil, errors.New("problem must not be nil")
	}
	if !method.valid() {
		return nil, errors.Errorf("unknown method %d", int(method))
	}
	if logger == nil {
		logger = logging.NewLogger("estimation")
	}
	return &Estimator[M]{
		problem:       problem,
		method:        method,
		logger:        logger,
		random:        rand.New(rand.NewSource(time.Now().UnixNano())),
		threshold:     DefaultThreshold,
		stopThreshold: DefaultStopThreshold,
		confidence:    DefaultConfidence,
		maxIterations: DefaultMaxIterations,
		progressDelta: DefaultProgressDelta,
		refineResult:  true,
		beta:          DefaultBeta,
		eta0:          DefaultEta0,
	}, nil
}

// Create returns an estimator using the default method (PROMedS).
func Create[M any](problem Problem[M], logger logging.Logger) (*Estimator[M], error) {
	return NewEstimator(problem, DefaultMethod, logger)
}

// Method returns the sample-consensus method this estimator runs.
func (e *Estimator[M]) Method() Method {
	return e.method
}

// IsLocked reports whether an Estimate call is in flight.
func (e *Estimator[M]) IsLocked() bool {
	return e.locked
}

// IsReady reports whether Estimate can run: enough data for the (weak)
// minimal sample size and, for PROSAC/PROMedS, quality scores sized to the
// data.
func (e *Estimator[M]) IsReady() bool {
	n := e.problem.NumSamples()
	if n < e.sampleSize() {
		return false
	}
	if e.method.usesQualityScores() && len(e.qualityScores) != n {
		return false
	}
	return true
}

// sampleSize returns the subset size drawn each iteration.
func (e *Estimator[M]) sampleSize() int {
	if e.weakMinimumAllowed {
		if wp, ok := e.problem.(WeakProblem[M]); ok {
			return wp.WeakMinimumSize()
		}
	}
	return e.problem.MinimumSize()
}

// SetListener sets the progress listener. Maybe nil.
func (e *Estimator[M]) SetListener(listener *Listener) error {
	if e.locked {
		return ErrLocked
	}
	e.listener = listener
	return nil
}

// SetRandom replaces the random source used for subset sampling, so tests
// can be made deterministic by seeding.
func (e *Estimator[M]) SetRandom(random *rand.Rand) error {
	if e.locked {
		return ErrLocked
	}
	if random == nil {
		return errors.New("random source must not be nil")
	}
	e.random = random
	return nil
}

// Threshold returns the inlier residual threshold (RANSAC, MSAC, PROSAC).
func (e *Estimator[M]) Threshold() float64 {
	return e.threshold
}

// SetThreshold sets the inlier residual threshold used by the
// threshold-based methods. Must be positive.
func (e *Estimator[M]) SetThreshold(threshold float64) error {
	if e.locked {
		return ErrLocked
	}
	if threshold <= 0 {
		return errors.Errorf("threshold must be positive, got %v", threshold)
	}
	e.threshold = threshold
	return nil
}

// StopThreshold returns the early-stop median residual (LMedS, PROMedS).
func (e *Estimator[M]) StopThreshold() float64 {
	return e.stopThreshold
}

// SetStopThreshold sets the median residual below which LMedS and PROMedS
// stop early. Must be positive.
func (e *Estimator[M]) SetStopThreshold(stopThreshold float64) error {
	if e.locked {
		return ErrLocked
	}
	if stopThreshold <= 0 {
		return errors.Errorf("stop threshold must be positive, got %v", stopThreshold)
	}
	e.stopThreshold = stopThreshold
	return nil
}

// Confidence returns the probability that the search finds an
// outlier-free sample.
func (e *Estimator[M]) Confidence() float64 {
	return e.confidence
}

// SetConfidence sets the search confidence in [0, 1] used by the adaptive
// iteration bound.
func (e *Estimator[M]) SetConfidence(confidence float64) error {
	if e.locked {
		return ErrLocked
	}
	if confidence < 0 || confidence > 1 {
		return errors.Errorf("confidence must be in [0, 1], got %v", confidence)
	}
	e.confidence = confidence
	return nil
}

// MaxIterations returns the hard iteration budget.
func (e *Estimator[M]) MaxIterations() int {
	return e.maxIterations
}

// SetMaxIterations sets the hard iteration budget. Must be at least 1.
func (e *Estimator[M]) SetMaxIterations(maxIterations int) error {
	if e.locked {
		return ErrLocked
	}
	if maxIterations < 1 {
		return errors.Errorf("max iterations must be at least 1, got %d", maxIterations)
	}
	e.maxIterations = maxIterations
	return nil
}

// ProgressDelta returns the minimum progress advance that triggers a
// progress notification.
func (e *Estimator[M]) ProgressDelta() float64 {
	return e.progressDelta
}

// SetProgressDelta sets the minimum progress advance, in (0, 1], that
// triggers an OnEstimateProgressChange notification.
func (e *Estimator[M]) SetProgressDelta(progressDelta float64) error {
	if e.locked {
		return ErrLocked
	}
	if progressDelta <= 0 || progressDelta > 1 {
		return errors.Errorf("progress delta must be in (0, 1], got %v", progressDelta)
	}
	e.progressDelta = progressDelta
	return nil
}

// IsResultRefined reports whether the winning model is refined over its
// inliers before being returned.
func (e *Estimator[M]) IsResultRefined() bool {
	return e.refineResult
}

// SetResultRefined toggles the non-linear refinement stage. Default true.
func (e *Estimator[M]) SetResultRefined(refine bool) error {
	if e.locked {
		return ErrLocked
	}
	e.refineResult = refine
	return nil
}

// IsCovarianceKept reports whether refinement also estimates a parameter
// covariance.
func (e *Estimator[M]) IsCovarianceKept() bool {
	return e.keepCovariance
}

// SetCovarianceKept toggles covariance estimation during refinement.
// Default false.
func (e *Estimator[M]) SetCovarianceKept(keep bool) error {
	if e.locked {
		return ErrLocked
	}
	e.keepCovariance = keep
	return nil
}

// IsWeakMinimumSizeAllowed reports whether subsets of the problem's weak
// minimum size are drawn instead of strictly minimal ones.
func (e *Estimator[M]) IsWeakMinimumSizeAllowed() bool {
	return e.weakMinimumAllowed
}

// SetWeakMinimumSizeAllowed toggles weak-minimum sampling. Only problems
// implementing WeakProblem are affected. Default false.
func (e *Estimator[M]) SetWeakMinimumSizeAllowed(allowed bool) error {
	if e.locked {
		return ErrLocked
	}
	e.weakMinimumAllowed = allowed
	return nil
}

// IsComputeAndKeepInliersEnabled reports whether threshold-based methods
// keep the inlier mask in the result.
func (e *Estimator[M]) IsComputeAndKeepInliersEnabled() bool {
	return e.keepInliers
}

// SetComputeAndKeepInliersEnabled toggles keeping the inlier mask on the
// threshold-based methods; LMedS and PROMedS always keep it. Default false,
// an explicit opt-in that spares memory on large datasets.
func (e *Estimator[M]) SetComputeAndKeepInliersEnabled(enabled bool) error {
	if e.locked {
		return ErrLocked
	}
	e.keepInliers = enabled
	return nil
}

// IsComputeAndKeepResidualsEnabled reports whether threshold-based methods
// keep per-datum residuals in the result.
func (e *Estimator[M]) IsComputeAndKeepResidualsEnabled() bool {
	return e.keepResiduals
}

// SetComputeAndKeepResidualsEnabled toggles keeping per-datum residuals on
// the threshold-based methods; LMedS and PROMedS always keep them. Default
// false.
func (e *Estimator[M]) SetComputeAndKeepResidualsEnabled(enabled bool) error {
	if e.locked {
		return ErrLocked
	}
	e.keepResiduals = enabled
	return nil
}

// QualityScores returns the per-datum quality scores (PROSAC, PROMedS).
func (e *Estimator[M]) QualityScores() []float64 {
	return e.qualityScores
}

// SetQualityScores sets the per-datum quality scores required by PROSAC and
// PROMedS. The slice must be non-empty, sized to the data and non-negative
// throughout.
func (e *Estimator[M]) SetQualityScores(scores []float64) error {
	if e.locked {
		return ErrLocked
	}
	if !e.method.usesQualityScores() {
		return errors.Errorf("method %s does not use quality scores", e.method)
	}
	if len(scores) == 0 {
		return errors.New("quality scores must not be empty")
	}
	if len(scores) != e.problem.NumSamples() {
		return errors.Errorf("got %d quality scores for %d data", len(scores), e.problem.NumSamples())
	}
	for i, s := range scores {
		if s < 0 {
			return errors.Errorf("quality score %d is negative: %v", i, s)
		}
	}
	e.qualityScores = scores
	return nil
}

// InliersData returns the result bundle of the last successful Estimate, or
// nil if none completed or inlier keeping was disabled.
func (e *Estimator[M]) InliersData() *InliersData {
	return e.inliersData
}

// Covariance returns the parameter covariance estimated by the last
// refinement, or nil when refinement or covariance keeping was disabled or
// the estimate failed numerically.
func (e *Estimator[M]) Covariance() *mat.SymDense {
	return e.covariance
}

// NIters returns how many iterations the last Estimate used.
func (e *Estimator[M]) NIters() int {
	return e.nIters
}
