package estimation

import (
	"context"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/geofit/utils"
)

// inlierScaleQuantile is the chi-square quantile used to turn the robust
// scale of the LMedS-family median into an inlier threshold.
const inlierScaleQuantile = 0.99

// Estimate runs the consensus search and returns the best supported model.
// It locks the estimator for its whole duration, fires the listener
// callbacks described on Listener, and unlocks on every path. ErrNotReady is
// returned before locking when preconditions fail; ErrNoSolution when no
// candidate model was ever produced. The context is only consulted between
// iterations.
func (e *Estimator[M]) Estimate(ctx context.Context) (M, error) {
	var zero M
	if e.locked {
		return zero, ErrLocked
	}
	if !e.IsReady() {
		return zero, ErrNotReady
	}
	e.locked = true
	defer func() { e.locked = false }()

	e.inliersData = nil
	e.covariance = nil
	e.nIters = 0

	e.notifyStart()
	model, err := e.run(ctx)
	e.notifyEnd()
	if err != nil {
		return zero, err
	}
	return model, nil
}

func (e *Estimator[M]) run(ctx context.Context) (M, error) {
	var best M
	n := e.problem.NumSamples()
	m := e.sampleSize()
	minimum := e.problem.MinimumSize()

	var smp sampler
	if e.method == PROSAC {
		smp = newProsacSampler(e.qualityScores, m, e.random)
	} else {
		smp = &uniformSampler{n: n, m: m, random: e.random}
	}

	haveBest := false
	bestScore := math.Inf(-1)
	bestMedian := math.Inf(1)
	residuals := make([]float64, n)
	// The median methods have no inlier threshold to adapt a support ratio
	// on before the robust scale is known, so they use the classical trial
	// count for their 50 percent breakdown point instead.
	bound := e.maxIterations
	if !e.method.usesThreshold() {
		bound = requiredIterations(e.confidence, 0.5, m, e.maxIterations)
	}
	lastProgress := 0.0

	iter := 0
	for iter < bound {
		if err := ctx.Err(); err != nil {
			return best, errors.Wrap(err, "estimation canceled")
		}
		indices := smp.next()
		// A degenerate subset yields no candidates; the iteration still
		// counts toward the budget.
		for _, candidate := range e.problem.Fit(indices) {
			for i := range residuals {
				residuals[i] = e.problem.Residual(candidate, i)
			}

			improved := false
			switch e.method {
			case RANSAC, PROSAC:
				count := countInliers(residuals, e.threshold)
				if float64(count) > bestScore {
					bestScore = float64(count)
					improved = true
				}
			case MSAC:
				t2 := e.threshold * e.threshold
				loss := 0.0
				for _, r := range residuals {
					loss += math.Min(r*r, t2)
				}
				if -loss > bestScore {
					bestScore = -loss
					improved = true
				}
			case LMedS:
				med, err := stats.Median(residuals)
				if err != nil {
					continue
				}
				if med < bestMedian {
					bestMedian = med
					improved = true
				}
			case PROMedS:
				med := utils.WeightedMedian(residuals, e.qualityScores)
				if !math.IsNaN(med) && med < bestMedian {
					bestMedian = med
					improved = true
				}
			}
			if !improved {
				continue
			}

			best = candidate
			haveBest = true
			if e.method.usesThreshold() {
				w := float64(countInliers(residuals, e.threshold)) / float64(n)
				bound = requiredIterations(e.confidence, w, m, e.maxIterations)
				if e.method == PROSAC && e.prosacShouldStop(residuals, m, iter) {
					bound = iter + 1
				}
				e.logger.Debugw("consensus improved",
					"method", e.method.String(),
					"iteration", iter,
					"inlierRatio", w,
					"bound", bound)
			} else {
				e.logger.Debugw("consensus improved",
					"method", e.method.String(),
					"iteration", iter,
					"median", bestMedian)
			}
		}
		e.notifyIteration(iter)
		iter++
		if !e.method.usesThreshold() && haveBest && bestMedian <= e.stopThreshold {
			e.logger.Debugw("median residual below stop threshold", "median", bestMedian)
			break
		}
		progress := utils.Clamp(float64(iter)/float64(bound), 0, 1)
		if progress-lastProgress >= e.progressDelta {
			lastProgress = progress
			e.notifyProgress(progress)
		}
	}
	e.nIters = iter

	if !haveBest {
		return best, errors.Wrapf(ErrNoSolution, "after %d iterations", iter)
	}
	return e.finish(ctx, best, bestMedian, n, minimum)
}

// finish recomputes the winning model's support, optionally refines it over
// the inliers and populates the result bundle.
func (e *Estimator[M]) finish(ctx context.Context, best M, bestMedian float64, n, minimum int) (M, error) {
	residuals := make([]float64, n)
	thr := e.inlierThreshold(bestMedian, n, minimum)
	inliers, count := e.markInliers(best, residuals, thr)

	if e.refineResult && count >= minimum {
		if refined, cov, ok := e.refine(ctx, best, inlierIndices(inliers, count)); ok {
			best = refined
			e.covariance = cov
			if !e.method.usesThreshold() {
				bestMedian = e.achievedMedian(best, residuals)
				thr = e.inlierThreshold(bestMedian, n, minimum)
			}
			inliers, count = e.markInliers(best, residuals, thr)
		}
	}

	data := &InliersData{NumInliers: count}
	if e.keepInliers || !e.method.usesThreshold() {
		data.Inliers = inliers
	}
	if e.keepResiduals || !e.method.usesThreshold() {
		kept := make([]float64, n)
		copy(kept, residuals)
		data.Residuals = kept
	}
	if !e.method.usesThreshold() {
		data.MedianResidual = bestMedian
		data.Scale = robustScale(bestMedian, n, minimum)
	}
	e.inliersData = data
	return best, nil
}

// markInliers fills residuals for the model and returns the inlier mask and
// count under the given threshold.
func (e *Estimator[M]) markInliers(model M, residuals []float64, thr float64) ([]bool, int) {
	inliers := make([]bool, len(residuals))
	count := 0
	for i := range residuals {
		residuals[i] = e.problem.Residual(model, i)
		if residuals[i] <= thr {
			inliers[i] = true
			count++
		}
	}
	return inliers, count
}

// achievedMedian recomputes the (weighted) median residual of a model,
// filling residuals as a side effect.
func (e *Estimator[M]) achievedMedian(model M, residuals []float64) float64 {
	for i := range residuals {
		residuals[i] = e.problem.Residual(model, i)
	}
	if e.method == PROMedS {
		return utils.WeightedMedian(residuals, e.qualityScores)
	}
	med, err := stats.Median(residuals)
	if err != nil {
		return math.Inf(1)
	}
	return med
}

// inlierThreshold is the residual cutoff marking a datum as an inlier: the
// configured threshold for the threshold-based methods, the chi-square
// scaled robust scale of the best median for LMedS and PROMedS.
func (e *Estimator[M]) inlierThreshold(bestMedian float64, n, minimum int) float64 {
	if e.method.usesThreshold() {
		return e.threshold
	}
	// A (near) perfect consensus drives the robust scale to zero; floor the
	// median at the stop threshold so exact fits still mark their support.
	med := math.Max(bestMedian, e.stopThreshold)
	return e.chiFactor() * robustScale(med, n, minimum)
}

// chiFactor converts a robust scale into an inlier cutoff accounting for the
// degrees of freedom of the residual distribution.
func (e *Estimator[M]) chiFactor() float64 {
	dof := 2
	if d, ok := e.problem.(residualDoFer); ok {
		dof = d.ResidualDoF()
	}
	return math.Sqrt(distuv.ChiSquared{K: float64(dof)}.Quantile(inlierScaleQuantile))
}

// prosacShouldStop applies the non-randomness and maximality early
// termination tests to the current best support.
func (e *Estimator[M]) prosacShouldStop(residuals []float64, m, iter int) bool {
	n := len(residuals)
	count := countInliers(residuals, e.threshold)
	if count < prosacMinInliers(m, n, e.beta) {
		return false
	}
	maximality := requiredIterations(1-e.eta0, float64(count)/float64(n), m, e.maxIterations)
	return iter+1 >= maximality
}

func countInliers(residuals []float64, threshold float64) int {
	count := 0
	for _, r := range residuals {
		if r <= threshold {
			count++
		}
	}
	return count
}

// robustScale is the LMedS robust standard deviation estimate
// 1.4826*(1 + 5/(n-m))*median.
func robustScale(median float64, n, minimum int) float64 {
	if n <= minimum {
		return 1.4826 * median
	}
	return 1.4826 * (1 + 5/float64(n-minimum)) * median
}

// requiredIterations is the adaptive bound N = log(1-confidence)/log(1-w^m)
// clamped to [1, maxIterations], where w is the inlier ratio and m the
// sample size.
func requiredIterations(confidence, w float64, m, maxIterations int) int {
	if w <= 0 || confidence >= 1 {
		return maxIterations
	}
	p := math.Pow(w, float64(m))
	if p >= 1 {
		return 1
	}
	iters := int(math.Ceil(math.Log(1-confidence) / math.Log(1-p)))
	if iters < 1 {
		return 1
	}
	if iters > maxIterations {
		return maxIterations
	}
	return iters
}

func inlierIndices(inliers []bool, count int) []int {
	indices := make([]int, 0, count)
	for i, in := range inliers {
		if in {
			indices = append(indices, i)
		}
	}
	return indices
}
