//go:build !windows && !no_cgo

package estimation

import (
	"context"
	"math"

	"github.com/go-nlopt/nlopt"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

const (
	refineEpsilon  = 1e-12
	refineMaxEvals = 2000
	refineJump     = 1e-8
)

type optimizeReturn struct {
	solution []float64
	score    float64
	err      error
}

// refine re-fits the model over the given inlier indices with a non-linear
// least-squares pass, minimizing the (weighted) sum of squared residuals
// from the consensus model's parameters. Failure is non-fatal: ok is false
// and the caller keeps the unrefined model with no covariance.
func (e *Estimator[M]) refine(ctx context.Context, model M, inliers []int) (refined M, cov *mat.SymDense, ok bool) {
	rp, isRefinable := e.problem.(RefinableProblem[M])
	if !isRefinable {
		return model, nil, false
	}
	params := rp.Params(model)
	if len(params) == 0 || len(inliers) == 0 {
		return model, nil, false
	}

	// PROMedS refines with quality scores as residual weights.
	var weights []float64
	if e.method == PROMedS {
		weights = make([]float64, len(inliers))
		for k, i := range inliers {
			weights[k] = e.qualityScores[i]
		}
	}
	cost := func(x []float64) float64 {
		candidate := rp.FromParams(x)
		sum := 0.0
		for k, i := range inliers {
			r := e.problem.Residual(candidate, i)
			if weights != nil {
				sum += weights[k] * r * r
			} else {
				sum += r * r
			}
		}
		return sum
	}

	opt, err := nlopt.NewNLopt(nlopt.LD_SLSQP, uint(len(params)))
	if err != nil {
		e.logger.Debugw("refinement skipped, nlopt creation failed", "error", err)
		return model, nil, false
	}
	defer opt.Destroy()

	// Gradient is mutated in place; forward differences with a fixed jump.
	objective := func(x, gradient []float64) float64 {
		value := cost(x)
		for i := range gradient {
			x[i] += refineJump
			gradient[i] = (cost(x) - value) / refineJump
			x[i] -= refineJump
		}
		return value
	}
	err = multierr.Combine(
		opt.SetFtolRel(refineEpsilon),
		opt.SetFtolAbs(refineEpsilon),
		opt.SetXtolRel(refineEpsilon),
		opt.SetMinObjective(objective),
		opt.SetMaxEval(refineMaxEvals),
	)
	if err != nil {
		e.logger.Debugw("refinement skipped, nlopt setup failed", "error", err)
		return model, nil, false
	}

	initialCost := cost(params)
	solveChan := make(chan *optimizeReturn, 1)
	goutils.PanicCapturingGo(func() {
		solution, score, optErr := opt.Optimize(params)
		solveChan <- &optimizeReturn{solution, score, optErr}
	})
	var result *optimizeReturn
	select {
	case <-ctx.Done():
		multierr.AppendInto(&err, opt.ForceStop())
		<-solveChan
		e.logger.Debugw("refinement canceled", "error", err)
		return model, nil, false
	case result = <-solveChan:
	}
	if result.err != nil || result.solution == nil || math.IsNaN(result.score) || result.score > initialCost {
		e.logger.Debugw("refinement did not improve, keeping consensus model",
			"initialCost", initialCost, "error", result.err)
		return model, nil, false
	}

	refined = rp.FromParams(result.solution)
	if e.keepCovariance {
		cov = e.estimateCovariance(rp, result.solution, inliers, result.score)
	}
	return refined, cov, true
}

// estimateCovariance builds the parameter covariance sigma^2 * (J^T J)^-1
// from a numerical Jacobian of the inlier residuals at the refined
// parameters. Returns nil when the normal matrix is singular or there are
// not enough inliers to estimate the residual variance.
func (e *Estimator[M]) estimateCovariance(
	rp RefinableProblem[M], params []float64, inliers []int, finalCost float64,
) *mat.SymDense {
	p := len(params)
	nIn := len(inliers)
	if nIn <= p {
		return nil
	}
	base := rp.FromParams(params)
	baseRes := make([]float64, nIn)
	for k, i := range inliers {
		baseRes[k] = e.problem.Residual(base, i)
	}
	jac := mat.NewDense(nIn, p, nil)
	x := make([]float64, p)
	copy(x, params)
	for j := 0; j < p; j++ {
		x[j] += refineJump
		bumped := rp.FromParams(x)
		for k, i := range inliers {
			jac.Set(k, j, (e.problem.Residual(bumped, i)-baseRes[k])/refineJump)
		}
		x[j] -= refineJump
	}
	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)
	var inv mat.Dense
	if err := inv.Inverse(&jtj); err != nil {
		e.logger.Debugw("covariance not kept, normal matrix is singular", "error", err)
		return nil
	}
	variance := finalCost / float64(nIn-p)
	cov := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			cov.SetSym(i, j, variance*0.5*(inv.At(i, j)+inv.At(j, i)))
		}
	}
	return cov
}
