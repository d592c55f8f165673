//go:build windows || no_cgo

package estimation

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// refine is unavailable without the nlopt binding. Reporting failure keeps
// the consensus model with no covariance, the same recoverable path taken
// when the optimizer does not improve the cost.
func (e *Estimator[M]) refine(ctx context.Context, model M, inliers []int) (M, *mat.SymDense, bool) {
	e.logger.Debugw("refinement unavailable on this platform, keeping consensus model")
	return model, nil, false
}
