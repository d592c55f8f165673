package estimation

// Problem is the model-fitting capability a concrete estimator plugs into the
// engine: a minimal-sample solver plus a per-datum residual function. Both
// must be pure with respect to the underlying data.
type Problem[M any] interface {
	// NumSamples returns how many data are available.
	NumSamples() int

	// MinimumSize returns the smallest subset size from which Fit can
	// produce a candidate model.
	MinimumSize() int

	// Fit solves the model from the data at the given indices, returning
	// zero or more candidates. A degenerate subset (colinear points, rank
	// deficient system, failed decomposition) yields no candidates; it is
	// never an error.
	Fit(indices []int) []M

	// Residual returns the non-negative error of datum i under the model.
	Residual(model M, i int) float64
}

// WeakProblem is a Problem that can also solve over-determined subsets of a
// relaxed, larger-than-minimal size.
type WeakProblem[M any] interface {
	Problem[M]

	// WeakMinimumSize returns the subset size used when weak minimum
	// sampling is allowed. Always >= MinimumSize.
	WeakMinimumSize() int
}

// RefinableProblem is a Problem whose model has a smooth parameterization,
// enabling the non-linear refinement stage and covariance estimation.
type RefinableProblem[M any] interface {
	Problem[M]

	// Params flattens a model into the parameter vector refined over.
	Params(model M) []float64

	// FromParams rebuilds a model from a parameter vector.
	FromParams(params []float64) M
}

// residualDoFer optionally reports the degrees of freedom of the residual
// distribution, used to pick the chi-square factor of the LMedS-family
// inlier scale. Problems that do not implement it get 2 degrees of freedom.
type residualDoFer interface {
	ResidualDoF() int
}
