package estimation

import "github.com/pkg/errors"

var (
	// ErrLocked is returned by mutators and nested Estimate calls while an
	// estimation is in flight. The caller may retry once the current
	// estimation finishes.
	ErrLocked = errors.New("estimator is locked")

	// ErrNotReady is returned by Estimate when data, or quality scores for
	// the methods that need them, have not been set consistently.
	ErrNotReady = errors.New("estimator is not ready")

	// ErrNoSolution is returned when the consensus search exhausted its
	// iteration budget without ever producing a valid candidate model, for
	// example because every sampled subset was degenerate.
	ErrNoSolution = errors.New("no model could be estimated")
)
