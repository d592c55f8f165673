package estimation

// Listener receives progress notifications during Estimate. All fields are
// optional closures and all callbacks run synchronously on the calling
// goroutine, inside the estimation loop. A callback must not invoke the same
// estimator's mutators (they fail with ErrLocked) but may call read-only
// accessors.
type Listener struct {
	OnEstimateStart          func()
	OnEstimateEnd            func()
	OnEstimateNextIteration  func(iteration int)
	OnEstimateProgressChange func(progress float64)
}

func (e *Estimator[M]) notifyStart() {
	if e.listener != nil && e.listener.OnEstimateStart != nil {
		e.listener.OnEstimateStart()
	}
}

func (e *Estimator[M]) notifyEnd() {
	if e.listener != nil && e.listener.OnEstimateEnd != nil {
		e.listener.OnEstimateEnd()
	}
}

func (e *Estimator[M]) notifyIteration(iteration int) {
	if e.listener != nil && e.listener.OnEstimateNextIteration != nil {
		e.listener.OnEstimateNextIteration(iteration)
	}
}

func (e *Estimator[M]) notifyProgress(progress float64) {
	if e.listener != nil && e.listener.OnEstimateProgressChange != nil {
		e.listener.OnEstimateProgressChange(progress)
	}
}
