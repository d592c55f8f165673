package estimation

// Method selects which sample-consensus algorithm an Estimator runs.
type Method int

// The available robust estimation methods.
const (
	// RANSAC scores candidates by the number of residuals below a threshold.
	RANSAC Method = iota
	// LMedS scores candidates by the median residual and needs no threshold.
	LMedS
	// MSAC scores candidates by a truncated squared loss, a bounded-influence
	// variant of RANSAC.
	MSAC
	// PROSAC is RANSAC with sampling prioritized by per-datum quality scores.
	PROSAC
	// PROMedS is LMedS with a quality-score weighted median.
	PROMedS
)

// DefaultMethod is used by Create when no method is given.
const DefaultMethod = PROMedS

func (m Method) String() string {
	switch m {
	case RANSAC:
		return "RANSAC"
	case LMedS:
		return "LMedS"
	case MSAC:
		return "MSAC"
	case PROSAC:
		return "PROSAC"
	case PROMedS:
		return "PROMedS"
	default:
		return "unknown"
	}
}

func (m Method) valid() bool {
	return m >= RANSAC && m <= PROMedS
}

// usesThreshold reports whether the method scores against a fixed inlier
// threshold rather than a (weighted) median.
func (m Method) usesThreshold() bool {
	return m == RANSAC || m == MSAC || m == PROSAC
}

// usesQualityScores reports whether the method needs per-datum quality scores.
func (m Method) usesQualityScores() bool {
	return m == PROSAC || m == PROMedS
}
