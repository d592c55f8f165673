package estimation

// InliersData is the result bundle of a completed estimation. It is created
// once per successful Estimate call and is immutable afterwards.
type InliersData struct {
	// Inliers marks, per datum, whether it supports the returned model. Nil
	// when inlier keeping was disabled on a threshold-based method.
	Inliers []bool

	// Residuals holds the residual of every datum under the returned model.
	// Nil when residual keeping was disabled on a threshold-based method.
	Residuals []float64

	// NumInliers counts the data marked as inliers.
	NumInliers int

	// MedianResidual is the achieved (weighted) median residual. Only set by
	// LMedS and PROMedS.
	MedianResidual float64

	// Scale is the robust standard deviation derived from MedianResidual,
	// useful to callers re-thresholding afterwards. Only set by LMedS and
	// PROMedS.
	Scale float64
}
