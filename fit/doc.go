// Package fit contains the concrete estimation problems: minimal-sample
// solvers and residual functions for 2D/3D point-correspondence
// transformations (euclidean, metric, affine, projective), circles, conics,
// dual quadrics and 3D points from planes. Each problem plugs into the
// generic engine in the estimation package; convenience constructors return
// ready-to-configure estimators.
package fit
