// Package estimation implements a family of robust sample-consensus
// estimators (RANSAC, MSAC, LMedS, PROSAC and PROMedS) sharing a single
// engine. The engine repeatedly draws minimal subsets of the data, fits
// candidate models through a Problem plug-in, scores each candidate against
// the entire dataset, and keeps the best supported model. The threshold
// methods adaptively shrink their iteration budget from the observed inlier
// ratio; the median methods run the classical trial count for a 50 percent
// breakdown point and can stop early on a good enough median. An optional
// non-linear refinement stage re-fits the winning model over its inliers and
// can produce a parameter covariance estimate.
//
// Concrete model solvers (2D/3D transformations, circles, conics, quadrics,
// points) live in the fit package.
package estimation
