// Package geometry provides the primitive types consumed by the robust
// estimators: homogeneous 2D/3D transformations, circles, conics, dual
// quadrics and planes, together with the residual formulas the consensus
// scorers rely on. Degenerate constructions report a false ok value rather
// than an error; the estimation engine treats them as "no candidate".
package geometry
