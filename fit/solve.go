package fit

import "gonum.org/v1/gonum/mat"

// rankTolerance is the relative singular value cutoff below which a linear
// system is treated as rank deficient, i.e. the sampled subset is
// degenerate.
const rankTolerance = 1e-9

// nullVector returns the right singular vector of a for its smallest
// singular value: the solution of the homogeneous system a*x = 0 up to
// scale. Returns false when the null space is not one dimensional, which
// covers degenerate subsets and failed factorizations.
func nullVector(a *mat.Dense) ([]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, false
	}
	values := svd.Values(nil)
	if values[0] == 0 {
		return nil, false
	}
	tol := rankTolerance * values[0]
	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	_, cols := a.Dims()
	if rank != cols-1 {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)
	out := make([]float64, cols)
	for i := range out {
		out[i] = v.At(i, cols-1)
	}
	return out, true
}

// solveLS solves the (possibly over-determined) system a*x = b in the least
// squares sense, returning false when a is rank deficient.
func solveLS(a *mat.Dense, b *mat.VecDense) ([]float64, bool) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, false
	}
	values := svd.Values(nil)
	if values[0] == 0 {
		return nil, false
	}
	tol := rankTolerance * values[0]
	rank := 0
	for _, v := range values {
		if v > tol {
			rank++
		}
	}
	_, cols := a.Dims()
	if rank < cols {
		return nil, false
	}
	var x mat.Dense
	svd.SolveTo(&x, b, rank)
	out := make([]float64, cols)
	for i := range out {
		out[i] = x.At(i, 0)
	}
	return out, true
}
