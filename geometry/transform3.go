package geometry

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Transform3 is a 4x4 homogeneous spatial transformation.
type Transform3 struct {
	M [4][4]float64
}

// Identity3 returns the spatial identity transformation.
func Identity3() Transform3 {
	var t Transform3
	for i := 0; i < 4; i++ {
		t.M[i][i] = 1
	}
	return t
}

// NewRigid3 builds a spatial transformation from a scaled rotation matrix
// and a translation, keeping the last row at [0 0 0 1].
func NewRigid3(rotation [3][3]float64, translation r3.Vector) Transform3 {
	t := Identity3()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t.M[i][j] = rotation[i][j]
		}
	}
	t.M[0][3] = translation.X
	t.M[1][3] = translation.Y
	t.M[2][3] = translation.Z
	return t
}

// Apply maps p through the transformation with homogeneous division. Points
// mapped onto the plane at infinity come back infinite.
func (t Transform3) Apply(p r3.Vector) r3.Vector {
	w := t.M[3][0]*p.X + t.M[3][1]*p.Y + t.M[3][2]*p.Z + t.M[3][3]
	if w == 0 {
		inf := math.Inf(1)
		return r3.Vector{X: inf, Y: inf, Z: inf}
	}
	return r3.Vector{
		X: (t.M[0][0]*p.X + t.M[0][1]*p.Y + t.M[0][2]*p.Z + t.M[0][3]) / w,
		Y: (t.M[1][0]*p.X + t.M[1][1]*p.Y + t.M[1][2]*p.Z + t.M[1][3]) / w,
		Z: (t.M[2][0]*p.X + t.M[2][1]*p.Y + t.M[2][2]*p.Z + t.M[2][3]) / w,
	}
}

// Inverse returns the inverse transformation, or false when t is singular.
func (t Transform3) Inverse() (Transform3, bool) {
	dense := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			dense.Set(i, j, t.M[i][j])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		return Transform3{}, false
	}
	var out Transform3
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			out.M[i][j] = inv.At(i, j)
		}
	}
	return out, true
}

// TransferError is the distance between q and p mapped through t.
func (t Transform3) TransferError(p, q r3.Vector) float64 {
	return t.Apply(p).Sub(q).Norm()
}

// SymmetricTransferError averages the forward and backward transfer
// distances. Falls back to the forward distance when t is singular.
func (t Transform3) SymmetricTransferError(p, q r3.Vector) float64 {
	forward := t.TransferError(p, q)
	inv, ok := t.Inverse()
	if !ok {
		return forward
	}
	return 0.5 * (forward + inv.TransferError(q, p))
}
