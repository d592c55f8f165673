package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestTransform2(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		p := r2.Point{X: 3, Y: -4}
		test.That(t, Identity2().Apply(p), test.ShouldResemble, p)
	})

	t.Run("similarity", func(t *testing.T) {
		tr := NewSimilarity2(2, math.Pi/2, 1, 0)
		q := tr.Apply(r2.Point{X: 1, Y: 0})
		test.That(t, q.X, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, q.Y, test.ShouldAlmostEqual, 2, 1e-12)
	})

	t.Run("inverse round trip", func(t *testing.T) {
		tr := NewSimilarity2(1.5, 0.3, -2, 4)
		inv, ok := tr.Inverse()
		test.That(t, ok, test.ShouldBeTrue)
		p := r2.Point{X: 5, Y: -7}
		back := inv.Apply(tr.Apply(p))
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, 1e-12)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, 1e-12)
	})

	t.Run("singular", func(t *testing.T) {
		_, ok := Transform2{}.Inverse()
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("transfer errors", func(t *testing.T) {
		tr := NewSimilarity2(1, 0, 1, 1)
		p := r2.Point{X: 0, Y: 0}
		q := r2.Point{X: 1, Y: 1}
		test.That(t, tr.TransferError(p, q), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, tr.SymmetricTransferError(p, q), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, tr.TransferError(p, p), test.ShouldAlmostEqual, math.Sqrt2, 1e-12)
	})

	t.Run("point at infinity", func(t *testing.T) {
		var tr Transform2
		tr.M = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}}
		mapped := tr.Apply(r2.Point{X: 0, Y: 1})
		test.That(t, math.IsInf(mapped.X, 1), test.ShouldBeTrue)
	})
}

func TestTransform3(t *testing.T) {
	t.Run("rigid", func(t *testing.T) {
		rotation := RotationFromVector(r3.Vector{Z: math.Pi / 2})
		tr := NewRigid3(rotation, r3.Vector{X: 1})
		q := tr.Apply(r3.Vector{X: 1})
		test.That(t, q.X, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, q.Y, test.ShouldAlmostEqual, 1, 1e-12)
		test.That(t, q.Z, test.ShouldAlmostEqual, 0, 1e-12)
	})

	t.Run("inverse round trip", func(t *testing.T) {
		rotation := RotationFromVector(r3.Vector{X: 0.4, Y: -0.1, Z: 0.7})
		tr := NewRigid3(rotation, r3.Vector{X: 1, Y: 2, Z: 3})
		inv, ok := tr.Inverse()
		test.That(t, ok, test.ShouldBeTrue)
		p := r3.Vector{X: -2, Y: 5, Z: 0.5}
		back := inv.Apply(tr.Apply(p))
		test.That(t, back.X, test.ShouldAlmostEqual, p.X, 1e-12)
		test.That(t, back.Y, test.ShouldAlmostEqual, p.Y, 1e-12)
		test.That(t, back.Z, test.ShouldAlmostEqual, p.Z, 1e-12)
	})

	t.Run("singular", func(t *testing.T) {
		_, ok := Transform3{}.Inverse()
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("symmetric transfer error", func(t *testing.T) {
		tr := NewRigid3(RotationFromVector(r3.Vector{}), r3.Vector{X: 1})
		p := r3.Vector{}
		q := r3.Vector{X: 1}
		test.That(t, tr.SymmetricTransferError(p, q), test.ShouldAlmostEqual, 0, 1e-12)
	})
}

func TestRotationVector(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, v := range []r3.Vector{
			{X: 0.3, Y: -0.5, Z: 0.2},
			{Z: 1.4},
			{X: -2, Y: 0.1, Z: 0.6},
		} {
			back := RotationToVector(RotationFromVector(v))
			test.That(t, back.X, test.ShouldAlmostEqual, v.X, 1e-9)
			test.That(t, back.Y, test.ShouldAlmostEqual, v.Y, 1e-9)
			test.That(t, back.Z, test.ShouldAlmostEqual, v.Z, 1e-9)
		}
	})

	t.Run("identity", func(t *testing.T) {
		test.That(t, RotationToVector(RotationFromVector(r3.Vector{})), test.ShouldResemble, r3.Vector{})
	})

	t.Run("half turn", func(t *testing.T) {
		v := r3.Vector{X: math.Pi}
		back := RotationToVector(RotationFromVector(v))
		test.That(t, back.Norm(), test.ShouldAlmostEqual, math.Pi, 1e-6)
		test.That(t, math.Abs(back.X), test.ShouldAlmostEqual, math.Pi, 1e-6)
	})

	t.Run("rotation matrix is orthonormal", func(t *testing.T) {
		m := RotationFromVector(r3.Vector{X: 0.7, Y: 0.2, Z: -0.4})
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				dot := 0.0
				for k := 0; k < 3; k++ {
					dot += m[i][k] * m[j][k]
				}
				expected := 0.0
				if i == j {
					expected = 1
				}
				test.That(t, dot, test.ShouldAlmostEqual, expected, 1e-12)
			}
		}
	})
}
