// Package rotation provides a quaternion-backed implementation of the
// Rotator capability consumed by the ellipsoid model during surface
// sampling.
package rotation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"osteon/pkg/ellipsoid"
)

// properRotationTolerance bounds how far the determinant of a basis passed
// to FromMatrix may deviate from +1
const properRotationTolerance = 1e-10

// Rotation applies a fixed 3D rotation to vectors. The zero value is not
// useful; build one with Identity, NewAxisAngle or FromMatrix. A Rotation
// is immutable and safe to share between goroutines.
type Rotation struct {
	q quat.Number
}

// Identity returns the rotation that leaves every vector unchanged
func Identity() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// NewAxisAngle returns the rotation of angle radians around the given axis.
// The axis may have any non-zero magnitude; it is normalized internally.
func NewAxisAngle(axis ellipsoid.Vector3, angle float64) (Rotation, error) {
	if !axis.IsFinite() || axis.Length() == 0 {
		return Rotation{}, fmt.Errorf("rotation axis must be finite and non-zero, got %+v", axis)
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return Rotation{}, fmt.Errorf("rotation angle must be finite, got %v", angle)
	}

	unit := axis.Normalize()
	sin, cos := math.Sincos(angle / 2.0)
	return Rotation{q: quat.Number{
		Real: cos,
		Imag: sin * unit.X,
		Jmag: sin * unit.Y,
		Kmag: sin * unit.Z,
	}}, nil
}

// FromMatrix returns the rotation represented by a 3x3 proper rotation
// matrix, so callers holding an orientation basis can sample in that
// orientation. The matrix must be orthonormal with determinant +1;
// left-handed bases have no quaternion representation and are rejected.
func FromMatrix(basis *mat.Dense) (Rotation, error) {
	if basis == nil {
		return Rotation{}, fmt.Errorf("rotation basis is nil")
	}
	rows, cols := basis.Dims()
	if rows != 3 || cols != 3 {
		return Rotation{}, fmt.Errorf("rotation basis must be 3x3, got %dx%d", rows, cols)
	}
	if d := mat.Det(basis); math.Abs(d-1) > properRotationTolerance {
		return Rotation{}, fmt.Errorf("rotation basis must be a proper rotation, determinant %v", d)
	}

	m := func(i, j int) float64 { return basis.At(i, j) }
	var q quat.Number

	// Shepperd's method: branch on the largest of the four quaternion
	// components to keep the divisor well away from zero.
	trace := m(0, 0) + m(1, 1) + m(2, 2)
	switch {
	case trace > 0:
		s := 2.0 * math.Sqrt(trace+1.0)
		q.Real = s / 4.0
		q.Imag = (m(2, 1) - m(1, 2)) / s
		q.Jmag = (m(0, 2) - m(2, 0)) / s
		q.Kmag = (m(1, 0) - m(0, 1)) / s
	case m(0, 0) > m(1, 1) && m(0, 0) > m(2, 2):
		s := 2.0 * math.Sqrt(1.0+m(0, 0)-m(1, 1)-m(2, 2))
		q.Real = (m(2, 1) - m(1, 2)) / s
		q.Imag = s / 4.0
		q.Jmag = (m(0, 1) + m(1, 0)) / s
		q.Kmag = (m(0, 2) + m(2, 0)) / s
	case m(1, 1) > m(2, 2):
		s := 2.0 * math.Sqrt(1.0+m(1, 1)-m(0, 0)-m(2, 2))
		q.Real = (m(0, 2) - m(2, 0)) / s
		q.Imag = (m(0, 1) + m(1, 0)) / s
		q.Jmag = s / 4.0
		q.Kmag = (m(1, 2) + m(2, 1)) / s
	default:
		s := 2.0 * math.Sqrt(1.0+m(2, 2)-m(0, 0)-m(1, 1))
		q.Real = (m(1, 0) - m(0, 1)) / s
		q.Imag = (m(0, 2) + m(2, 0)) / s
		q.Jmag = (m(1, 2) + m(2, 1)) / s
		q.Kmag = s / 4.0
	}

	return Rotation{q: q}, nil
}

// Rotate applies the rotation to a vector and returns the rotated copy.
// The input is never mutated.
func (r Rotation) Rotate(v ellipsoid.Vector3) ellipsoid.Vector3 {
	// Raise the vector to a pure quaternion and conjugate it by the
	// rotation, q * p * q^-1.
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	pp := quat.Mul(quat.Mul(r.q, p), quat.Conj(r.q))
	return ellipsoid.Vector3{X: pp.Imag, Y: pp.Jmag, Z: pp.Kmag}
}

// Inverse returns the rotation that undoes this one
func (r Rotation) Inverse() Rotation {
	return Rotation{q: quat.Conj(r.q)}
}
