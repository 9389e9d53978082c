// Package ellipsoid provides the bounded ellipsoid model used by the bone
// microarchitecture measurements. An ellipsoid is described by three ordered
// semi-axis lengths, a centroid and an orientation frame, and can produce a
// deterministic sampling of points on its surface.
//
// The model is a plain mutable value: it is not safe for unsynchronized
// concurrent mutation, and each measurement owns one instance per region
// it processes.
package ellipsoid

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// OrthogonalityTolerance is the maximum absolute dot product two normalized
// basis vectors may have while still being considered orthogonal. It is the
// acceptance threshold used by SetOrientation and SetSemiAxes.
const OrthogonalityTolerance = 1e-10

// Error values reported by the model. All validation happens before any
// field is written, so a failed call never leaves the model partially
// mutated. Callers discriminate with errors.Is.
var (
	// ErrNilArgument indicates that a required reference parameter was nil.
	ErrNilArgument = errors.New("argument is nil")

	// ErrInvalidArgument indicates a numeric value that violates the
	// ordering, positivity, finiteness or orthogonality constraints.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotInitialized indicates that surface sampling was requested
	// before a Rotator was bound with InitSampling.
	ErrNotInitialized = errors.New("sampling not initialized")
)

// Ellipsoid is an oriented, axis-ordered ellipsoid in 3-space.
//
// The semi-axis lengths always satisfy 0 < a <= b <= c. The orientation is a
// 4x4 rigid transform whose upper-left 3x3 block holds three orthonormal
// column vectors mapping local axes to world axes; the translation part is
// left as identity because centroid and orientation are independent fields,
// composed only at sampling time.
//
// Every getter returns an independent copy and every setter stores an
// independent copy, so the model never shares mutable state with its
// callers.
type Ellipsoid struct {
	// a, b, c are the semi-axis lengths, sorted ascending
	a, b, c float64

	// centroid is the world-space position of the ellipsoid center
	centroid Vector3

	// orientation is the 4x4 rigid transform of the local frame
	orientation *mat.Dense

	// rotator is the sampling collaborator; nil until InitSampling
	rotator Rotator
}

// New creates an ellipsoid from three semi-axis lengths given in any order.
// The lengths are sorted ascending and assigned so that a <= b <= c. The
// centroid initializes to the origin and the orientation to identity.
//
// Returns ErrInvalidArgument if any length is non-finite, zero or negative.
func New(x, y, z float64) (*Ellipsoid, error) {
	radii := []float64{x, y, z}
	for _, r := range radii {
		if !validRadius(r) {
			return nil, fmt.Errorf("%w: semi-axis length must be finite and positive, got %v", ErrInvalidArgument, r)
		}
	}
	sort.Float64s(radii)

	return &Ellipsoid{
		a:           radii[0],
		b:           radii[1],
		c:           radii[2],
		orientation: identityTransform(),
	}, nil
}

// NewFromSemiAxes creates an ellipsoid from three mutually orthogonal
// semi-axis vectors. The vector lengths become the semi-axis lengths and
// their normalized directions become the orientation frame, with the
// columns ordered to match the sorted lengths.
//
// Returns ErrNilArgument if any vector is nil, and ErrInvalidArgument if
// the lengths are invalid or the directions are not orthogonal.
func NewFromSemiAxes(u, v, w *Vector3) (*Ellipsoid, error) {
	if u == nil || v == nil || w == nil {
		return nil, fmt.Errorf("%w: semi-axis vector", ErrNilArgument)
	}

	// Sort local copies by length so that the shortest vector defines the
	// a axis and the longest the c axis. Stable, so vectors of equal
	// length keep their argument order.
	axes := []Vector3{*u, *v, *w}
	sort.SliceStable(axes, func(i, j int) bool {
		return axes[i].Length() < axes[j].Length()
	})

	e, err := New(axes[0].Length(), axes[1].Length(), axes[2].Length())
	if err != nil {
		return nil, err
	}

	basis := mat.NewDense(3, 3, nil)
	for i, axis := range axes {
		basis.Set(0, i, axis.X)
		basis.Set(1, i, axis.Y)
		basis.Set(2, i, axis.Z)
	}
	if err := e.SetOrientation(basis); err != nil {
		return nil, err
	}
	return e, nil
}

// A returns the length of the shortest semi-axis
func (e *Ellipsoid) A() float64 { return e.a }

// B returns the length of the middle semi-axis
func (e *Ellipsoid) B() float64 { return e.b }

// C returns the length of the longest semi-axis
func (e *Ellipsoid) C() float64 { return e.c }

// SetA replaces the shortest semi-axis length. The new value must remain
// strictly below the current b and c lengths; the other two axes are left
// untouched and the model does not re-sort.
//
// Returns ErrInvalidArgument if the value is non-finite, not positive, or
// would break the a <= b <= c ordering.
func (e *Ellipsoid) SetA(value float64) error {
	if !validRadius(value) {
		return fmt.Errorf("%w: semi-axis length must be finite and positive, got %v", ErrInvalidArgument, value)
	}
	if value >= e.b || value >= e.c {
		return fmt.Errorf("%w: a must be the shortest semi-axis", ErrInvalidArgument)
	}
	e.a = value
	return nil
}

// SetB replaces the middle semi-axis length. The new value must stay within
// the current a and c lengths (equality allowed at both ends).
//
// Returns ErrInvalidArgument if the value is non-finite, not positive, or
// would break the a <= b <= c ordering.
func (e *Ellipsoid) SetB(value float64) error {
	if !validRadius(value) {
		return fmt.Errorf("%w: semi-axis length must be finite and positive, got %v", ErrInvalidArgument, value)
	}
	if value < e.a || value > e.c {
		return fmt.Errorf("%w: b must be between a and c", ErrInvalidArgument)
	}
	e.b = value
	return nil
}

// SetC replaces the longest semi-axis length. The new value must be at
// least as long as both current a and b.
//
// Returns ErrInvalidArgument if the value is non-finite, not positive, or
// would break the a <= b <= c ordering.
func (e *Ellipsoid) SetC(value float64) error {
	if !validRadius(value) {
		return fmt.Errorf("%w: semi-axis length must be finite and positive, got %v", ErrInvalidArgument, value)
	}
	if value < e.a || value < e.b {
		return fmt.Errorf("%w: c must be the longest semi-axis", ErrInvalidArgument)
	}
	e.c = value
	return nil
}

// Centroid returns a copy of the world-space centroid
func (e *Ellipsoid) Centroid() Vector3 {
	return e.centroid
}

// SetCentroid stores a copy of the given point as the new centroid.
// Returns ErrNilArgument if the point is nil.
func (e *Ellipsoid) SetCentroid(point *Vector3) error {
	if point == nil {
		return fmt.Errorf("%w: centroid", ErrNilArgument)
	}
	e.centroid = *point
	return nil
}

// Orientation returns an independent copy of the 4x4 rigid transform that
// maps the local frame into world space. Mutating the returned matrix does
// not affect the model.
func (e *Ellipsoid) Orientation() *mat.Dense {
	return mat.DenseCopyOf(e.orientation)
}

// SetOrientation replaces the orientation frame with the given 3x3 basis.
// Each column is normalized to unit length internally, so callers may pass
// vectors of any magnitude; only the directions are kept. Left-handed bases
// are accepted, the frame need not be a proper rotation.
//
// Returns ErrNilArgument if the basis is nil, and ErrInvalidArgument if it
// is not 3x3 or its columns are not pairwise orthogonal within
// OrthogonalityTolerance.
func (e *Ellipsoid) SetOrientation(basis *mat.Dense) error {
	if basis == nil {
		return fmt.Errorf("%w: orientation basis", ErrNilArgument)
	}
	rows, cols := basis.Dims()
	if rows != 3 || cols != 3 {
		return fmt.Errorf("%w: orientation basis must be 3x3, got %dx%d", ErrInvalidArgument, rows, cols)
	}

	var columns [3]Vector3
	for i := range columns {
		col := Vector3{basis.At(0, i), basis.At(1, i), basis.At(2, i)}
		if !col.IsFinite() || col.Length() == 0 {
			return fmt.Errorf("%w: orientation basis column %d cannot be normalized", ErrInvalidArgument, i)
		}
		columns[i] = col.Normalize()
	}
	if err := checkOrthogonal(columns); err != nil {
		return err
	}

	transform := identityTransform()
	for i, col := range columns {
		transform.Set(0, i, col.X)
		transform.Set(1, i, col.Y)
		transform.Set(2, i, col.Z)
	}
	e.orientation = transform
	return nil
}

// SetSemiAxes replaces the semi-axis lengths and the orientation from three
// mutually orthogonal semi-axis vectors, with the same ordering and
// validation rules as NewFromSemiAxes. The centroid is left untouched.
func (e *Ellipsoid) SetSemiAxes(u, v, w *Vector3) error {
	replacement, err := NewFromSemiAxes(u, v, w)
	if err != nil {
		return err
	}
	e.a = replacement.a
	e.b = replacement.b
	e.c = replacement.c
	e.orientation = replacement.orientation
	return nil
}

// SemiAxes returns the three world-space semi-axis vectors: the i-th
// orientation column scaled by the i-th axis length, in (a, b, c) order.
// This is a pure projection of the current state.
func (e *Ellipsoid) SemiAxes() [3]Vector3 {
	var axes [3]Vector3
	for i, length := range []float64{e.a, e.b, e.c} {
		axes[i] = Vector3{
			X: e.orientation.At(0, i),
			Y: e.orientation.At(1, i),
			Z: e.orientation.At(2, i),
		}.Scale(length)
	}
	return axes
}

// Volume returns the volume of the ellipsoid, (4/3) * pi * a * b * c
func (e *Ellipsoid) Volume() float64 {
	return (4.0 / 3.0) * math.Pi * e.a * e.b * e.c
}

// Contains reports whether the given world-space point lies inside or on
// the surface of the ellipsoid. The point is moved into the local frame by
// subtracting the centroid and applying the transposed orientation, then
// tested against the ellipsoid equation.
func (e *Ellipsoid) Contains(point Vector3) bool {
	local := e.toLocal(point)
	term := func(x, r float64) float64 { return (x * x) / (r * r) }
	return term(local.X, e.a)+term(local.Y, e.b)+term(local.Z, e.c) <= 1.0
}

// toLocal maps a world-space point into the local, centroid-relative,
// un-rotated frame. The orientation columns are orthonormal, so the
// transpose inverts them.
func (e *Ellipsoid) toLocal(point Vector3) Vector3 {
	d := point.Sub(e.centroid)
	var local Vector3
	local.X = e.orientation.At(0, 0)*d.X + e.orientation.At(1, 0)*d.Y + e.orientation.At(2, 0)*d.Z
	local.Y = e.orientation.At(0, 1)*d.X + e.orientation.At(1, 1)*d.Y + e.orientation.At(2, 1)*d.Z
	local.Z = e.orientation.At(0, 2)*d.X + e.orientation.At(1, 2)*d.Y + e.orientation.At(2, 2)*d.Z
	return local
}

// checkOrthogonal verifies that the three normalized columns are pairwise
// orthogonal within OrthogonalityTolerance
func checkOrthogonal(columns [3]Vector3) error {
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if math.Abs(columns[i].Dot(columns[j])) >= OrthogonalityTolerance {
				return fmt.Errorf("%w: vectors must be orthogonal", ErrInvalidArgument)
			}
		}
	}
	return nil
}

// validRadius reports whether a value is usable as a semi-axis length
func validRadius(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0) && r > 0
}

// identityTransform returns a new 4x4 identity matrix
func identityTransform() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}
