package ellipsoid

import (
	"fmt"
	"math"
)

// goldenAngle is the angular increment of the spiral used to distribute
// sample points over the unit sphere, pi * (3 - sqrt(5)) radians.
var goldenAngle = math.Pi * (3.0 - math.Sqrt(5.0))

// Rotator applies a fixed 3D rotation to a vector. The rotation is supplied
// when the Rotator is constructed and is independent of the ellipsoid's own
// orientation field. Implementations must not mutate their input and are
// treated as stateless; they are called synchronously during sampling.
type Rotator interface {
	Rotate(v Vector3) Vector3
}

// InitSampling binds the rotator used by SamplePoints and marks the model
// ready for sampling. Calling it again simply rebinds.
//
// Returns ErrNilArgument if the rotator is nil.
func (e *Ellipsoid) InitSampling(rotator Rotator) error {
	if rotator == nil {
		return fmt.Errorf("%w: rotator", ErrNilArgument)
	}
	e.rotator = rotator
	return nil
}

// SamplePoints produces n points lying on the ellipsoid's surface in world
// space. The points are generated deterministically: a golden-angle spiral
// distributes n roughly uniform directions over the unit sphere, each
// direction is scaled component-wise by the semi-axis lengths so that it
// satisfies the local ellipsoid equation, rotated through the bound
// Rotator, and translated by the centroid.
//
// Each call produces a fresh slice; for a given n the geometric sequence is
// always the same.
//
// Returns ErrNotInitialized if called before InitSampling.
func (e *Ellipsoid) SamplePoints(n uint) ([]Vector3, error) {
	if e.rotator == nil {
		return nil, fmt.Errorf("%w: call InitSampling before SamplePoints", ErrNotInitialized)
	}

	points := make([]Vector3, 0, n)
	for _, u := range unitSpherePoints(n) {
		local := Vector3{X: u.X * e.a, Y: u.Y * e.b, Z: u.Z * e.c}
		points = append(points, e.rotator.Rotate(local).Add(e.centroid))
	}
	return points, nil
}

// unitSpherePoints returns n points spread over the unit sphere along a
// golden-angle spiral. The i-th point takes its height from a uniform
// subdivision of [-1, 1] and its azimuth from i spiral increments, which
// keeps the distribution roughly uniform in area for any n.
func unitSpherePoints(n uint) []Vector3 {
	points := make([]Vector3, 0, n)
	for i := uint(0); i < n; i++ {
		z := 1.0 - (2.0*float64(i)+1.0)/float64(n)
		r := math.Sqrt(1.0 - z*z)
		phi := float64(i) * goldenAngle
		points = append(points, Vector3{
			X: r * math.Cos(phi),
			Y: r * math.Sin(phi),
			Z: z,
		})
	}
	return points
}
