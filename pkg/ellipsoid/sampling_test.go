package ellipsoid

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"
)

// zRotator rotates vectors by a fixed angle around the z-axis. It stands in
// for the production Rotator so the sampling contract can be verified
// without leaving the package.
type zRotator struct {
	angle float64
}

func (r zRotator) Rotate(v Vector3) Vector3 {
	sin, cos := math.Sincos(r.angle)
	return Vector3{
		X: cos*v.X - sin*v.Y,
		Y: sin*v.X + cos*v.Y,
		Z: v.Z,
	}
}

// TestInitSamplingRejectsNil verifies the nil check on the rotator
func TestInitSamplingRejectsNil(t *testing.T) {
	e := mustNew(t, 1, 2, 3)

	if err := e.InitSampling(nil); !errors.Is(err, ErrNilArgument) {
		t.Errorf("InitSampling(nil) should have failed with ErrNilArgument, got %v", err)
	}
}

// TestSamplePointsBeforeInitFails verifies the not-initialized guard
func TestSamplePointsBeforeInitFails(t *testing.T) {
	e := mustNew(t, 1, 2, 3)

	if _, err := e.SamplePoints(10); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("SamplePoints before InitSampling should have failed with ErrNotInitialized, got %v", err)
	}
}

// TestSamplePointsCount verifies that exactly n points come back for any n
func TestSamplePointsCount(t *testing.T) {
	e := mustNew(t, 1, 2, 3)
	if err := e.InitSampling(zRotator{}); err != nil {
		t.Fatalf("InitSampling failed: %v", err)
	}

	for _, n := range []uint{1, 7, 100} {
		points, err := e.SamplePoints(n)
		if err != nil {
			t.Fatalf("SamplePoints(%d) failed: %v", n, err)
		}
		if uint(len(points)) != n {
			t.Errorf("Expected %d points, got %d", n, len(points))
		}
	}
}

// TestSamplePointsSolveEllipsoidEquation verifies that every sampled point
// lies on the surface of a rotated, translated ellipsoid. The points are
// moved back into the local frame so the axis-aligned ellipsoid equation
// can be asserted directly.
func TestSamplePointsSolveEllipsoidEquation(t *testing.T) {
	a, b, c := 2.0, 3.0, 4.0
	alpha := math.Pi / 4.0

	e := mustNew(t, a, b, c)
	centroid := Vector3{X: 4, Y: 5, Z: 6}
	if err := e.SetCentroid(&centroid); err != nil {
		t.Fatalf("SetCentroid failed: %v", err)
	}
	if err := e.SetOrientation(rotationZ(alpha)); err != nil {
		t.Fatalf("SetOrientation failed: %v", err)
	}
	if err := e.InitSampling(zRotator{angle: alpha}); err != nil {
		t.Fatalf("InitSampling failed: %v", err)
	}

	const n = 100
	points, err := e.SamplePoints(n)
	if err != nil {
		t.Fatalf("SamplePoints failed: %v", err)
	}
	if len(points) != n {
		t.Fatalf("Expected %d points, got %d", n, len(points))
	}

	inverse := zRotator{angle: -alpha}
	term := func(x, r float64) float64 { return (x * x) / (r * r) }

	residuals := make([]float64, 0, n)
	for i, p := range points {
		local := inverse.Rotate(p.Sub(centroid))
		value := term(local.X, a) + term(local.Y, b) + term(local.Z, c)
		if math.Abs(value-1.0) > 1e-5 {
			t.Errorf("Point %d does not solve the ellipsoid equation: got %v", i, value)
		}
		residuals = append(residuals, value)
	}

	if mean := stat.Mean(residuals, nil); math.Abs(mean-1.0) > 1e-9 {
		t.Errorf("Mean ellipsoid equation value should be 1, got %v", mean)
	}
}

// TestSamplePointsDeterministic verifies that repeated calls produce the
// same geometric sequence in fresh slices
func TestSamplePointsDeterministic(t *testing.T) {
	e := mustNew(t, 2, 3, 4)
	if err := e.InitSampling(zRotator{angle: 0.3}); err != nil {
		t.Fatalf("InitSampling failed: %v", err)
	}

	first, err := e.SamplePoints(50)
	if err != nil {
		t.Fatalf("First SamplePoints failed: %v", err)
	}
	second, err := e.SamplePoints(50)
	if err != nil {
		t.Fatalf("Second SamplePoints failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Sampling is not deterministic: point %d differs (%+v vs %+v)",
				i, first[i], second[i])
		}
	}

	// The calls must not share a backing array
	first[0] = Vector3{X: math.NaN()}
	if math.IsNaN(second[0].X) {
		t.Error("SamplePoints calls share a backing array")
	}
}

// TestInitSamplingRebinds verifies that a second InitSampling replaces the
// rotator rather than failing
func TestInitSamplingRebinds(t *testing.T) {
	e := mustNew(t, 2, 3, 4)
	if err := e.InitSampling(zRotator{}); err != nil {
		t.Fatalf("InitSampling failed: %v", err)
	}

	// With a single sample the spiral starts at the local (a, 0, 0) point
	points, err := e.SamplePoints(1)
	if err != nil {
		t.Fatalf("SamplePoints failed: %v", err)
	}
	if d := points[0].Sub(Vector3{X: 2}); d.Length() > 1e-12 {
		t.Fatalf("Expected first sample at (2, 0, 0), got %+v", points[0])
	}

	if err := e.InitSampling(zRotator{angle: math.Pi / 2}); err != nil {
		t.Fatalf("Rebinding InitSampling failed: %v", err)
	}
	points, err = e.SamplePoints(1)
	if err != nil {
		t.Fatalf("SamplePoints after rebind failed: %v", err)
	}
	if d := points[0].Sub(Vector3{Y: 2}); d.Length() > 1e-12 {
		t.Errorf("Rebound rotator not used: expected (0, 2, 0), got %+v", points[0])
	}
}

// TestSurfaceCloudNearest verifies that a sampled surface supports
// nearest-neighbour queries through the kd-tree adapter
func TestSurfaceCloudNearest(t *testing.T) {
	e := mustNew(t, 2, 3, 4)
	if err := e.InitSampling(zRotator{}); err != nil {
		t.Fatalf("InitSampling failed: %v", err)
	}

	points, err := e.SamplePoints(500)
	if err != nil {
		t.Fatalf("SamplePoints failed: %v", err)
	}

	tree := kdtree.New(SurfaceCloud(points), false)

	// A query far along +x should resolve to a sample near the tip of the
	// a axis at (2, 0, 0).
	got, dist := tree.Nearest(Vector3{X: 10})
	nearest := got.(Vector3)
	if nearest.X < 1.5 {
		t.Errorf("Nearest surface point to (10, 0, 0) should sit near the +x tip, got %+v", nearest)
	}
	if dist > 75 {
		t.Errorf("Squared distance to nearest surface point too large: %v", dist)
	}

	// A query at the centroid resolves to some surface point no farther
	// than the longest semi-axis.
	_, dist = tree.Nearest(Vector3{})
	if dist > 16+1e-9 {
		t.Errorf("Nearest surface point to the centroid beyond the c axis: squared distance %v", dist)
	}
}

// BenchmarkSamplePoints benchmarks surface sampling
func BenchmarkSamplePoints(b *testing.B) {
	e, err := New(2, 3, 4)
	if err != nil {
		b.Fatalf("Failed to create ellipsoid: %v", err)
	}
	if err := e.InitSampling(zRotator{angle: 0.5}); err != nil {
		b.Fatalf("InitSampling failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.SamplePoints(1000); err != nil {
			b.Fatalf("SamplePoints failed: %v", err)
		}
	}
}
