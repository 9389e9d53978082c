package ellipsoid

import "gonum.org/v1/gonum/spatial/kdtree"

// Compare implements the kdtree.Comparable interface
func (v Vector3) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	u := c.(Vector3)
	switch d {
	case 0:
		return v.X - u.X
	case 1:
		return v.Y - u.Y
	case 2:
		return v.Z - u.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (v Vector3) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two points
func (v Vector3) Distance(c kdtree.Comparable) float64 {
	u := c.(Vector3)
	d := v.Sub(u)
	return d.Dot(d) // Return squared distance for efficiency
}

// SurfaceCloud is a set of sampled surface points that satisfies
// kdtree.Interface, so that consumers running Monte-Carlo membership tests
// can make nearest-surface-point queries against a sampled ellipsoid.
type SurfaceCloud []Vector3

func (s SurfaceCloud) Index(i int) kdtree.Comparable         { return s[i] }
func (s SurfaceCloud) Len() int                              { return len(s) }
func (s SurfaceCloud) Slice(start, end int) kdtree.Interface { return s[start:end] }

// Pivot implements the kdtree.Interface method
func (s SurfaceCloud) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(surfacePlane{SurfaceCloud: s, Dim: d}, kdtree.MedianOfRandoms(surfacePlane{SurfaceCloud: s, Dim: d}, 100))
}

// surfacePlane implements sort.Interface and kdtree.SortSlicer for SurfaceCloud
type surfacePlane struct {
	SurfaceCloud
	kdtree.Dim
}

func (p surfacePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.SurfaceCloud[i].X < p.SurfaceCloud[j].X
	case 1:
		return p.SurfaceCloud[i].Y < p.SurfaceCloud[j].Y
	case 2:
		return p.SurfaceCloud[i].Z < p.SurfaceCloud[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p surfacePlane) Slice(start, end int) kdtree.SortSlicer {
	return surfacePlane{SurfaceCloud: p.SurfaceCloud[start:end], Dim: p.Dim}
}

func (p surfacePlane) Swap(i, j int) {
	p.SurfaceCloud[i], p.SurfaceCloud[j] = p.SurfaceCloud[j], p.SurfaceCloud[i]
}
