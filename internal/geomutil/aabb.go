// Package geomutil implements the numeric building blocks of the
// geometry-packaging pipeline: axis-aligned bounding boxes, oct-encoding of
// unit normals, position quantization against an AABB, and dihedral-angle
// edge-index extraction. Every function here takes explicit buffers and
// returns explicit results — no hidden state, matching the shape of the
// teacher's own per-tile numeric transforms (rfx.Dequantize, rfx.InverseDWT2D).
package geomutil

import "math"

// AABB is an axis-aligned bounding box: three mins, three maxes.
type AABB struct {
	Min [3]float32
	Max [3]float32
}

// EmptyAABB returns an AABB with inverted bounds, ready to be grown by
// repeated calls to ExpandPoint/ExpandAABB.
func EmptyAABB() AABB {
	return AABB{
		Min: [3]float32{float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1))},
		Max: [3]float32{float32(math.Inf(-1)), float32(math.Inf(-1)), float32(math.Inf(-1))},
	}
}

// Valid reports whether the box has been grown at least once (Min <= Max
// on every axis).
func (a AABB) Valid() bool {
	return a.Min[0] <= a.Max[0] && a.Min[1] <= a.Max[1] && a.Min[2] <= a.Max[2]
}

// ExpandPoint grows the box in place to include p.
func (a *AABB) ExpandPoint(p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < a.Min[i] {
			a.Min[i] = p[i]
		}
		if p[i] > a.Max[i] {
			a.Max[i] = p[i]
		}
	}
}

// ExpandAABB grows the box in place to include b.
func (a *AABB) ExpandAABB(b AABB) {
	if !b.Valid() {
		return
	}
	a.ExpandPoint(b.Min)
	a.ExpandPoint(b.Max)
}

// Contains reports whether b lies fully within a, within a small float
// epsilon on each axis (used by the tiler's placement rule).
func (a AABB) Contains(b AABB) bool {
	const eps = 1e-4
	for i := 0; i < 3; i++ {
		if b.Min[i] < a.Min[i]-eps || b.Max[i] > a.Max[i]+eps {
			return false
		}
	}
	return true
}

// LongestAxis returns the index (0=x, 1=y, 2=z) of the box's longest
// extent. Ties are broken by the lower index.
func (a AABB) LongestAxis() int {
	longest := 0
	longestExtent := a.Max[0] - a.Min[0]
	for i := 1; i < 3; i++ {
		extent := a.Max[i] - a.Min[i]
		if extent > longestExtent {
			longestExtent = extent
			longest = i
		}
	}
	return longest
}

// SplitHalf splits the box in half along axis, returning the lower and
// upper halves.
func (a AABB) SplitHalf(axis int) (lower, upper AABB) {
	lower, upper = a, a
	mid := (a.Min[axis] + a.Max[axis]) / 2
	lower.Max[axis] = mid
	upper.Min[axis] = mid
	return lower, upper
}

// ToSlice6 flattens the box to [xmin,ymin,zmin,xmax,ymax,zmax], the wire
// layout used by each_tile_aabb.
func (a AABB) ToSlice6() [6]float32 {
	return [6]float32{a.Min[0], a.Min[1], a.Min[2], a.Max[0], a.Max[1], a.Max[2]}
}
