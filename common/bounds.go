package common

import (
	"github.com/chewxy/math32"
)

// BoundingBox is an axis-aligned bounding volume stored as a center point and
// per-axis half-widths. Two sentinel values exist: the zero box (all fields
// zero) acts as the identity element for Combine, and the infinite box
// (extents all +Inf, center at the origin by convention) absorbs every
// combination. Spatial nodes start with infinite bounds so that nothing is
// culled before real bounds are assigned.
type BoundingBox struct {
	// Center is the box midpoint.
	Center [3]float32

	// Extent holds the half-widths along each axis. All components are
	// non-negative, or all +Inf for the infinite sentinel.
	Extent [3]float32
}

// ZeroBox returns the empty bounding box, the identity element for Combine.
func ZeroBox() BoundingBox {
	return BoundingBox{}
}

// InfiniteBox returns the unbounded sentinel: extents all +Inf, center at
// the origin.
func InfiniteBox() BoundingBox {
	inf := math32.Inf(1)
	return BoundingBox{Extent: [3]float32{inf, inf, inf}}
}

// BoxFromMinMax builds a bounding box from opposite corners.
//
// Parameters:
//   - min: the component-wise minimum corner
//   - max: the component-wise maximum corner
//
// Returns:
//   - BoundingBox: the box spanning [min, max] on each axis
func BoxFromMinMax(min, max [3]float32) BoundingBox {
	var b BoundingBox
	for i := 0; i < 3; i++ {
		b.Center[i] = (min[i] + max[i]) * 0.5
		b.Extent[i] = (max[i] - min[i]) * 0.5
	}
	return b
}

// BoxFromPositions computes the tightest box around a flat position array
// (x, y, z triplets). Returns the zero box when the input holds no complete
// triplet.
//
// Parameters:
//   - positions: vertex positions, 3 floats per vertex
//
// Returns:
//   - BoundingBox: the tightest enclosing box
func BoxFromPositions(positions []float32) BoundingBox {
	if len(positions) < 3 {
		return ZeroBox()
	}
	min := [3]float32{positions[0], positions[1], positions[2]}
	max := min
	for i := 3; i+2 < len(positions); i += 3 {
		for a := 0; a < 3; a++ {
			v := positions[i+a]
			if v < min[a] {
				min[a] = v
			}
			if v > max[a] {
				max[a] = v
			}
		}
	}
	return BoxFromMinMax(min, max)
}

// IsZero reports whether the box is the empty sentinel.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// IsInfinite reports whether the box is the unbounded sentinel.
func (b BoundingBox) IsInfinite() bool {
	return math32.IsInf(b.Extent[0], 1) && math32.IsInf(b.Extent[1], 1) && math32.IsInf(b.Extent[2], 1)
}

// Min returns the component-wise minimum corner.
func (b BoundingBox) Min() [3]float32 {
	return [3]float32{b.Center[0] - b.Extent[0], b.Center[1] - b.Extent[1], b.Center[2] - b.Extent[2]}
}

// Max returns the component-wise maximum corner.
func (b BoundingBox) Max() [3]float32 {
	return [3]float32{b.Center[0] + b.Extent[0], b.Center[1] + b.Extent[1], b.Center[2] + b.Extent[2]}
}

// Combine returns the smallest box enclosing both b and o. The zero box is
// the identity element; an infinite operand makes the result infinite.
//
// Parameters:
//   - o: the other box
//
// Returns:
//   - BoundingBox: the union of the two boxes
func (b BoundingBox) Combine(o BoundingBox) BoundingBox {
	if b.IsInfinite() || o.IsInfinite() {
		return InfiniteBox()
	}
	if b.IsZero() {
		return o
	}
	if o.IsZero() {
		return b
	}
	bMin, bMax := b.Min(), b.Max()
	oMin, oMax := o.Min(), o.Max()
	for i := 0; i < 3; i++ {
		if oMin[i] < bMin[i] {
			bMin[i] = oMin[i]
		}
		if oMax[i] > bMax[i] {
			bMax[i] = oMax[i]
		}
	}
	return BoxFromMinMax(bMin, bMax)
}

// Transform returns the axis-aligned box enclosing this box after applying a
// 4x4 column-major affine transform. The new extents are computed from the
// absolute values of the rotation/scale columns, which yields the tightest
// axis-aligned fit of the rotated box. Sentinel boxes pass through unchanged.
//
// Parameters:
//   - m: transform matrix (16 elements, column-major)
//
// Returns:
//   - BoundingBox: the transformed box
func (b BoundingBox) Transform(m []float32) BoundingBox {
	if b.IsZero() || b.IsInfinite() {
		return b
	}
	var out BoundingBox
	out.Center[0] = m[0]*b.Center[0] + m[4]*b.Center[1] + m[8]*b.Center[2] + m[12]
	out.Center[1] = m[1]*b.Center[0] + m[5]*b.Center[1] + m[9]*b.Center[2] + m[13]
	out.Center[2] = m[2]*b.Center[0] + m[6]*b.Center[1] + m[10]*b.Center[2] + m[14]
	for row := 0; row < 3; row++ {
		out.Extent[row] = math32.Abs(m[row])*b.Extent[0] +
			math32.Abs(m[4+row])*b.Extent[1] +
			math32.Abs(m[8+row])*b.Extent[2]
	}
	return out
}

// Intersects reports whether the two boxes overlap. The boxes are disjoint
// exactly when some axis separates them, so the per-axis tests compose with
// AND. An infinite operand intersects everything except the zero box.
//
// Parameters:
//   - o: the other box
//
// Returns:
//   - bool: true when the boxes overlap on every axis
func (b BoundingBox) Intersects(o BoundingBox) bool {
	if b.IsZero() || o.IsZero() {
		return false
	}
	if b.IsInfinite() || o.IsInfinite() {
		return true
	}
	for i := 0; i < 3; i++ {
		if math32.Abs(b.Center[i]-o.Center[i]) > b.Extent[i]+o.Extent[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o lies entirely within b.
//
// Parameters:
//   - o: the candidate inner box
//
// Returns:
//   - bool: true when every point of o is inside b
func (b BoundingBox) Contains(o BoundingBox) bool {
	if o.IsZero() {
		return false
	}
	if b.IsInfinite() {
		return true
	}
	if o.IsInfinite() {
		return false
	}
	for i := 0; i < 3; i++ {
		if o.Center[i]-o.Extent[i] < b.Center[i]-b.Extent[i] {
			return false
		}
		if o.Center[i]+o.Extent[i] > b.Center[i]+b.Extent[i] {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether the point lies inside the box.
//
// Parameters:
//   - p: the point to test
//
// Returns:
//   - bool: true when p is inside or on the boundary
func (b BoundingBox) ContainsPoint(p [3]float32) bool {
	if b.IsZero() {
		return false
	}
	for i := 0; i < 3; i++ {
		if math32.Abs(p[i]-b.Center[i]) > b.Extent[i] {
			return false
		}
	}
	return true
}
