package common

import (
	"math"

	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the signed distance from a point to the plane.
// Positive values lie in the half-space the normal points into.
//
// Parameters:
//   - p: the point to measure
//
// Returns:
//   - float32: the signed distance
func (pl *Plane) SignedDistance(p [3]float32) float32 {
	return pl.Normal[0]*p[0] + pl.Normal[1]*p[1] + pl.Normal[2]*p[2] + pl.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that the positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined View * Projection matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row
	// So M[i][j] = viewProj[j*4 + i]

	// Left plane: row3 + row0
	f.Planes[FrustumLeft].Normal[0] = viewProj[3] + viewProj[0]
	f.Planes[FrustumLeft].Normal[1] = viewProj[7] + viewProj[4]
	f.Planes[FrustumLeft].Normal[2] = viewProj[11] + viewProj[8]
	f.Planes[FrustumLeft].Distance = viewProj[15] + viewProj[12]

	// Right plane: row3 - row0
	f.Planes[FrustumRight].Normal[0] = viewProj[3] - viewProj[0]
	f.Planes[FrustumRight].Normal[1] = viewProj[7] - viewProj[4]
	f.Planes[FrustumRight].Normal[2] = viewProj[11] - viewProj[8]
	f.Planes[FrustumRight].Distance = viewProj[15] - viewProj[12]

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom].Normal[0] = viewProj[3] + viewProj[1]
	f.Planes[FrustumBottom].Normal[1] = viewProj[7] + viewProj[5]
	f.Planes[FrustumBottom].Normal[2] = viewProj[11] + viewProj[9]
	f.Planes[FrustumBottom].Distance = viewProj[15] + viewProj[13]

	// Top plane: row3 - row1
	f.Planes[FrustumTop].Normal[0] = viewProj[3] - viewProj[1]
	f.Planes[FrustumTop].Normal[1] = viewProj[7] - viewProj[5]
	f.Planes[FrustumTop].Normal[2] = viewProj[11] - viewProj[9]
	f.Planes[FrustumTop].Distance = viewProj[15] - viewProj[13]

	// Near plane: row3 + row2
	f.Planes[FrustumNear].Normal[0] = viewProj[3] + viewProj[2]
	f.Planes[FrustumNear].Normal[1] = viewProj[7] + viewProj[6]
	f.Planes[FrustumNear].Normal[2] = viewProj[11] + viewProj[10]
	f.Planes[FrustumNear].Distance = viewProj[15] + viewProj[14]

	// Far plane: row3 - row2
	f.Planes[FrustumFar].Normal[0] = viewProj[3] - viewProj[2]
	f.Planes[FrustumFar].Normal[1] = viewProj[7] - viewProj[6]
	f.Planes[FrustumFar].Normal[2] = viewProj[11] - viewProj[10]
	f.Planes[FrustumFar].Distance = viewProj[15] - viewProj[14]

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(
		p.Normal[0]*p.Normal[0] +
			p.Normal[1]*p.Normal[1] +
			p.Normal[2]*p.Normal[2],
	)))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal[0] *= invLen
		p.Normal[1] *= invLen
		p.Normal[2] *= invLen
		p.Distance *= invLen
	}
}

// IntersectsBox reports whether the box is at least partially inside the
// frustum. For each plane the box's most-positive vertex along the plane
// normal is tested; the box is rejected the moment one plane has the whole
// box on its negative side. The test is conservative for boxes that straddle
// a frustum corner, which only costs a draw, never a wrongly culled one.
//
// Parameters:
//   - b: the box to test, in the same space the frustum was extracted in
//
// Returns:
//   - bool: true when the box overlaps the frustum volume
func (f *Frustum) IntersectsBox(b BoundingBox) bool {
	if b.IsInfinite() {
		return true
	}
	for i := range f.Planes {
		p := &f.Planes[i]
		r := b.Extent[0]*math32.Abs(p.Normal[0]) +
			b.Extent[1]*math32.Abs(p.Normal[1]) +
			b.Extent[2]*math32.Abs(p.Normal[2])
		if p.SignedDistance(b.Center)+r < 0 {
			return false
		}
	}
	return true
}

// ContainsBox reports whether the box lies entirely inside the frustum: the
// most-negative vertex of the box must be on the inside of every plane.
//
// Parameters:
//   - b: the box to test, in the same space the frustum was extracted in
//
// Returns:
//   - bool: true when no part of the box leaves the frustum volume
func (f *Frustum) ContainsBox(b BoundingBox) bool {
	if b.IsInfinite() {
		return false
	}
	for i := range f.Planes {
		p := &f.Planes[i]
		r := b.Extent[0]*math32.Abs(p.Normal[0]) +
			b.Extent[1]*math32.Abs(p.Normal[1]) +
			b.Extent[2]*math32.Abs(p.Normal[2])
		if p.SignedDistance(b.Center)-r < 0 {
			return false
		}
	}
	return true
}
