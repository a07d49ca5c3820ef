package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func box(cx, cy, cz, ex, ey, ez float32) BoundingBox {
	return BoundingBox{Center: [3]float32{cx, cy, cz}, Extent: [3]float32{ex, ey, ez}}
}

func TestBoundingBoxSentinels(t *testing.T) {
	assert.True(t, ZeroBox().IsZero())
	assert.False(t, ZeroBox().IsInfinite())
	assert.True(t, InfiniteBox().IsInfinite())
	assert.False(t, InfiniteBox().IsZero())
	assert.False(t, box(1, 2, 3, 1, 1, 1).IsZero())
	assert.False(t, box(1, 2, 3, 1, 1, 1).IsInfinite())
}

func TestBoundingBoxCombineIdentity(t *testing.T) {
	b := box(1, -2, 3, 4, 5, 6)

	assert.Equal(t, b, ZeroBox().Combine(b))
	assert.Equal(t, b, b.Combine(ZeroBox()))
	assert.Equal(t, ZeroBox(), ZeroBox().Combine(ZeroBox()))
}

func TestBoundingBoxCombineAbsorption(t *testing.T) {
	b := box(1, -2, 3, 4, 5, 6)

	assert.True(t, InfiniteBox().Combine(b).IsInfinite())
	assert.True(t, b.Combine(InfiniteBox()).IsInfinite())
	assert.True(t, InfiniteBox().Combine(ZeroBox()).IsInfinite())
}

func TestBoundingBoxCombineCommutative(t *testing.T) {
	a := box(0, 0, 0, 1, 1, 1)
	b := box(4, 4, 4, 2, 2, 2)

	ab := a.Combine(b)
	ba := b.Combine(a)
	assert.Equal(t, ab, ba)
	assert.Equal(t, [3]float32{-1, -1, -1}, ab.Min())
	assert.Equal(t, [3]float32{6, 6, 6}, ab.Max())
}

func TestBoundingBoxCombineEnclosesBoth(t *testing.T) {
	a := box(-3, 1, 0, 1, 1, 1)
	b := box(2, -1, 5, 0.5, 2, 1)

	u := a.Combine(b)
	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))
}

func TestBoundingBoxIntersectsPerAxis(t *testing.T) {
	base := box(0, 0, 0, 1, 1, 1)

	// Disjoint on exactly one axis must report no intersection, overlap on
	// the other two axes notwithstanding.
	tests := []struct {
		name  string
		other BoundingBox
		want  bool
	}{
		{"identical", box(0, 0, 0, 1, 1, 1), true},
		{"overlap all axes", box(1.5, 1.5, 1.5, 1, 1, 1), true},
		{"touching faces", box(2, 0, 0, 1, 1, 1), true},
		{"separated on x only", box(3, 0, 0, 1, 1, 1), false},
		{"separated on y only", box(0, 3, 0, 1, 1, 1), false},
		{"separated on z only", box(0, 0, 3, 1, 1, 1), false},
		{"separated on all axes", box(5, 5, 5, 1, 1, 1), false},
		{"contained", box(0, 0, 0, 0.25, 0.25, 0.25), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(base))
		})
	}
}

func TestBoundingBoxIntersectsSentinels(t *testing.T) {
	b := box(10, 10, 10, 1, 1, 1)

	assert.True(t, InfiniteBox().Intersects(b))
	assert.True(t, b.Intersects(InfiniteBox()))
	assert.False(t, ZeroBox().Intersects(b))
	assert.False(t, b.Intersects(ZeroBox()))
	assert.False(t, InfiniteBox().Intersects(ZeroBox()))
}

func TestBoundingBoxContains(t *testing.T) {
	outer := box(0, 0, 0, 4, 4, 4)

	tests := []struct {
		name  string
		inner BoundingBox
		want  bool
	}{
		{"strictly inside", box(1, 1, 1, 1, 1, 1), true},
		{"equal boxes", box(0, 0, 0, 4, 4, 4), true},
		{"poking out on x", box(3.5, 0, 0, 1, 1, 1), false},
		{"fully outside", box(10, 0, 0, 1, 1, 1), false},
		{"infinite inner", InfiniteBox(), false},
		{"zero inner", ZeroBox(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outer.Contains(tt.inner))
		})
	}

	assert.True(t, InfiniteBox().Contains(outer))
}

func TestBoundingBoxContainsPoint(t *testing.T) {
	b := box(1, 1, 1, 2, 2, 2)

	assert.True(t, b.ContainsPoint([3]float32{1, 1, 1}))
	assert.True(t, b.ContainsPoint([3]float32{3, 3, 3}))
	assert.False(t, b.ContainsPoint([3]float32{3.01, 1, 1}))
	assert.False(t, ZeroBox().ContainsPoint([3]float32{0, 0, 0}))
}

func TestBoundingBoxTransformTranslation(t *testing.T) {
	b := box(0, 0, 0, 1, 2, 3)
	m := make([]float32, 16)
	Identity(m)
	m[12], m[13], m[14] = 10, 20, 30

	got := b.Transform(m)
	assert.Equal(t, box(10, 20, 30, 1, 2, 3), got)
}

func TestBoundingBoxTransformRotation(t *testing.T) {
	// 90 degrees about Y swaps the x and z extents.
	b := box(0, 0, 0, 3, 1, 2)
	m := make([]float32, 16)
	QuatToMatrix(m, QuatFromAxisAngle([3]float32{0, 1, 0}, 3.14159265/2))

	got := b.Transform(m)
	assert.InDelta(t, 2, got.Extent[0], 1e-4)
	assert.InDelta(t, 1, got.Extent[1], 1e-4)
	assert.InDelta(t, 3, got.Extent[2], 1e-4)
}

func TestBoundingBoxTransformSentinels(t *testing.T) {
	m := make([]float32, 16)
	Identity(m)
	m[12] = 100

	assert.Equal(t, ZeroBox(), ZeroBox().Transform(m))
	assert.True(t, InfiniteBox().Transform(m).IsInfinite())
}

func TestBoxFromPositions(t *testing.T) {
	positions := []float32{
		-1, 0, 2,
		3, -4, 2,
		1, 1, 8,
	}
	got := BoxFromPositions(positions)
	assert.Equal(t, [3]float32{-1, -4, 2}, got.Min())
	assert.Equal(t, [3]float32{3, 1, 8}, got.Max())

	assert.Equal(t, ZeroBox(), BoxFromPositions(nil))
	assert.Equal(t, ZeroBox(), BoxFromPositions([]float32{1, 2}))
}

func TestBoxFromMinMax(t *testing.T) {
	b := BoxFromMinMax([3]float32{-2, 0, 4}, [3]float32{4, 2, 10})
	assert.Equal(t, box(1, 1, 7, 3, 1, 3), b)
}
