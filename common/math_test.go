package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity(t *testing.T) {
	m := []float32{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	Identity(m)
	for i, v := range m {
		if i%5 == 0 {
			assert.Equal(t, float32(1), v, "index %d", i)
		} else {
			assert.Equal(t, float32(0), v, "index %d", i)
		}
	}
}

func TestMul4Identity(t *testing.T) {
	id := make([]float32, 16)
	Identity(id)
	m := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	out := make([]float32, 16)

	Mul4(out, id, m)
	assert.Equal(t, m, out)
	Mul4(out, m, id)
	assert.Equal(t, m, out)
}

func TestMul4Translation(t *testing.T) {
	a := make([]float32, 16)
	b := make([]float32, 16)
	Identity(a)
	Identity(b)
	a[12], a[13], a[14] = 1, 2, 3
	b[12], b[13], b[14] = 10, 20, 30

	out := make([]float32, 16)
	Mul4(out, a, b)
	assert.Equal(t, float32(11), out[12])
	assert.Equal(t, float32(22), out[13])
	assert.Equal(t, float32(33), out[14])
}

func TestMul4AliasesOutput(t *testing.T) {
	m := make([]float32, 16)
	Identity(m)
	m[12] = 5
	Mul4(m, m, m)
	assert.Equal(t, float32(10), m[12])
}

func TestInvert4RoundTrip(t *testing.T) {
	m := make([]float32, 16)
	Transform{
		Translation: [3]float32{3, -1, 4},
		Rotation:    QuatFromEuler(0.3, 1.1, -0.5),
		Scale:       [3]float32{2, 2, 2},
	}.Matrix(m)

	inv := make([]float32, 16)
	require.True(t, Invert4(inv, m))

	out := make([]float32, 16)
	Mul4(out, m, inv)
	id := make([]float32, 16)
	Identity(id)
	for i := range out {
		assert.InDelta(t, id[i], out[i], 1e-4, "index %d", i)
	}
}

func TestInvert4Singular(t *testing.T) {
	m := make([]float32, 16) // all zeros, determinant zero
	out := []float32{7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7, 7}
	orig := append([]float32(nil), out...)

	assert.False(t, Invert4(out, m))
	assert.Equal(t, orig, out, "output must be untouched on singular input")
}

func TestTransformPoint(t *testing.T) {
	m := make([]float32, 16)
	Identity(m)
	m[12], m[13], m[14] = 1, 2, 3

	p, ok := TransformPoint(m, [3]float32{1, 1, 1})
	require.True(t, ok)
	assert.Equal(t, [3]float32{2, 3, 4}, p)
}

func TestTransformPointZeroW(t *testing.T) {
	m := make([]float32, 16) // maps everything to w = 0
	in := [3]float32{1, 2, 3}
	p, ok := TransformPoint(m, in)
	assert.False(t, ok)
	assert.Equal(t, in, p, "input passes through on zero w")
}

func TestTransformDirectionIgnoresTranslation(t *testing.T) {
	m := make([]float32, 16)
	Identity(m)
	m[12], m[13], m[14] = 100, 100, 100

	d := TransformDirection(m, [3]float32{0, 0, -1})
	assert.Equal(t, [3]float32{0, 0, -1}, d)
}

func TestPerspectiveClipSpace(t *testing.T) {
	proj := make([]float32, 16)
	Perspective(proj, float32(math.Pi/2), 1.0, 1.0, 100.0)

	// A point on the near plane maps to z = 0, on the far plane to z = 1,
	// after perspective division (WebGPU depth range).
	near, ok := TransformPoint(proj, [3]float32{0, 0, -1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, near[2], 1e-5)

	far, ok := TransformPoint(proj, [3]float32{0, 0, -100})
	require.True(t, ok)
	assert.InDelta(t, 1.0, far[2], 1e-5)
}

func TestOrthoClipSpace(t *testing.T) {
	proj := make([]float32, 16)
	Ortho(proj, -10, 10, -10, 10, 1, 100)

	near, ok := TransformPoint(proj, [3]float32{0, 0, -1})
	require.True(t, ok)
	assert.InDelta(t, 0.0, near[2], 1e-5)

	far, ok := TransformPoint(proj, [3]float32{0, 0, -100})
	require.True(t, ok)
	assert.InDelta(t, 1.0, far[2], 1e-5)

	corner, ok := TransformPoint(proj, [3]float32{10, 10, -1})
	require.True(t, ok)
	assert.InDelta(t, 1.0, corner[0], 1e-5)
	assert.InDelta(t, 1.0, corner[1], 1e-5)
}

func TestLookAtOrigin(t *testing.T) {
	view := make([]float32, 16)
	LookAt(view, 0, 0, 5, 0, 0, 0, 0, 1, 0)

	// The target ends up on the -Z axis in view space at distance 5.
	p, ok := TransformPoint(view, [3]float32{0, 0, 0})
	require.True(t, ok)
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assert.InDelta(t, -5, p[2], 1e-5)
}
