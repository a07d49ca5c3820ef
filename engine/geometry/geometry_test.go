package geometry

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// quad builds a unit quad in the XZ plane whose triangles face +Y.
func quad() Geometry {
	return NewGeometry(
		WithName("quad"),
		WithPositions([][3]float32{
			{0, 0, 0},
			{1, 0, 0},
			{1, 0, 1},
			{0, 0, 1},
		}),
		WithTexCoords([][2]float32{
			{0, 0},
			{1, 0},
			{1, 1},
			{0, 1},
		}),
		WithIndices([]uint32{0, 2, 1, 0, 3, 2}),
	)
}

func readFloat(t *testing.T, buf []byte, offset int) float32 {
	t.Helper()
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

func TestComputeNormalsFlatQuad(t *testing.T) {
	g := quad()
	require.Empty(t, g.Normals())

	g.ComputeNormals()

	normals := g.Normals()
	require.Len(t, normals, 4)
	for i, n := range normals {
		assert.InDelta(t, 0, n[0], 1e-5, "vertex %d x", i)
		assert.InDelta(t, 1, n[1], 1e-5, "vertex %d y", i)
		assert.InDelta(t, 0, n[2], 1e-5, "vertex %d z", i)
	}
	assert.True(t, g.Dirty())
}

func TestComputeNormalsKeepsExistingNormals(t *testing.T) {
	g := quad()
	existing := [][3]float32{{1, 0, 0}, {1, 0, 0}, {1, 0, 0}, {1, 0, 0}}
	g.SetNormals(existing)

	g.ComputeNormals()

	assert.Equal(t, existing, g.Normals())
}

func TestComputeNormalsUnreferencedVertexDefaultsUp(t *testing.T) {
	g := NewGeometry(
		WithPositions([][3]float32{
			{0, 0, 0},
			{1, 0, 0},
			{1, 0, 1},
			{5, 5, 5}, // not referenced by any triangle
		}),
		WithIndices([]uint32{0, 2, 1}),
	)

	g.ComputeNormals()

	normals := g.Normals()
	require.Len(t, normals, 4)
	assert.Equal(t, [3]float32{0, 1, 0}, normals[3])
}

func TestComputeNormalsIgnoresOutOfRangeIndices(t *testing.T) {
	g := NewGeometry(
		WithPositions([][3]float32{
			{0, 0, 0},
			{1, 0, 0},
			{1, 0, 1},
		}),
		WithIndices([]uint32{0, 2, 1, 0, 9, 1}),
	)

	g.ComputeNormals()

	normals := g.Normals()
	require.Len(t, normals, 3)
	for _, n := range normals {
		assert.InDelta(t, 1, n[1], 1e-5)
	}
}

func TestComputeBounds(t *testing.T) {
	g := NewGeometry(WithPositions([][3]float32{
		{-1, -2, -3},
		{3, 2, 1},
		{0, 0, 0},
	}))

	bounds := g.Bounds()
	assert.Equal(t, [3]float32{1, 0, -1}, bounds.Center)
	assert.Equal(t, [3]float32{2, 2, 2}, bounds.Extent)
}

func TestComputeBoundsEmptyGeometry(t *testing.T) {
	g := NewGeometry(WithName("empty"))
	g.ComputeBounds()
	assert.True(t, g.Bounds().IsZero())
}

func TestVertexDataLayout(t *testing.T) {
	g := NewGeometry(
		WithPositions([][3]float32{{1, 2, 3}}),
		WithNormals([][3]float32{{0, 1, 0}}),
		WithTexCoords([][2]float32{{0.25, 0.75}}),
	)

	data := g.VertexData()
	require.Len(t, data, 64)

	assert.Equal(t, float32(1), readFloat(t, data, 0))
	assert.Equal(t, float32(2), readFloat(t, data, 4))
	assert.Equal(t, float32(3), readFloat(t, data, 8))
	assert.Equal(t, float32(0), readFloat(t, data, 12))
	assert.Equal(t, float32(1), readFloat(t, data, 16))
	assert.Equal(t, float32(0.25), readFloat(t, data, 24))
	assert.Equal(t, float32(0.75), readFloat(t, data, 28))

	// Defaults: opaque white color, +X tangent with positive handedness.
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(1), readFloat(t, data, 32+i*4))
	}
	assert.Equal(t, float32(1), readFloat(t, data, 48))
	assert.Equal(t, float32(0), readFloat(t, data, 52))
	assert.Equal(t, float32(0), readFloat(t, data, 56))
	assert.Equal(t, float32(1), readFloat(t, data, 60))
}

func TestIndexData(t *testing.T) {
	g := NewGeometry(WithIndices([]uint32{0, 1, 258}))

	data := g.IndexData()
	require.Len(t, data, 12)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(258), binary.LittleEndian.Uint32(data[8:12]))
}

func TestUploadLifecycle(t *testing.T) {
	d := driver.NewHeadless()
	g := quad()

	require.NoError(t, g.Upload(d))
	assert.True(t, g.Uploaded())
	assert.False(t, g.Dirty())
	assert.NotZero(t, g.VertexBuffer())
	assert.NotZero(t, g.IndexBuffer())
	assert.Equal(t, 2, d.CreatedBuffers())
	assert.Len(t, d.BufferData(g.VertexBuffer()), 4*64)
	assert.Len(t, d.BufferData(g.IndexBuffer()), 6*4)

	// Clean re-upload is a no-op.
	require.NoError(t, g.Upload(d))
	assert.Equal(t, 2, d.CreatedBuffers())
	assert.Zero(t, d.BufferWrites(g.VertexBuffer()))

	// Same-size mutation re-writes in place.
	positions := g.Positions()
	positions[0] = [3]float32{0, 5, 0}
	g.SetPositions(positions)
	require.NoError(t, g.Upload(d))
	assert.Equal(t, 2, d.CreatedBuffers())
	assert.Equal(t, 1, d.BufferWrites(g.VertexBuffer()))
	assert.Equal(t, float32(5), readFloat(t, d.BufferData(g.VertexBuffer()), 4))

	g.Destroy(d)
	assert.False(t, g.Uploaded())
	assert.Zero(t, g.VertexBuffer())
	assert.Equal(t, 0, d.LiveBuffers())

	// Upload after Destroy recreates from the kept CPU arrays.
	require.NoError(t, g.Upload(d))
	assert.True(t, g.Uploaded())
	assert.Equal(t, 4, d.CreatedBuffers())
}

func TestUploadRecreatesOnSizeChange(t *testing.T) {
	d := driver.NewHeadless()
	g := NewGeometry(
		WithName("tri"),
		WithPositions([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		WithIndices([]uint32{0, 1, 2}),
	)
	require.NoError(t, g.Upload(d))
	assert.Equal(t, 2, d.CreatedBuffers())

	g.SetPositions([][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}})
	g.SetIndices([]uint32{0, 1, 2, 2, 1, 3})
	require.NoError(t, g.Upload(d))

	assert.Equal(t, 4, d.CreatedBuffers())
	assert.Equal(t, 2, d.LiveBuffers())
	assert.Len(t, d.BufferData(g.VertexBuffer()), 4*64)
}

func TestDestroyWithoutUploadIsSafe(t *testing.T) {
	d := driver.NewHeadless()
	g := quad()
	g.Destroy(d)
	assert.False(t, g.Uploaded())
	assert.Equal(t, 0, d.CreatedBuffers())
}

func TestUploadNilDriverPanics(t *testing.T) {
	g := quad()
	assert.PanicsWithValue(t, "geometry: Upload requires a non-nil driver", func() {
		_ = g.Upload(nil)
	})
}

func TestGPUStructSizes(t *testing.T) {
	var v GPUVertex
	var m GPUModelData
	assert.Equal(t, 64, v.Size())
	assert.Equal(t, 80, m.Size())
	assert.Len(t, v.Marshal(), 64)
	assert.Len(t, m.Marshal(), 80)
}
