package geometry

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// geometry is the implementation of the Geometry interface.
type geometry struct {
	name      string
	positions [][3]float32
	normals   [][3]float32
	texCoords [][2]float32
	indices   []uint32
	bounds    common.BoundingBox
	dirty     bool

	vertexBuffer driver.BufferHandle
	indexBuffer  driver.BufferHandle
	vertexSize   uint64
	indexSize    uint64
	uploaded     bool
}

// Geometry defines the interface for an indexed triangle mesh.
// A Geometry owns its CPU-side attribute arrays, a local-space bounding box,
// and the GPU vertex/index buffers created on Upload. Attribute mutation marks
// the geometry dirty; the next Upload re-writes the GPU buffers.
type Geometry interface {
	// Name retrieves the geometry identifier.
	//
	// Returns:
	//   - string: the geometry name
	Name() string

	// Positions retrieves the vertex positions in model space.
	//
	// Returns:
	//   - [][3]float32: the position array
	Positions() [][3]float32

	// SetPositions replaces the vertex positions and marks the geometry dirty.
	// The local bounding box is not recomputed automatically; call ComputeBounds
	// after changing positions.
	//
	// Parameters:
	//   - positions: the position array to set
	SetPositions(positions [][3]float32)

	// Normals retrieves the vertex normals.
	//
	// Returns:
	//   - [][3]float32: the normal array, empty if none are set
	Normals() [][3]float32

	// SetNormals replaces the vertex normals and marks the geometry dirty.
	//
	// Parameters:
	//   - normals: the normal array to set
	SetNormals(normals [][3]float32)

	// TexCoords retrieves the UV texture coordinates.
	//
	// Returns:
	//   - [][2]float32: the texture coordinate array, empty if none are set
	TexCoords() [][2]float32

	// SetTexCoords replaces the UV texture coordinates and marks the geometry dirty.
	//
	// Parameters:
	//   - texCoords: the texture coordinate array to set
	SetTexCoords(texCoords [][2]float32)

	// Indices retrieves the triangle index buffer.
	//
	// Returns:
	//   - []uint32: the index array
	Indices() []uint32

	// SetIndices replaces the triangle index buffer and marks the geometry dirty.
	//
	// Parameters:
	//   - indices: the index array to set
	SetIndices(indices []uint32)

	// VertexCount returns the number of vertices.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// IndexCount returns the number of indices.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// Bounds retrieves the local-space bounding box.
	//
	// Returns:
	//   - common.BoundingBox: the local bounds
	Bounds() common.BoundingBox

	// Dirty reports whether CPU-side data has changed since the last Upload.
	//
	// Returns:
	//   - bool: true if the GPU buffers are stale
	Dirty() bool

	// ComputeBounds derives the local bounding box from the current positions.
	// An empty geometry gets the zero box.
	ComputeBounds()

	// ComputeNormals fills in smooth vertex normals from the triangle topology
	// when no normals are set. Face normals are computed in parallel across a
	// worker pool (area-weighted cross products), then accumulated onto shared
	// vertices and normalized. Geometries that already carry a full normal
	// array are left untouched.
	ComputeNormals()

	// VertexData interleaves the attribute arrays into the GPUVertex layout.
	// Missing normals and texture coordinates are zero; vertex color defaults
	// to opaque white and tangent to +X with positive handedness.
	//
	// Returns:
	//   - []byte: the interleaved vertex stream, 64 bytes per vertex
	VertexData() []byte

	// IndexData returns the index buffer as raw little-endian bytes.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// Upload creates the GPU vertex and index buffers on first call, and
	// re-writes them on subsequent calls while the geometry is dirty. A clean,
	// already-uploaded geometry is a no-op. If the data size changed since the
	// last upload the buffers are recreated.
	//
	// Parameters:
	//   - drv: the driver to create and write buffers through
	//
	// Returns:
	//   - error: error if buffer creation fails
	Upload(drv driver.Driver) error

	// Destroy releases the GPU buffers. Safe to call on a geometry that was
	// never uploaded. The CPU-side arrays are kept; a later Upload recreates
	// the buffers from them.
	//
	// Parameters:
	//   - drv: the driver that owns the buffers
	Destroy(drv driver.Driver)

	// Uploaded reports whether GPU buffers currently exist for this geometry.
	//
	// Returns:
	//   - bool: true if Upload has created buffers that Destroy has not released
	Uploaded() bool

	// VertexBuffer retrieves the GPU vertex buffer handle.
	//
	// Returns:
	//   - driver.BufferHandle: the vertex buffer, zero if not uploaded
	VertexBuffer() driver.BufferHandle

	// IndexBuffer retrieves the GPU index buffer handle.
	//
	// Returns:
	//   - driver.BufferHandle: the index buffer, zero if not uploaded
	IndexBuffer() driver.BufferHandle
}

var _ Geometry = &geometry{}

// NewGeometry creates a new Geometry instance with the specified options applied.
// If positions are provided without explicit bounds, the local bounding box is
// computed from the positions.
//
// Parameters:
//   - options: a variadic list of GeometryBuilderOption functions to configure the Geometry
//
// Returns:
//   - Geometry: a new instance of Geometry configured with the provided options
func NewGeometry(options ...GeometryBuilderOption) Geometry {
	g := &geometry{dirty: true}
	for _, opt := range options {
		opt(g)
	}
	if g.bounds.IsZero() && len(g.positions) > 0 {
		g.ComputeBounds()
	}
	return g
}

func (g *geometry) Name() string {
	return g.name
}

func (g *geometry) Positions() [][3]float32 {
	return g.positions
}

func (g *geometry) SetPositions(positions [][3]float32) {
	g.positions = positions
	g.dirty = true
}

func (g *geometry) Normals() [][3]float32 {
	return g.normals
}

func (g *geometry) SetNormals(normals [][3]float32) {
	g.normals = normals
	g.dirty = true
}

func (g *geometry) TexCoords() [][2]float32 {
	return g.texCoords
}

func (g *geometry) SetTexCoords(texCoords [][2]float32) {
	g.texCoords = texCoords
	g.dirty = true
}

func (g *geometry) Indices() []uint32 {
	return g.indices
}

func (g *geometry) SetIndices(indices []uint32) {
	g.indices = indices
	g.dirty = true
}

func (g *geometry) VertexCount() int {
	return len(g.positions)
}

func (g *geometry) IndexCount() int {
	return len(g.indices)
}

func (g *geometry) Bounds() common.BoundingBox {
	return g.bounds
}

func (g *geometry) Dirty() bool {
	return g.dirty
}

func (g *geometry) ComputeBounds() {
	if len(g.positions) == 0 {
		g.bounds = common.ZeroBox()
		return
	}
	mn, mx := g.positions[0], g.positions[0]
	for _, p := range g.positions[1:] {
		for i := 0; i < 3; i++ {
			if p[i] < mn[i] {
				mn[i] = p[i]
			}
			if p[i] > mx[i] {
				mx[i] = p[i]
			}
		}
	}
	g.bounds = common.BoxFromMinMax(mn, mx)
}

func (g *geometry) ComputeNormals() {
	n := len(g.positions)
	if n == 0 || len(g.indices) < 3 {
		return
	}
	if len(g.normals) == n {
		return
	}

	triCount := len(g.indices) / 3
	faceNormals := make([][3]float32, triCount)

	workers := runtime.NumCPU()
	if workers > triCount {
		workers = triCount
	}
	chunk := (triCount + workers - 1) / workers

	// Fan the cross-product work across the pool in disjoint triangle ranges.
	// A WaitGroup provides the barrier since pool.Wait() blocks until workers
	// idle-exit, which is unsuitable for a one-shot computation.
	pool := worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > triCount {
			end = triCount
		}
		if start >= end {
			break
		}
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: w,
			Do: func() (any, error) {
				defer wg.Done()
				for t := start; t < end; t++ {
					i0, i1, i2 := g.indices[t*3], g.indices[t*3+1], g.indices[t*3+2]
					if int(i0) >= n || int(i1) >= n || int(i2) >= n {
						continue
					}

					p0, p1, p2 := g.positions[i0], g.positions[i1], g.positions[i2]
					edge1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
					edge2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}

					// Cross product: face normal (length proportional to triangle area)
					faceNormals[t] = [3]float32{
						edge1[1]*edge2[2] - edge1[2]*edge2[1],
						edge1[2]*edge2[0] - edge1[0]*edge2[2],
						edge1[0]*edge2[1] - edge1[1]*edge2[0],
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Accumulate face normals onto shared vertices, then normalize.
	accum := make([][3]float32, n)
	for t := 0; t < triCount; t++ {
		i0, i1, i2 := g.indices[t*3], g.indices[t*3+1], g.indices[t*3+2]
		if int(i0) >= n || int(i1) >= n || int(i2) >= n {
			continue
		}
		for _, idx := range []uint32{i0, i1, i2} {
			accum[idx][0] += faceNormals[t][0]
			accum[idx][1] += faceNormals[t][1]
			accum[idx][2] += faceNormals[t][2]
		}
	}

	normals := make([][3]float32, n)
	for i := range normals {
		length := math32.Sqrt(accum[i][0]*accum[i][0] + accum[i][1]*accum[i][1] + accum[i][2]*accum[i][2])
		if length < 1e-6 {
			// Degenerate: default to up vector
			normals[i] = [3]float32{0, 1, 0}
			continue
		}
		invLen := 1.0 / length
		normals[i] = [3]float32{
			accum[i][0] * invLen,
			accum[i][1] * invLen,
			accum[i][2] * invLen,
		}
	}

	g.normals = normals
	g.dirty = true
}

func (g *geometry) VertexData() []byte {
	var v GPUVertex
	stride := v.Size()
	buf := make([]byte, 0, stride*len(g.positions))
	for i, pos := range g.positions {
		vert := GPUVertex{
			Position: pos,
			Color:    [4]float32{1, 1, 1, 1},
			Tangent:  [4]float32{1, 0, 0, 1},
		}
		if i < len(g.normals) {
			vert.Normal = g.normals[i]
		}
		if i < len(g.texCoords) {
			vert.TexCoord = g.texCoords[i]
		}
		buf = append(buf, vert.Marshal()...)
	}
	return buf
}

func (g *geometry) IndexData() []byte {
	return common.SliceToBytes(g.indices)
}

func (g *geometry) Upload(drv driver.Driver) error {
	if drv == nil {
		panic("geometry: Upload requires a non-nil driver")
	}
	if g.uploaded && !g.dirty {
		return nil
	}

	vertexData := g.VertexData()
	indexData := g.IndexData()

	if g.uploaded {
		if uint64(len(vertexData)) == g.vertexSize && uint64(len(indexData)) == g.indexSize {
			drv.WriteBuffer(g.vertexBuffer, 0, vertexData)
			drv.WriteBuffer(g.indexBuffer, 0, indexData)
			g.dirty = false
			return nil
		}
		// Size changed: the buffers cannot be grown in place.
		g.Destroy(drv)
	}

	vb, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: g.name + " vertices",
		Kind:  driver.BufferVertex,
		Size:  uint64(len(vertexData)),
		Data:  vertexData,
	})
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer for %q: %w", g.name, err)
	}
	ib, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: g.name + " indices",
		Kind:  driver.BufferIndex,
		Size:  uint64(len(indexData)),
		Data:  indexData,
	})
	if err != nil {
		drv.DestroyBuffer(vb)
		return fmt.Errorf("failed to create index buffer for %q: %w", g.name, err)
	}

	g.vertexBuffer = vb
	g.indexBuffer = ib
	g.vertexSize = uint64(len(vertexData))
	g.indexSize = uint64(len(indexData))
	g.uploaded = true
	g.dirty = false
	return nil
}

func (g *geometry) Destroy(drv driver.Driver) {
	if !g.uploaded {
		return
	}
	drv.DestroyBuffer(g.vertexBuffer)
	drv.DestroyBuffer(g.indexBuffer)
	g.vertexBuffer = 0
	g.indexBuffer = 0
	g.vertexSize = 0
	g.indexSize = 0
	g.uploaded = false
}

func (g *geometry) Uploaded() bool {
	return g.uploaded
}

func (g *geometry) VertexBuffer() driver.BufferHandle {
	return g.vertexBuffer
}

func (g *geometry) IndexBuffer() driver.BufferHandle {
	return g.indexBuffer
}
