package camera

import (
	"math"

	"github.com/helio-engine/helio-go/common"
)

// cameraImpl is the implementation of the Camera interface.
type cameraImpl struct {
	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32
	width  int
	height int

	viewDirty       bool
	projectionDirty bool

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
	inverseViewProj      [16]float32
	inverseValid         bool
	frustum              common.Frustum

	unprojected [3]float32
}

// Camera defines the interface for the perspective camera.
// The camera owns its position, target, and projection settings, and derives
// the view, projection, and combined view-projection matrices plus the world
// frustum. Setters mark the view or projection dirty; Update recomputes stale
// matrices without clearing the flags, and Clean clears them. This mirrors the
// dirty discipline of the scene graph so the frame loop decides when a
// camera's flags are consumed.
type Camera interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: the camera position
	Position() [3]float32

	// SetPosition sets the camera's world-space position and marks the view dirty.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: the world-space target
	Target() [3]float32

	// SetTarget sets the look-at point and marks the view dirty.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetTarget(x, y, z float32)

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - [3]float32: the up vector
	Up() [3]float32

	// SetUp sets the camera's up vector and marks the view dirty.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// SetFov sets the vertical field of view in radians and marks the projection dirty.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// SetNear sets the near clipping plane distance and marks the projection dirty.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// SetFar sets the far clipping plane distance and marks the projection dirty.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// Resize updates the viewport dimensions, recomputes the aspect ratio, and
	// marks the projection dirty. Zero or negative dimensions are ignored.
	//
	// Parameters:
	//   - width: viewport width in pixels
	//   - height: viewport height in pixels
	Resize(width, height int)

	// ViewDirty reports whether the view matrix is stale.
	//
	// Returns:
	//   - bool: true if a view-affecting setter ran since the last Clean
	ViewDirty() bool

	// ProjectionDirty reports whether the projection matrix is stale.
	//
	// Returns:
	//   - bool: true if a projection-affecting setter ran since the last Clean
	ProjectionDirty() bool

	// Update recomputes whichever matrices are flagged dirty, then refreshes
	// the combined view-projection matrix, its inverse, and the frustum.
	// The dirty flags are left set; call Clean to clear them.
	Update()

	// Clean clears the view and projection dirty flags.
	Clean()

	// ViewMatrix returns the current 4x4 view matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Frustum returns the world-space view frustum extracted from the current
	// view-projection matrix.
	//
	// Returns:
	//   - common.Frustum: the view frustum
	Frustum() common.Frustum

	// Contains reports whether a world-space box lies fully inside the frustum.
	//
	// Parameters:
	//   - box: the world-space bounding box to test
	//
	// Returns:
	//   - bool: true if the box is entirely inside all six planes
	Contains(box common.BoundingBox) bool

	// Intersects reports whether a world-space box is at least partially inside
	// the frustum.
	//
	// Parameters:
	//   - box: the world-space bounding box to test
	//
	// Returns:
	//   - bool: true if the box is not entirely outside any plane
	Intersects(box common.BoundingBox) bool

	// Unproject maps a screen coordinate and a depth in [0, 1] back to a
	// world-space point using the inverse view-projection matrix. When the
	// view-projection matrix is singular the call is silently ignored and the
	// previous result (or the zero point) is returned.
	//
	// Parameters:
	//   - sx: screen x in pixels, origin at the left edge
	//   - sy: screen y in pixels, origin at the top edge
	//   - depth: normalized device depth, 0 at the near plane and 1 at the far plane
	//
	// Returns:
	//   - [3]float32: the world-space point
	Unproject(sx, sy, depth float32) [3]float32

	// Uniform assembles the GPU uniform block for the current matrices.
	//
	// Returns:
	//   - GPUCameraUniform: the camera uniform data
	Uniform() GPUCameraUniform
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings: position
// (0, 0, 5) looking at the origin, 45° vertical field of view, unit aspect,
// near 0.1, far 100. The matrices are computed once so a fresh camera is
// immediately usable and clean.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		position: [3]float32{0, 0, 5},
		target:   [3]float32{0, 0, 0},
		up:       [3]float32{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0), // radians
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		width:    1,
		height:   1,
	}
	for _, option := range options {
		option(c)
	}
	c.recomputeView()
	c.recomputeProjection()
	c.recomputeDerived()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	return c.position
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.position = [3]float32{x, y, z}
	c.viewDirty = true
}

func (c *cameraImpl) Target() [3]float32 {
	return c.target
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.target = [3]float32{x, y, z}
	c.viewDirty = true
}

func (c *cameraImpl) Up() [3]float32 {
	return c.up
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.up = [3]float32{x, y, z}
	c.viewDirty = true
}

func (c *cameraImpl) Fov() float32 {
	return c.fov
}

func (c *cameraImpl) SetFov(fov float32) {
	c.fov = fov
	c.projectionDirty = true
}

func (c *cameraImpl) Aspect() float32 {
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	return c.near
}

func (c *cameraImpl) SetNear(near float32) {
	c.near = near
	c.projectionDirty = true
}

func (c *cameraImpl) Far() float32 {
	return c.far
}

func (c *cameraImpl) SetFar(far float32) {
	c.far = far
	c.projectionDirty = true
}

func (c *cameraImpl) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.width = width
	c.height = height
	c.aspect = float32(width) / float32(height)
	c.projectionDirty = true
}

func (c *cameraImpl) ViewDirty() bool {
	return c.viewDirty
}

func (c *cameraImpl) ProjectionDirty() bool {
	return c.projectionDirty
}

func (c *cameraImpl) Update() {
	if !c.viewDirty && !c.projectionDirty {
		return
	}
	if c.viewDirty {
		c.recomputeView()
	}
	if c.projectionDirty {
		c.recomputeProjection()
	}
	c.recomputeDerived()
}

func (c *cameraImpl) Clean() {
	c.viewDirty = false
	c.projectionDirty = false
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	return c.frustum
}

func (c *cameraImpl) Contains(box common.BoundingBox) bool {
	return c.frustum.ContainsBox(box)
}

func (c *cameraImpl) Intersects(box common.BoundingBox) bool {
	return c.frustum.IntersectsBox(box)
}

func (c *cameraImpl) Unproject(sx, sy, depth float32) [3]float32 {
	if !c.inverseValid {
		return c.unprojected
	}

	ndcX := 2*sx/float32(c.width) - 1
	ndcY := 1 - 2*sy/float32(c.height)

	clip := [4]float32{ndcX, ndcY, depth, 1}
	var world [4]float32
	for row := 0; row < 4; row++ {
		world[row] = c.inverseViewProj[row]*clip[0] +
			c.inverseViewProj[4+row]*clip[1] +
			c.inverseViewProj[8+row]*clip[2] +
			c.inverseViewProj[12+row]*clip[3]
	}
	if world[3] == 0 {
		return c.unprojected
	}

	invW := 1 / world[3]
	c.unprojected = [3]float32{world[0] * invW, world[1] * invW, world[2] * invW}
	return c.unprojected
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.viewProjectionMatrix,
		CameraPosition: c.position,
	}
}

func (c *cameraImpl) recomputeView() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)
}

func (c *cameraImpl) recomputeProjection() {
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
}

// recomputeDerived refreshes everything derived from the view and projection
// matrices: the combined matrix, its inverse (when it exists), and the frustum.
func (c *cameraImpl) recomputeDerived() {
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	c.inverseValid = common.Invert4(c.inverseViewProj[:], c.viewProjectionMatrix[:])
	c.frustum = common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}
