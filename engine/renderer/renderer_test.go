package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/light"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/module"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/sky"
	"github.com/helio-engine/helio-go/engine/spatial"
)

func testGeometry(name string) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithName(name),
		geometry.WithPositions([][3]float32{{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		geometry.WithIndices([]uint32{0, 1, 2}),
	)
}

// testWorld is a scene with one shadow-casting sun, one shape, and a sky.
func testWorld() scene.Scene {
	sc := scene.NewScene("world")
	sc.Add(shape.NewShape("rock", shape.WithGeometry(testGeometry("rock mesh"))))
	sun := light.NewLight(light.LightTypeDirectional,
		light.WithDirection(0.2, -1, 0.1),
		light.WithCastsShadows(true),
	)
	sc.Add(light.NewNode("sun", sun))
	sc.SetSky(sky.NewSky("sky"))
	return sc
}

func newTestRenderer(t *testing.T, sc scene.Scene) (*driver.Headless, Renderer) {
	t.Helper()
	drv := driver.NewHeadless()
	r := NewRenderer(drv, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)),
		WithModules(module.NewShapeModule(), module.NewSkyModule()),
	)
	require.NoError(t, r.Init())
	return drv, r
}

func TestRendererEndToEndFrame(t *testing.T) {
	sc := testWorld()
	drv, r := newTestRenderer(t, sc)

	require.NoError(t, r.RenderFrame())

	frames := drv.Frames()
	require.Len(t, frames, 1)
	require.Len(t, frames[0], 2, "one shape draw plus the sky backdrop")

	// The sun casts, so one depth pass precedes the main pass.
	require.Len(t, drv.ShadowPassDraws(), 1)
	assert.Equal(t, []int{0}, drv.ShadowPassLayers())

	// Every draw binds the full shared group set.
	for _, d := range frames[0] {
		assert.Len(t, d.BindGroups, 4)
		for g, h := range d.BindGroups {
			assert.NotZero(t, h, "group %d must be bound", g)
		}
	}
}

func TestRendererAddModulePanics(t *testing.T) {
	sc := scene.NewScene("empty")
	drv := driver.NewHeadless()
	r := NewRenderer(drv, sc, camera.NewCamera(), WithModules(module.NewShapeModule()))

	assert.Panics(t, func() {
		r.AddModule(module.NewShapeModule())
	}, "duplicate module names are a configuration error")

	require.NoError(t, r.Init())
	assert.Panics(t, func() {
		r.AddModule(module.NewSkyModule())
	}, "the composition graph is sealed after init")
}

func TestRendererCleansOnlyTraversedNodes(t *testing.T) {
	sc := scene.NewScene("prune world")
	group := spatial.NewGroup("distant group")
	hidden := shape.NewShape("hidden", shape.WithGeometry(testGeometry("hidden mesh")))
	group.AddChild(hidden)
	tr := common.IdentityTransform()
	tr.Translation = [3]float32{0, 0, -5000}
	group.SetTransform(tr)
	sc.Add(group)

	_, r := newTestRenderer(t, sc)

	// First frame: the group is dirty, so it is descended and refreshed.
	require.NoError(t, r.RenderFrame())
	assert.False(t, group.TransformDirty())

	// Second frame: clean and off-frustum, so the branch is pruned. Dirty a
	// child without touching anything the frustum sees; the parent's
	// descendant flag keeps the branch from being pruned while stale.
	require.NoError(t, r.RenderFrame())
	tr.Translation = [3]float32{0, 0, 0}
	hidden.SetTransform(tr)
	require.NoError(t, r.RenderFrame())
	assert.False(t, hidden.TransformDirty(), "the dirty branch was re-entered and cleaned")
}

func TestRendererCameraUniformWrites(t *testing.T) {
	sc := testWorld()
	drv, r := newTestRenderer(t, sc)

	impl := r.(*rendererImpl)
	writes := drv.BufferWrites(impl.camBuf)
	require.Positive(t, writes, "init seeds the camera uniform")

	require.NoError(t, r.RenderFrame())
	assert.Equal(t, writes, drv.BufferWrites(impl.camBuf), "a clean camera uploads nothing")

	impl.cam.SetPosition(1, 2, 3)
	require.NoError(t, r.RenderFrame())
	assert.Equal(t, writes+1, drv.BufferWrites(impl.camBuf))
}

func TestRendererResize(t *testing.T) {
	sc := testWorld()
	drv, r := newTestRenderer(t, sc)

	r.Resize(1920, 1080)
	w, h := drv.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)

	impl := r.(*rendererImpl)
	assert.InDelta(t, 1920.0/1080.0, impl.cam.Aspect(), 1e-6)
}

func TestRendererRebuildAfterContextLoss(t *testing.T) {
	sc := testWorld()
	drv, r := newTestRenderer(t, sc)
	require.NoError(t, r.RenderFrame())

	firstProgram := r.Context().Program.Handle()
	require.NoError(t, r.Rebuild())
	assert.NotEqual(t, firstProgram, r.Context().Program.Handle(),
		"rebuild compiles a fresh program")

	require.NoError(t, r.RenderFrame())
	frames := drv.Frames()
	assert.Len(t, frames[len(frames)-1], 2, "the rebuilt pipeline renders the same scene")
}

func TestRendererInitTwiceFails(t *testing.T) {
	sc := testWorld()
	_, r := newTestRenderer(t, sc)

	err := r.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestRendererLightRangeChangeRefreshesBounds(t *testing.T) {
	sc := scene.NewScene("range world")
	glow := light.NewLight(light.LightTypePoint,
		light.WithPosition(0, 0, 0),
		light.WithRange(1),
	)
	node := light.NewNode("glow", glow)
	sc.Add(node)

	_, r := newTestRenderer(t, sc)
	require.NoError(t, r.RenderFrame())
	assert.InDelta(t, 1.0, node.WorldBounds().Extent[0], 1e-6)

	// Growing the range between frames must reach the cached world bounds
	// even though the clean pass wipes the dirty flag after every frame;
	// otherwise culling keeps rejecting the light with its old volume.
	glow.SetRange(100)
	require.NoError(t, r.RenderFrame())
	after := node.WorldBounds()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 100.0, after.Extent[i], 1e-6)
	}

	require.NoError(t, r.RenderFrame())
	assert.InDelta(t, 100.0, node.WorldBounds().Extent[0], 1e-6,
		"the refreshed volume survives subsequent clean frames")
}
