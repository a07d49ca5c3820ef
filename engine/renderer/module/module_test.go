package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// testRig stands in for the renderer: it composes the shared program from the
// given modules, contributes the camera uniform the renderer normally owns,
// assembles the shared bind groups, and drives frames.
type testRig struct {
	drv     *driver.Headless
	ctx     *Context
	camBuf  driver.BufferHandle
	modules []Module
}

func newTestRig(t *testing.T, sc scene.Scene, cam camera.Camera, modules ...Module) *testRig {
	t.Helper()

	drv := driver.NewHeadless()
	prog := shader.NewProgram("test program")
	for _, m := range modules {
		m.Build(prog)
	}
	require.NoError(t, prog.Compile(drv))

	ctx := &Context{
		Driver:    drv,
		Program:   prog,
		Camera:    cam,
		Scene:     sc,
		Traverser: spatial.NewTraverser(spatial.BoundsListener{}),
	}

	camBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "camera uniform",
		Kind:  driver.BufferUniform,
		Size:  uint64((&camera.GPUCameraUniform{}).Size()),
	})
	require.NoError(t, err)
	group, binding, ok := ctx.BindingFor(shader.AnnotationArgCamera)
	require.True(t, ok, "composed program must declare the camera binding")
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  camBuf,
	})

	for _, m := range modules {
		require.NoError(t, m.Init(ctx))
	}
	require.NoError(t, ctx.AssembleSharedGroups())

	return &testRig{drv: drv, ctx: ctx, camBuf: camBuf, modules: modules}
}

// frame runs one renderer frame: camera update, traversal, render, clean.
func (r *testRig) frame(t *testing.T) {
	t.Helper()

	r.ctx.Camera.Update()
	u := r.ctx.Camera.Uniform()
	r.drv.WriteBuffer(r.camBuf, 0, u.Marshal())

	r.ctx.Traverser.Traverse(r.ctx.Scene.Root())

	require.NoError(t, r.drv.BeginFrame([4]float32{0, 0, 0, 1}))
	for _, m := range r.modules {
		require.NoError(t, m.Render(r.ctx))
	}
	r.drv.EndFrame()

	for _, m := range r.modules {
		m.Clean()
	}
	r.ctx.Camera.Clean()
	cleanTree(r.ctx.Scene.Root())
}

// lastFrame returns the draws of the most recent completed frame.
func (r *testRig) lastFrame(t *testing.T) []driver.DrawCall {
	t.Helper()
	frames := r.drv.Frames()
	require.NotEmpty(t, frames)
	return frames[len(frames)-1]
}

func cleanTree(node spatial.Spatial) {
	n := node.AsNode()
	n.Clean()
	for _, c := range n.Children() {
		cleanTree(c)
	}
}

func triangle(name string) geometry.Geometry {
	return geometry.NewGeometry(
		geometry.WithName(name),
		geometry.WithPositions([][3]float32{{-1, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
		geometry.WithIndices([]uint32{0, 1, 2}),
	)
}

func placeAt(node spatial.Spatial, x, y, z float32) {
	tr := common.IdentityTransform()
	tr.Translation = [3]float32{x, y, z}
	node.AsNode().SetTransform(tr)
}

func TestModuleBuildTwicePanics(t *testing.T) {
	m := NewShapeModule()
	prog := shader.NewProgram("panic program")
	m.Build(prog)

	assert.PanicsWithValue(t, "module: shapes built twice", func() {
		m.Build(prog)
	})
}

func TestModuleInitBeforeBuildPanics(t *testing.T) {
	m := NewSkyModule()

	assert.PanicsWithValue(t, "module: sky initialized before build", func() {
		_ = m.Init(&Context{})
	})
}

func TestAddProcessorDuplicateNamePanics(t *testing.T) {
	m := NewShapeModule()

	assert.Panics(t, func() {
		m.AddProcessor(NewIlluminationProcessor())
	})
}

func TestShapeModuleHostsProcessorsInOrder(t *testing.T) {
	m := NewShapeModule()

	procs := m.Processors()
	require.Len(t, procs, 2)
	// Shadow slots must be assigned before the light blocks upload.
	assert.Equal(t, "shadows", procs[0].Name())
	assert.Equal(t, "illumination", procs[1].Name())
}

func TestAssembleSharedGroupsReportsMissingContribution(t *testing.T) {
	drv := driver.NewHeadless()
	prog := shader.NewProgram("incomplete program")
	m := NewShapeModule()
	m.Build(prog)
	require.NoError(t, prog.Compile(drv))

	ctx := &Context{
		Driver:    drv,
		Program:   prog,
		Camera:    camera.NewCamera(),
		Scene:     scene.NewScene("empty"),
		Traverser: spatial.NewTraverser(spatial.BoundsListener{}),
	}
	require.NoError(t, m.Init(ctx))

	// The camera uniform was never contributed.
	err := ctx.AssembleSharedGroups()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 0 binding 0")
}

func TestModuleResetReleasesResourcesAndSupportsRebuild(t *testing.T) {
	sc := scene.NewScene("reset scene")
	sc.Add(shape.NewShape("tri", shape.WithGeometry(triangle("tri mesh"))))
	cam := camera.NewCamera(camera.WithPosition(0, 0, 10))

	rig := newTestRig(t, sc, cam, NewShapeModule(), NewSkyModule())
	rig.frame(t)
	require.Len(t, rig.lastFrame(t), 1)

	// Context loss: tear everything down and rebuild against a fresh program.
	rig.ctx.ReleaseSharedGroups()
	for _, m := range rig.modules {
		m.Reset(rig.ctx)
	}
	rig.drv.DestroyProgram(rig.ctx.Program.Handle())
	rig.drv.DestroyBuffer(rig.camBuf)
	assert.Zero(t, rig.drv.LiveBuffers(), "reset must release every buffer")
	assert.Zero(t, rig.drv.LiveBindGroups(), "reset must release every bind group")
	assert.Zero(t, rig.drv.LiveFramebuffers(), "reset must release the shadow target")

	rebuilt := newTestRig(t, sc, cam, rig.modules[0], rig.modules[1])
	rebuilt.frame(t)
	assert.Len(t, rebuilt.lastFrame(t), 1, "the rebuilt pipeline renders the same scene")
}
