// Package renderer orchestrates the frame: it composes the shared shader
// program from its modules, owns the scene traversal, and drives every stage
// through the build/init/render/clean lifecycle.
package renderer

import (
	"fmt"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/module"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// rendererImpl is the implementation of the Renderer interface.
type rendererImpl struct {
	drv     driver.Driver
	cam     camera.Camera
	sc      scene.Scene
	modules []module.Module

	clearColor [4]float32

	ctx     *module.Context
	touched *touchListener
	camBuf  driver.BufferHandle

	initialized bool
}

// Renderer drives the rendering pipeline. Modules are registered before Init;
// Init composes and compiles the shared shader program, lets every module
// allocate its GPU resources, and assembles the shared bind groups. After
// that, RenderFrame runs the per-frame cycle: camera update, scene traversal,
// module render passes, and the dirty-flag clean pass.
//
// A renderer is single-goroutine, owned by the frame loop.
type Renderer interface {
	// AddModule registers a rendering module. Panics after Init, because the
	// shader composition graph is sealed by compilation, and panics when the
	// module's name is already registered.
	//
	// Parameters:
	//   - m: the module to register
	AddModule(m module.Module)

	// Modules returns the registered modules in registration order. The
	// returned slice is the renderer's own; callers must not mutate it.
	//
	// Returns:
	//   - []module.Module: the registered modules
	Modules() []module.Module

	// Init composes the shared shader program from the registered modules,
	// compiles it, initializes every module, and assembles the shared bind
	// groups. Called exactly once; Rebuild repeats the cycle after context
	// loss.
	//
	// Returns:
	//   - error: an error if compilation, a module Init, or bind group assembly failed
	Init() error

	// RenderFrame runs one full frame: the camera refreshes its matrices and
	// frustum, the traversal updates transforms and bounds while the modules'
	// listeners collect their working sets, the modules encode their passes
	// between BeginFrame and EndFrame, and the clean pass resets the dirty
	// flags of everything the frame touched. Nodes inside branches the
	// traversal pruned keep their dirty flags, so their stale state is
	// refreshed when the branch is next entered.
	//
	// Returns:
	//   - error: an error if the frame could not begin or a module's render failed
	RenderFrame() error

	// Resize propagates a new surface size to the driver and the camera.
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// Rebuild recovers from GPU context loss: every module tears down to
	// unbuilt, the shared program and bind groups are released, and the whole
	// build/init cycle runs again against the same driver.
	//
	// Returns:
	//   - error: an error if the rebuild's compile or init failed
	Rebuild() error

	// Context returns the frame context shared with the modules. Nil before
	// Init.
	//
	// Returns:
	//   - *module.Context: the frame context
	Context() *module.Context
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a renderer over a driver, rendering the given scene
// from the given camera.
//
// Parameters:
//   - drv: the GPU driver, must be non-nil
//   - sc: the scene to render, must be non-nil
//   - cam: the camera to render from, must be non-nil
//   - opts: variadic list of RendererBuilderOption functions to configure the renderer
//
// Returns:
//   - Renderer: the new renderer, ready for AddModule and Init
func NewRenderer(drv driver.Driver, sc scene.Scene, cam camera.Camera, opts ...RendererBuilderOption) Renderer {
	if drv == nil {
		panic("renderer: NewRenderer requires a non-nil driver")
	}
	if sc == nil {
		panic("renderer: NewRenderer requires a non-nil scene")
	}
	if cam == nil {
		panic("renderer: NewRenderer requires a non-nil camera")
	}
	r := &rendererImpl{
		drv:        drv,
		sc:         sc,
		cam:        cam,
		clearColor: [4]float32{0, 0, 0, 1},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *rendererImpl) AddModule(m module.Module) {
	if r.initialized {
		panic(fmt.Sprintf("renderer: cannot add module %q after init", m.Name()))
	}
	for _, existing := range r.modules {
		if existing.Name() == m.Name() {
			panic(fmt.Sprintf("renderer: module %q already registered", m.Name()))
		}
	}
	r.modules = append(r.modules, m)
}

func (r *rendererImpl) Modules() []module.Module {
	return r.modules
}

func (r *rendererImpl) Init() error {
	if r.initialized {
		return fmt.Errorf("renderer already initialized")
	}
	if err := r.buildAndInit(); err != nil {
		return err
	}
	r.initialized = true
	return nil
}

// buildAndInit runs the compose/compile/init/assemble cycle shared by Init
// and Rebuild.
func (r *rendererImpl) buildAndInit() error {
	prog := shader.NewProgram("helio program")
	for _, m := range r.modules {
		m.Build(prog)
	}
	if err := prog.Compile(r.drv); err != nil {
		return fmt.Errorf("failed to compile composed program: %w", err)
	}

	r.touched = &touchListener{}
	r.ctx = &module.Context{
		Driver:    r.drv,
		Program:   prog,
		Camera:    r.cam,
		Scene:     r.sc,
		Traverser: spatial.NewTraverser(spatial.BoundsListener{}, r.touched),
	}

	camBuf, err := r.drv.CreateBuffer(driver.BufferDescriptor{
		Label: "camera uniform",
		Kind:  driver.BufferUniform,
		Size:  uint64((&camera.GPUCameraUniform{}).Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to create camera buffer: %w", err)
	}
	r.camBuf = camBuf

	group, binding, ok := r.ctx.BindingFor(shader.AnnotationArgCamera)
	if !ok {
		return fmt.Errorf("composed program declares no camera binding")
	}
	r.ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  camBuf,
	})

	for _, m := range r.modules {
		if err := m.Init(r.ctx); err != nil {
			return fmt.Errorf("failed to init module %q: %w", m.Name(), err)
		}
	}
	if err := r.ctx.AssembleSharedGroups(); err != nil {
		return err
	}

	u := r.cam.Uniform()
	r.drv.WriteBuffer(camBuf, 0, u.Marshal())
	return nil
}

func (r *rendererImpl) RenderFrame() error {
	if !r.initialized {
		return fmt.Errorf("renderer not initialized")
	}

	camDirty := r.cam.ViewDirty() || r.cam.ProjectionDirty()
	r.cam.Update()
	if camDirty {
		u := r.cam.Uniform()
		r.drv.WriteBuffer(r.camBuf, 0, u.Marshal())
	}

	r.ctx.Traverser.Traverse(r.sc.Root())

	if err := r.drv.BeginFrame(r.clearColor); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	for _, m := range r.modules {
		if err := m.Render(r.ctx); err != nil {
			return fmt.Errorf("module %q failed: %w", m.Name(), err)
		}
	}
	r.drv.EndFrame()

	// Clean pass: only nodes the traversal actually reached. A pruned branch
	// keeps its flags so its subtree refreshes when the walk next enters it.
	r.touched.cleanAll()
	r.cam.Clean()
	for _, m := range r.modules {
		m.Clean()
	}
	return nil
}

func (r *rendererImpl) Resize(width, height int) {
	r.drv.Resize(width, height)
	r.cam.Resize(width, height)
}

func (r *rendererImpl) Rebuild() error {
	if !r.initialized {
		return fmt.Errorf("renderer not initialized")
	}

	r.ctx.ReleaseSharedGroups()
	for _, m := range r.modules {
		m.Reset(r.ctx)
	}
	r.drv.DestroyBuffer(r.camBuf)
	r.camBuf = 0
	r.drv.DestroyProgram(r.ctx.Program.Handle())
	r.ctx = nil

	return r.buildAndInit()
}

func (r *rendererImpl) Context() *module.Context {
	return r.ctx
}

// touchListener records every node the traversal reached this pass so the
// renderer's clean pass resets exactly those. Branches count when exhausted,
// not when entered: a pruned branch was not fully refreshed and must stay
// dirty.
type touchListener struct {
	nodes []*spatial.NodeBase
}

var _ spatial.Listener = &touchListener{}

func (l *touchListener) Init(spatial.Spatial) {
	l.nodes = l.nodes[:0]
}

func (l *touchListener) BranchAdvance(spatial.Spatial) bool { return false }

func (l *touchListener) LeafVisited(leaf spatial.Spatial) bool {
	l.nodes = append(l.nodes, leaf.AsNode())
	return false
}

func (l *touchListener) BranchExhausted(branch spatial.Spatial) {
	l.nodes = append(l.nodes, branch.AsNode())
}

func (l *touchListener) cleanAll() {
	for _, n := range l.nodes {
		n.Clean()
	}
	l.nodes = l.nodes[:0]
}
