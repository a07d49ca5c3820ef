// Package engine ties the window, GPU driver, renderer, profiler, and
// animation players together into an application context with a
// single-goroutine frame loop.
package engine

import (
	"fmt"
	"time"

	"github.com/helio-engine/helio-go/engine/animation"
	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/config"
	"github.com/helio-engine/helio-go/engine/profiler"
	"github.com/helio-engine/helio-go/engine/renderer"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/module"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/window"
)

// maxFrameDelta caps the simulation time fed into the fixed-step
// accumulator after a stall (debugger pause, window drag), so the loop
// never tries to catch up with a burst of updates.
const maxFrameDelta = 0.25

// Engine is an explicitly constructed application context. There is no
// global engine: everything an application touches hangs off this value.
//
// The frame loop, the scene graph, and all GPU work run on the goroutine
// that calls Run. Callbacks registered here are invoked from that same
// goroutine, so they may mutate the scene freely.
type Engine interface {
	// Window returns the platform window.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Renderer returns the frame orchestrator.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Scene returns the scene being rendered.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// Camera returns the active camera.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// AddUpdate registers a fixed-timestep update callback. Callbacks run
	// zero or more times per frame, always with the same dt, in
	// registration order.
	//
	// Parameters:
	//   - fn: the callback, receiving the fixed step in seconds
	AddUpdate(fn func(dt float32))

	// AddInputHandler registers a handler for drained window events.
	// Handlers run at the frame boundary, before updates, in registration
	// order.
	//
	// Parameters:
	//   - fn: the handler
	AddInputHandler(fn func(ev window.Event))

	// AddPlayer registers an animation player advanced every frame.
	//
	// Parameters:
	//   - p: the player
	AddPlayer(p animation.Player)

	// RemovePlayer unregisters a previously added player.
	//
	// Parameters:
	//   - p: the player to remove
	//
	// Returns:
	//   - bool: true if the player was registered
	RemovePlayer(p animation.Player) bool

	// Run initializes the renderer and executes the frame loop on the
	// calling goroutine until the window should close or Stop is called.
	//
	// Returns:
	//   - error: an error if initialization or a frame fails
	Run() error

	// Stop requests the frame loop to exit. The current frame runs to
	// completion. Safe to call from any callback.
	Stop()
}

type engineImpl struct {
	cfg config.Config

	win  window.Window
	drv  driver.Driver
	rend renderer.Renderer
	sc   scene.Scene
	cam  camera.Camera
	prof *profiler.Profiler

	modules []module.Module
	players []animation.Player
	updates []func(dt float32)
	inputs  []func(ev window.Event)

	fixedStep float32
	stopped   bool
}

var _ Engine = &engineImpl{}

// NewEngine builds an application context. Without overriding options it
// creates a GLFW window and a WebGPU driver from the configuration, a
// default camera, an empty scene, and a renderer hosting the shape and sky
// modules sized from the configuration's cache capacities.
//
// Must be called from the main goroutine when the real window is used.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - Engine: the constructed engine
func NewEngine(opts ...EngineBuilderOption) Engine {
	e := &engineImpl{
		cfg:       config.Default(),
		fixedStep: 1.0 / 60.0,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.prof == nil {
		e.prof = profiler.NewProfiler(
			profiler.WithEnabled(e.cfg.Profiler.Enabled),
			profiler.WithInterval(time.Duration(e.cfg.Profiler.IntervalSeconds*float64(time.Second))),
		)
	}
	if e.win == nil {
		e.win = window.NewWindow(
			window.WithTitle(e.cfg.Window.Title),
			window.WithSize(e.cfg.Window.Width, e.cfg.Window.Height),
		)
	}
	width, height := e.win.Size()
	if e.drv == nil {
		var dopts []driver.WGPUDriverOption
		if e.cfg.Window.VSync {
			dopts = append(dopts, driver.WithVSync())
		}
		e.drv = driver.NewWGPU(e.win.SurfaceDescriptor(), width, height, dopts...)
	}
	if e.sc == nil {
		e.sc = scene.NewScene("main")
	}
	if e.cam == nil {
		e.cam = camera.NewCamera(
			camera.WithFov(e.cfg.Camera.FOV),
			camera.WithClipPlanes(e.cfg.Camera.Near, e.cfg.Camera.Far),
			camera.WithViewport(width, height),
		)
	}
	if len(e.modules) == 0 {
		e.modules = []module.Module{
			module.NewShapeModule(
				module.WithMaxShapes(e.cfg.Renderer.MaxShapes),
				module.WithMaxMaterials(e.cfg.Renderer.MaxMaterials),
				module.WithMaxLights(e.cfg.Renderer.MaxLights),
				module.WithMaxShadowCasters(e.cfg.Renderer.MaxShadowCasters),
				module.WithShadowMapResolution(e.cfg.Renderer.ShadowMapSize),
			),
			module.NewSkyModule(),
		}
	}
	cc := e.cfg.Renderer.ClearColor
	e.rend = renderer.NewRenderer(e.drv, e.sc, e.cam,
		renderer.WithModules(e.modules...),
		renderer.WithClearColor(cc[0], cc[1], cc[2], cc[3]),
	)
	return e
}

func (e *engineImpl) Window() window.Window       { return e.win }
func (e *engineImpl) Renderer() renderer.Renderer { return e.rend }
func (e *engineImpl) Scene() scene.Scene          { return e.sc }
func (e *engineImpl) Camera() camera.Camera       { return e.cam }

func (e *engineImpl) AddUpdate(fn func(dt float32)) {
	e.updates = append(e.updates, fn)
}

func (e *engineImpl) AddInputHandler(fn func(ev window.Event)) {
	e.inputs = append(e.inputs, fn)
}

func (e *engineImpl) AddPlayer(p animation.Player) {
	e.players = append(e.players, p)
}

func (e *engineImpl) RemovePlayer(p animation.Player) bool {
	for i := range e.players {
		if e.players[i] == p {
			e.players = append(e.players[:i], e.players[i+1:]...)
			return true
		}
	}
	return false
}

func (e *engineImpl) Stop() {
	e.stopped = true
}

func (e *engineImpl) Run() error {
	if err := e.rend.Init(); err != nil {
		return fmt.Errorf("failed to init renderer: %w", err)
	}

	var frameCap time.Duration
	if e.cfg.Renderer.TargetFPS > 0 {
		frameCap = time.Second / time.Duration(e.cfg.Renderer.TargetFPS)
	}

	var accumulator float32
	last := time.Now()

	for !e.stopped && !e.win.ShouldClose() {
		frameStart := time.Now()
		dt := float32(frameStart.Sub(last).Seconds())
		last = frameStart
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}

		e.win.Poll()
		for _, ev := range e.win.DrainEvents() {
			if ev.Kind == window.EventResize {
				e.rend.Resize(ev.Width, ev.Height)
			}
			for _, handler := range e.inputs {
				handler(ev)
			}
		}

		accumulator += dt
		for accumulator >= e.fixedStep {
			for _, update := range e.updates {
				update(e.fixedStep)
			}
			accumulator -= e.fixedStep
		}

		for _, p := range e.players {
			p.Advance(dt)
		}

		if err := e.rend.RenderFrame(); err != nil {
			return fmt.Errorf("frame failed: %w", err)
		}

		e.prof.Sample(time.Since(frameStart))

		if frameCap > 0 {
			if remaining := frameCap - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}
