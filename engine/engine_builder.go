package engine

import (
	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/config"
	"github.com/helio-engine/helio-go/engine/profiler"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/module"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engineImpl)

// WithConfig supplies the engine configuration. Components created by the
// engine (window, driver, camera, modules) take their settings from it.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: the option function
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engineImpl) {
		e.cfg = cfg
	}
}

// WithScene supplies the scene instead of the default empty one.
//
// Parameters:
//   - sc: the scene
//
// Returns:
//   - EngineBuilderOption: the option function
func WithScene(sc scene.Scene) EngineBuilderOption {
	return func(e *engineImpl) {
		e.sc = sc
	}
}

// WithCamera supplies the camera instead of the config-derived default.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - EngineBuilderOption: the option function
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engineImpl) {
		e.cam = cam
	}
}

// WithModules supplies the renderer's module list instead of the default
// shape and sky modules.
//
// Parameters:
//   - modules: the modules in registration order
//
// Returns:
//   - EngineBuilderOption: the option function
func WithModules(modules ...module.Module) EngineBuilderOption {
	return func(e *engineImpl) {
		e.modules = modules
	}
}

// WithWindow supplies the window instead of creating a GLFW one. Used for
// headless runs and tests.
//
// Parameters:
//   - win: the window
//
// Returns:
//   - EngineBuilderOption: the option function
func WithWindow(win window.Window) EngineBuilderOption {
	return func(e *engineImpl) {
		e.win = win
	}
}

// WithDriver supplies the GPU driver instead of creating a WebGPU one over
// the window's surface. Used for headless runs and tests.
//
// Parameters:
//   - drv: the driver
//
// Returns:
//   - EngineBuilderOption: the option function
func WithDriver(drv driver.Driver) EngineBuilderOption {
	return func(e *engineImpl) {
		e.drv = drv
	}
}

// WithProfiler supplies the profiler instead of the config-derived default.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: the option function
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engineImpl) {
		e.prof = p
	}
}

// WithFixedStep sets the fixed update timestep in seconds. Panics on
// non-positive steps.
//
// Parameters:
//   - step: the timestep in seconds
//
// Returns:
//   - EngineBuilderOption: the option function
func WithFixedStep(step float32) EngineBuilderOption {
	if step <= 0 {
		panic("engine: WithFixedStep requires a positive step")
	}
	return func(e *engineImpl) {
		e.fixedStep = step
	}
}
