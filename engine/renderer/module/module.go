// Package module defines the rendering pipeline's composable stages. Every
// stage moves through the same four-phase lifecycle, driven by the renderer:
//
//   - Build: contribute WGSL fragments and binding declarations to the shared
//     shader program, once, before compilation.
//   - Init: allocate GPU resources, once, after the program compiles.
//   - Render: per-frame work; traversal-driven collection has already run.
//   - Clean: per-frame dirty-flag reset for objects the stage owns.
//
// Modules are stages that additionally host an ordered list of sub-processors
// running inside the parent's phases. The shader-composition graph must be
// fully assembled before compilation, so adding a stage to an initialized
// owner is a panic, as is registering two stages under one name.
package module

import (
	"fmt"

	"github.com/helio-engine/helio-go/engine/renderer/shader"
)

// Processor is one stage of the rendering pipeline lifecycle. Implementations
// are single-goroutine objects owned by the frame loop.
type Processor interface {
	// Name returns the stage's unique registration name.
	//
	// Returns:
	//   - string: the stage name
	Name() string

	// Build contributes the stage's WGSL fragments to the shared program.
	// Called exactly once per lifecycle, before the program compiles.
	// Panics when called twice without an intervening Reset.
	//
	// Parameters:
	//   - prog: the shared program, still open for fragments
	Build(prog shader.Program)

	// Init allocates the stage's GPU resources and contributes its shared
	// bind group entries to the context. Called exactly once per lifecycle,
	// after the shared program compiled. Panics when called twice or before
	// Build.
	//
	// Parameters:
	//   - ctx: the frame context carrying the driver, program, camera, scene, and traverser
	//
	// Returns:
	//   - error: an error if a GPU resource could not be created
	Init(ctx *Context) error

	// Render performs the stage's per-frame work between the renderer's
	// BeginFrame and EndFrame.
	//
	// Parameters:
	//   - ctx: the frame context
	//
	// Returns:
	//   - error: an error if a per-frame GPU operation failed
	Render(ctx *Context) error

	// Clean clears the dirty flags of the objects the stage synchronized
	// this frame. Runs after the frame is submitted.
	Clean()

	// Reset tears the stage back down to unbuilt: GPU resources are released
	// through the context's driver and cache slots are revoked. Only
	// context-loss recovery calls this; the renderer follows it with a fresh
	// Build and Init against a new program.
	//
	// Parameters:
	//   - ctx: the context whose driver owns the stage's resources
	Reset(ctx *Context)
}

// Module is a Processor that hosts ordered sub-processors. The processors run
// inside the module's own phases, in registration order.
type Module interface {
	Processor

	// AddProcessor registers a sub-processor. Panics once the module is
	// initialized or when the name is already registered.
	//
	// Parameters:
	//   - p: the processor to register
	AddProcessor(p Processor)

	// Processors returns the registered sub-processors in registration
	// order. The returned slice is the module's own; callers must not
	// mutate it.
	//
	// Returns:
	//   - []Processor: the sub-processors
	Processors() []Processor
}

// core carries the name and lifecycle state shared by every stage.
type core struct {
	name        string
	built       bool
	initialized bool
}

func (c *core) Name() string {
	return c.name
}

// markBuilt transitions unbuilt → built, panicking on a repeat Build.
func (c *core) markBuilt() {
	if c.built {
		panic(fmt.Sprintf("module: %s built twice", c.name))
	}
	c.built = true
}

// markInitialized transitions built → initialized, panicking on ordering bugs.
func (c *core) markInitialized() {
	if !c.built {
		panic(fmt.Sprintf("module: %s initialized before build", c.name))
	}
	if c.initialized {
		panic(fmt.Sprintf("module: %s initialized twice", c.name))
	}
	c.initialized = true
}

// reset returns the stage to unbuilt.
func (c *core) reset() {
	c.built = false
	c.initialized = false
}

// stage extends core with sub-processor hosting for modules.
type stage struct {
	core
	processors []Processor
}

func (s *stage) AddProcessor(p Processor) {
	if s.initialized {
		panic(fmt.Sprintf("module: %s cannot add processor %q after init", s.name, p.Name()))
	}
	for _, existing := range s.processors {
		if existing.Name() == p.Name() {
			panic(fmt.Sprintf("module: %s already has a processor named %q", s.name, p.Name()))
		}
	}
	s.processors = append(s.processors, p)
}

func (s *stage) Processors() []Processor {
	return s.processors
}

func (s *stage) buildProcessors(prog shader.Program) {
	for _, p := range s.processors {
		p.Build(prog)
	}
}

func (s *stage) initProcessors(ctx *Context) error {
	for _, p := range s.processors {
		if err := p.Init(ctx); err != nil {
			return fmt.Errorf("failed to init processor %q: %w", p.Name(), err)
		}
	}
	return nil
}

func (s *stage) renderProcessors(ctx *Context) error {
	for _, p := range s.processors {
		if err := p.Render(ctx); err != nil {
			return fmt.Errorf("processor %q failed: %w", p.Name(), err)
		}
	}
	return nil
}

func (s *stage) cleanProcessors() {
	for _, p := range s.processors {
		p.Clean()
	}
}

func (s *stage) resetProcessors(ctx *Context) {
	for _, p := range s.processors {
		p.Reset(ctx)
	}
}
