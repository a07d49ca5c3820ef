package module

import (
	_ "embed"
	"fmt"

	"github.com/helio-engine/helio-go/engine/light"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// illuminationWGSL declares the light header uniform and light storage array
// and defines the light_contribution function the lit fragment stage calls.
//
//go:embed assets/illumination.wgsl
var illuminationWGSL string

// IlluminationProcessor keeps the GPU light set synchronized with the scene:
// it collects enabled light nodes during traversal, caches their blocks in the
// light storage buffer, and writes the header (ambient color, light count)
// when it changes.
//
// Light slots are not stable across frames the way model slots are: when the
// collected set changes, the cache is cleared and rebuilt so the shader's
// 0..light_count range holds exactly this frame's lights.
type IlluminationProcessor struct {
	core

	maxLights int

	lightBuf  driver.BufferHandle
	headerBuf driver.BufferHandle
	cache     shadercache.Cache

	frame       []light.Light
	lastHeader  light.GPULightHeader
	headerValid bool
}

var _ Processor = &IlluminationProcessor{}

// IlluminationOption configures an IlluminationProcessor during construction.
type IlluminationOption func(*IlluminationProcessor)

// withIlluminationMaxLights sets the slot capacity of the light cache.
// Panics if capacity is not positive or exceeds the shader-side array bound.
func withIlluminationMaxLights(capacity int) IlluminationOption {
	if capacity <= 0 {
		panic("module: WithMaxLights requires a positive capacity")
	}
	if capacity > light.MaxGPULights {
		panic(fmt.Sprintf("module: WithMaxLights capacity %d exceeds the maximum of %d", capacity, light.MaxGPULights))
	}
	return func(p *IlluminationProcessor) {
		p.maxLights = capacity
	}
}

// NewIlluminationProcessor creates the light synchronization processor.
//
// Parameters:
//   - opts: variadic list of IlluminationOption functions to configure the processor
//
// Returns:
//   - *IlluminationProcessor: the new processor
func NewIlluminationProcessor(opts ...IlluminationOption) *IlluminationProcessor {
	p := &IlluminationProcessor{
		core:      core{name: "illumination"},
		maxLights: light.MaxGPULights,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Lights returns the lights collected by the most recent traversal, in visit
// order.
//
// Returns:
//   - []light.Light: this frame's enabled lights
func (p *IlluminationProcessor) Lights() []light.Light {
	return p.frame
}

func (p *IlluminationProcessor) Build(prog shader.Program) {
	p.markBuilt()
	prog.AddFragment("illumination stage", illuminationWGSL)
}

func (p *IlluminationProcessor) Init(ctx *Context) error {
	p.markInitialized()
	drv := ctx.Driver

	blockSize := (&light.GPULight{}).Size()
	lightBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "light cache",
		Kind:  driver.BufferStorage,
		Size:  uint64(p.maxLights * blockSize),
	})
	if err != nil {
		return fmt.Errorf("failed to create light buffer: %w", err)
	}
	p.lightBuf = lightBuf
	p.cache = shadercache.NewCache(drv, lightBuf, p.maxLights, blockSize)

	headerBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "light header",
		Kind:  driver.BufferUniform,
		Size:  uint64((&light.GPULightHeader{}).Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to create light header buffer: %w", err)
	}
	p.headerBuf = headerBuf

	group, binding, ok := ctx.BindingFor(shader.AnnotationArgLightHeader)
	if !ok {
		return fmt.Errorf("composed program declares no light header binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  headerBuf,
	})

	group, binding, ok = ctx.BindingFor(shader.AnnotationArgLight)
	if !ok {
		return fmt.Errorf("composed program declares no light binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  lightBuf,
	})

	ctx.Traverser.AddListener(&lightListener{processor: p})
	return nil
}

func (p *IlluminationProcessor) Render(ctx *Context) error {
	if len(p.frame) > p.maxLights {
		return fmt.Errorf("scene has %d lights, cache capacity is %d", len(p.frame), p.maxLights)
	}

	if p.setChanged() {
		// Rebuild from slot zero so the shader's light range is contiguous.
		p.cache.Clear()
		for _, l := range p.frame {
			p.cache.Cache(l)
		}
	} else {
		for _, l := range p.frame {
			if l.Dirty() {
				p.cache.Update(l)
			}
		}
	}

	header := light.GPULightHeader{
		AmbientColor: ctx.Scene.Ambient(),
		LightCount:   uint32(len(p.frame)),
	}
	if !p.headerValid || header != p.lastHeader {
		ctx.Driver.WriteBuffer(p.headerBuf, 0, header.Marshal())
		p.lastHeader = header
		p.headerValid = true
	}
	return nil
}

func (p *IlluminationProcessor) Clean() {
	for _, l := range p.frame {
		l.Clean()
	}
}

func (p *IlluminationProcessor) Reset(ctx *Context) {
	if p.cache != nil {
		p.cache.Clear()
		p.cache = nil
	}
	ctx.Driver.DestroyBuffer(p.lightBuf)
	ctx.Driver.DestroyBuffer(p.headerBuf)
	p.lightBuf, p.headerBuf = 0, 0
	p.frame = p.frame[:0]
	p.headerValid = false
	p.reset()
}

// setChanged reports whether this frame's light set differs from the cached
// set: a count mismatch or any collected light without a slot.
func (p *IlluminationProcessor) setChanged() bool {
	if len(p.frame) != p.cache.NumCached() {
		return true
	}
	for _, l := range p.frame {
		if !p.cache.IsCached(l) {
			return true
		}
	}
	return false
}

// lightListener collects enabled light nodes during traversal, pulling each
// node's world transform into its light before recording it.
type lightListener struct {
	processor *IlluminationProcessor
}

var _ spatial.Listener = &lightListener{}

func (l *lightListener) Init(spatial.Spatial) {
	l.processor.frame = l.processor.frame[:0]
}

func (l *lightListener) BranchAdvance(spatial.Spatial) bool { return false }

func (l *lightListener) LeafVisited(leaf spatial.Spatial) bool {
	n, ok := leaf.(*light.Node)
	if !ok {
		return false
	}
	n.Sync()
	if n.Light().Enabled() {
		l.processor.frame = append(l.processor.frame, n.Light())
	}
	return true
}

func (l *lightListener) BranchExhausted(spatial.Spatial) {}
