package module

import (
	_ "embed"
	"fmt"

	"github.com/helio-engine/helio-go/engine/light"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
)

// shadowSamplingWGSL declares the shadow data storage array, the shadow map
// array and comparison sampler, and defines the shadow_factor PCF function
// the lit fragment stage calls.
//
//go:embed assets/shadow_sampling.wgsl
var shadowSamplingWGSL string

// shadowDepthWGSL is the complete source of the internal depth-only program:
// the engine-wide vertex input, the per-pass light view-projection uniform,
// the model storage array, and vs_shadow.
//
//go:embed assets/shadow_depth.wgsl
var shadowDepthWGSL string

// ShadowProcessor renders shadow maps for the scene's shadow-casting lights
// and binds them into the lit pass. Each frame it assigns shadow map layers
// to up to maxCasters casting lights, writes each light's shadow slot back so
// the light's GPU block can reference its map, refits the directional shadow
// frustum around the camera, and encodes one depth-only pass per layer before
// the main pass draws.
//
// Depth passes run through a private program and pipeline: the shared lit
// program never sees the shadow pass bindings, only the sampling side.
type ShadowProcessor struct {
	core

	owner        *ShapeModule
	illumination *IlluminationProcessor

	resolution int
	maxCasters int

	program  shader.Program
	pipeline driver.PipelineHandle
	target   driver.FramebufferHandle

	uniformBuf driver.BufferHandle
	shadowBuf  driver.BufferHandle
	cache      shadercache.Cache

	shadows map[light.Light]light.Shadow
	active  []light.Shadow

	uniformGroup driver.BindGroupHandle
	modelGroup   driver.BindGroupHandle
}

var _ Processor = &ShadowProcessor{}

// ShadowOption configures a ShadowProcessor during construction.
type ShadowOption func(*ShadowProcessor)

// withShadowMaxCasters sets how many shadow map layers the processor
// allocates. Panics if count is not positive.
func withShadowMaxCasters(count int) ShadowOption {
	if count <= 0 {
		panic("module: WithMaxShadowCasters requires a positive count")
	}
	return func(p *ShadowProcessor) {
		p.maxCasters = count
	}
}

// withShadowResolution sets the square resolution of each shadow map layer.
// Panics if resolution is not positive.
func withShadowResolution(resolution int) ShadowOption {
	if resolution <= 0 {
		panic("module: WithShadowMapResolution requires a positive resolution")
	}
	return func(p *ShadowProcessor) {
		p.resolution = resolution
	}
}

// NewShadowProcessor creates the shadow map processor. The owner supplies the
// visible shape list and the model buffer its depth passes draw from; the
// illumination processor supplies the frame's light set.
//
// Parameters:
//   - owner: the shape module hosting the processor
//   - illumination: the light synchronization processor
//   - opts: variadic list of ShadowOption functions to configure the processor
//
// Returns:
//   - *ShadowProcessor: the new processor
func NewShadowProcessor(owner *ShapeModule, illumination *IlluminationProcessor, opts ...ShadowOption) *ShadowProcessor {
	if owner == nil {
		panic("module: NewShadowProcessor requires a non-nil owner")
	}
	if illumination == nil {
		panic("module: NewShadowProcessor requires a non-nil illumination processor")
	}
	p := &ShadowProcessor{
		core:         core{name: "shadows"},
		owner:        owner,
		illumination: illumination,
		resolution:   light.ShadowMapResolution,
		maxCasters:   light.MaxShadowCasters,
		shadows:      make(map[light.Light]light.Shadow),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *ShadowProcessor) Build(prog shader.Program) {
	p.markBuilt()
	prog.AddFragment("shadow sampling stage", shadowSamplingWGSL)

	p.program = shader.NewProgram("shadow depth")
	p.program.AddFragment("shadow depth stage", shadowDepthWGSL)
}

func (p *ShadowProcessor) Init(ctx *Context) error {
	p.markInitialized()
	drv := ctx.Driver

	if err := p.program.Compile(drv); err != nil {
		return fmt.Errorf("failed to compile shadow depth program: %w", err)
	}

	target, err := drv.CreateFramebuffer(driver.FramebufferDescriptor{
		Label:  "shadow maps",
		Width:  uint32(p.resolution),
		Height: uint32(p.resolution),
		Layers: uint32(p.maxCasters),
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow framebuffer: %w", err)
	}
	p.target = target

	uniformBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "shadow pass uniform",
		Kind:  driver.BufferUniform,
		Size:  uint64((&light.GPUShadowUniform{}).Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow uniform buffer: %w", err)
	}
	p.uniformBuf = uniformBuf

	blockSize := (&light.GPUShadowData{}).Size()
	shadowBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "shadow data cache",
		Kind:  driver.BufferStorage,
		Size:  uint64(p.maxCasters * blockSize),
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow data buffer: %w", err)
	}
	p.shadowBuf = shadowBuf
	p.cache = shadercache.NewCache(drv, shadowBuf, p.maxCasters, blockSize)

	group, binding, ok := ctx.BindingFor(shader.AnnotationArgShadowData)
	if !ok {
		return fmt.Errorf("composed program declares no shadow data binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  shadowBuf,
	})

	group, binding, ok = ctx.ProviderBinding(shader.AnnotationArgShadow, shader.AnnotationArgShadowMap)
	if !ok {
		return fmt.Errorf("composed program declares no shadow map binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingShadowMap,
		Target:  target,
	})
	group, binding, ok = ctx.ProviderBinding(shader.AnnotationArgShadow, shader.AnnotationArgShadowSampler)
	if !ok {
		return fmt.Errorf("composed program declares no shadow sampler binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingShadowSampler,
		Target:  target,
	})

	// The depth program's own bindings: the pass uniform at group 0 and the
	// owner's model storage at group 1.
	ugroup, ubinding, ok := findBinding(p.program.Declarations(), shader.AnnotationArgShadowUniform)
	if !ok {
		return fmt.Errorf("shadow depth program declares no pass uniform binding")
	}
	uniformGroup, err := drv.CreateBindGroup(driver.BindGroupDescriptor{
		Label:   "shadow pass uniform",
		Program: p.program.Handle(),
		Group:   ugroup,
		Entries: []driver.BindGroupEntry{
			{Binding: uint32(ubinding), Kind: driver.BindingBuffer, Buffer: uniformBuf},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow uniform bind group: %w", err)
	}
	p.uniformGroup = uniformGroup

	mgroup, mbinding, ok := findBinding(p.program.Declarations(), shader.AnnotationArgModelData)
	if !ok {
		return fmt.Errorf("shadow depth program declares no model data binding")
	}
	modelGroup, err := drv.CreateBindGroup(driver.BindGroupDescriptor{
		Label:   "shadow pass models",
		Program: p.program.Handle(),
		Group:   mgroup,
		Entries: []driver.BindGroupEntry{
			{Binding: uint32(mbinding), Kind: driver.BindingBuffer, Buffer: p.owner.modelBuf},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow model bind group: %w", err)
	}
	p.modelGroup = modelGroup

	// Front-face culling plus a slope-scaled bias keeps acne down without
	// peter-panning thin geometry.
	pipeline, err := drv.CreatePipeline(driver.PipelineDescriptor{
		Label:               "shadow depth",
		Program:             p.program.Handle(),
		DepthTest:           true,
		DepthWrite:          true,
		CullMode:            driver.CullFront,
		DepthBias:           2,
		DepthBiasSlopeScale: 2.0,
		DepthOnly:           true,
	})
	if err != nil {
		return fmt.Errorf("failed to create shadow depth pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

func (p *ShadowProcessor) Render(ctx *Context) error {
	drv := ctx.Driver

	p.active = p.active[:0]
	for _, l := range p.illumination.Lights() {
		if !l.CastsShadows() || len(p.active) >= p.maxCasters {
			l.SetShadowSlot(shadercache.UnassignedSlot)
			continue
		}
		s, ok := p.shadows[l]
		if !ok {
			s = light.NewShadow(l, light.WithMapResolution(p.resolution))
			p.shadows[l] = s
		}
		p.active = append(p.active, s)
	}

	if p.setChanged() {
		p.cache.Clear()
		for _, s := range p.active {
			p.cache.Cache(s)
		}
		for l, s := range p.shadows {
			if s.Slot() == shadercache.UnassignedSlot {
				l.SetShadowSlot(shadercache.UnassignedSlot)
				delete(p.shadows, l)
			}
		}
	}

	for _, s := range p.active {
		if s.Layer() != s.Slot() {
			s.SetLayer(s.Slot())
		}
		s.Light().SetShadowSlot(s.Slot())
		s.Update(ctx.Camera.Position())
		if s.Dirty() {
			p.cache.Update(s)
		}
	}

	// One depth pass per caster. The pass uniform is rewritten between
	// passes; queue writes order against the submit inside EndShadowPass.
	for _, s := range p.active {
		u := s.Uniform()
		drv.WriteBuffer(p.uniformBuf, 0, u.Marshal())
		if err := drv.BeginShadowPass(p.target, s.Layer()); err != nil {
			return fmt.Errorf("failed to begin shadow pass for layer %d: %w", s.Layer(), err)
		}
		for _, v := range p.owner.visible {
			drv.Draw(driver.DrawCall{
				Pipeline:      p.pipeline,
				Vertex:        v.geom.VertexBuffer(),
				Index:         v.geom.IndexBuffer(),
				IndexCount:    uint32(v.geom.IndexCount()),
				InstanceCount: 1,
				FirstInstance: uint32(v.shape.Slot()),
				BindGroups:    []driver.BindGroupHandle{p.uniformGroup, p.modelGroup},
			})
		}
		drv.EndShadowPass()
	}
	return nil
}

func (p *ShadowProcessor) Clean() {
	for _, s := range p.active {
		s.Clean()
	}
}

func (p *ShadowProcessor) Reset(ctx *Context) {
	drv := ctx.Driver
	drv.DestroyBindGroup(p.uniformGroup)
	drv.DestroyBindGroup(p.modelGroup)
	p.uniformGroup, p.modelGroup = 0, 0
	if p.cache != nil {
		p.cache.Clear()
		p.cache = nil
	}
	drv.DestroyBuffer(p.uniformBuf)
	drv.DestroyBuffer(p.shadowBuf)
	p.uniformBuf, p.shadowBuf = 0, 0
	drv.DestroyFramebuffer(p.target)
	p.target = 0
	if p.program != nil && p.program.Handle() != 0 {
		drv.DestroyProgram(p.program.Handle())
	}
	p.program = nil
	p.pipeline = 0
	for l := range p.shadows {
		l.SetShadowSlot(shadercache.UnassignedSlot)
	}
	clear(p.shadows)
	p.active = p.active[:0]
	p.reset()
}

// setChanged reports whether this frame's caster set differs from the cached
// set.
func (p *ShadowProcessor) setChanged() bool {
	if len(p.active) != p.cache.NumCached() {
		return true
	}
	for _, s := range p.active {
		if !p.cache.IsCached(s) {
			return true
		}
	}
	return false
}
