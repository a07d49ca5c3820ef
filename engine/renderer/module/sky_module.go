package module

import (
	_ "embed"
	"fmt"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/sky"
	"github.com/helio-engine/helio-go/engine/texture"
)

// skyWGSL is the backdrop stage: the parameter uniform, the panorama texture
// bindings, and the vs_sky/fs_sky entry point pair. Its vertex stage reuses
// the camera uniform and VertexInput the shape vertex stage declares, so a
// program composing this module needs a ShapeModule in front of it.
//
//go:embed assets/sky.wgsl
var skyWGSL string

// SkyModule draws the scene's backdrop after the opaque pass: a cube pushed
// to the far plane with depth writes off, shaded with either an
// equirectangular panorama or a vertical gradient. The sky is a scene
// property, not a graph node the traversal reaches, so the module reads it
// from the scene directly each frame.
//
// A panorama texture must be set on the sky's material before the renderer
// initializes; the texture binding joins the shared bind groups, which are
// assembled once.
type SkyModule struct {
	stage

	pipeline  driver.PipelineHandle
	paramsBuf driver.BufferHandle
	fallback  texture.Texture
	lastSky   *sky.Sky
	scratch   []driver.BindGroupHandle
}

var _ Module = &SkyModule{}

// NewSkyModule creates the backdrop rendering module.
//
// Returns:
//   - *SkyModule: the new module, ready for the renderer's Build
func NewSkyModule() *SkyModule {
	return &SkyModule{
		stage: stage{core: core{name: "sky"}},
	}
}

func (m *SkyModule) Build(prog shader.Program) {
	m.markBuilt()
	m.buildProcessors(prog)
	prog.AddFragment("sky stage", skyWGSL)
}

func (m *SkyModule) Init(ctx *Context) error {
	m.markInitialized()
	drv := ctx.Driver

	paramsBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "sky params",
		Kind:  driver.BufferUniform,
		Size:  uint64((&sky.GPUSkyParams{}).Size()),
	})
	if err != nil {
		return fmt.Errorf("failed to create sky params buffer: %w", err)
	}
	m.paramsBuf = paramsBuf

	group, binding, ok := ctx.BindingFor(shader.AnnotationArgSkyParams)
	if !ok {
		return fmt.Errorf("composed program declares no sky params binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  paramsBuf,
	})

	tex, err := m.panoramaTexture(ctx)
	if err != nil {
		return err
	}
	texGroup, texBinding, ok := ctx.ProviderBinding(shader.AnnotationArgSky, shader.AnnotationArgBaseColorTexture)
	if !ok {
		return fmt.Errorf("composed program declares no sky texture binding")
	}
	ctx.ContributeBinding(texGroup, driver.BindGroupEntry{
		Binding: uint32(texBinding),
		Kind:    driver.BindingTexture,
		Texture: tex.Handle(),
	})
	_, samplerBinding, ok := ctx.ProviderBinding(shader.AnnotationArgSky, shader.AnnotationArgBaseColorSampler)
	if !ok {
		return fmt.Errorf("composed program declares no sky sampler binding")
	}
	ctx.ContributeBinding(texGroup, driver.BindGroupEntry{
		Binding: uint32(samplerBinding),
		Kind:    driver.BindingSampler,
		Texture: tex.Handle(),
	})

	// LessEqual depth test: the vertex stage pins the cube to the far plane,
	// exactly where the clear left the depth buffer.
	pipeline, err := drv.CreatePipeline(driver.PipelineDescriptor{
		Label:          "sky backdrop",
		Program:        ctx.Program.Handle(),
		VertexEntry:    "vs_sky",
		FragmentEntry:  "fs_sky",
		DepthTest:      true,
		DepthLessEqual: true,
		DepthWrite:     false,
		CullMode:       driver.CullNone,
	})
	if err != nil {
		return fmt.Errorf("failed to create sky pipeline: %w", err)
	}
	m.pipeline = pipeline

	return m.initProcessors(ctx)
}

func (m *SkyModule) Render(ctx *Context) error {
	if err := m.renderProcessors(ctx); err != nil {
		return err
	}
	sk := ctx.Scene.Sky()
	if sk == nil {
		m.lastSky = nil
		return nil
	}
	drv := ctx.Driver

	geom := sk.Geometry()
	if !geom.Uploaded() || geom.Dirty() {
		if err := geom.Upload(drv); err != nil {
			return fmt.Errorf("failed to upload sky geometry %q: %w", geom.Name(), err)
		}
	}
	if sk.Dirty() || sk != m.lastSky {
		p := sk.Params()
		drv.WriteBuffer(m.paramsBuf, 0, p.Marshal())
	}
	m.lastSky = sk

	m.scratch = ctx.FillBindGroups(m.scratch)
	drv.Draw(driver.DrawCall{
		Pipeline:      m.pipeline,
		Vertex:        geom.VertexBuffer(),
		Index:         geom.IndexBuffer(),
		IndexCount:    uint32(geom.IndexCount()),
		InstanceCount: 1,
		BindGroups:    m.scratch,
	})
	return nil
}

func (m *SkyModule) Clean() {
	if m.lastSky != nil {
		m.lastSky.Clean()
	}
	m.cleanProcessors()
}

func (m *SkyModule) Reset(ctx *Context) {
	drv := ctx.Driver
	m.resetProcessors(ctx)
	if m.fallback != nil {
		m.fallback.Destroy(drv)
		m.fallback = nil
	}
	drv.DestroyBuffer(m.paramsBuf)
	m.paramsBuf = 0
	m.pipeline = 0
	m.lastSky = nil
	m.reset()
}

// panoramaTexture resolves the texture contributed to the sky bind group: the
// scene sky's material texture when one is set, a white fallback otherwise.
func (m *SkyModule) panoramaTexture(ctx *Context) (texture.Texture, error) {
	if sk := ctx.Scene.Sky(); sk != nil {
		if tex := sk.Material().Texture(); tex != nil {
			if !tex.Uploaded() || tex.Dirty() {
				if err := tex.Upload(ctx.Driver); err != nil {
					return nil, fmt.Errorf("failed to upload sky texture %q: %w", tex.Name(), err)
				}
			}
			return tex, nil
		}
	}
	m.fallback = texture.White()
	if err := m.fallback.Upload(ctx.Driver); err != nil {
		return nil, fmt.Errorf("failed to upload sky fallback texture: %w", err)
	}
	return m.fallback, nil
}
