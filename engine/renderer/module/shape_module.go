package module

import (
	_ "embed"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/renderer/shader"
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/spatial"
	"github.com/helio-engine/helio-go/engine/texture"
)

// DefaultMaxShapes is the default slot capacity of the per-instance model
// cache: the number of shapes that can be GPU-resident at once.
const DefaultMaxShapes = 4096

// DefaultMaxMaterials is the default slot capacity of the material cache.
const DefaultMaxMaterials = 256

// shapeVertexWGSL is the lit pass vertex stage: camera and per-instance model
// bindings, the engine-wide VertexInput declaration, and vs_main.
//
//go:embed assets/shape_vertex.wgsl
var shapeVertexWGSL string

// shapeFragmentWGSL is the lit pass fragment stage: the material storage
// array, the per-material texture bindings, and fs_main. It calls the
// light_contribution and shadow_factor functions the module's processors
// contribute, so it registers after them.
//
//go:embed assets/shape_fragment.wgsl
var shapeFragmentWGSL string

// visibleShape is one entry of the frame's visible list.
type visibleShape struct {
	shape    *shape.Shape
	geom     geometry.Geometry
	distance float32
}

// materialBinding pairs the texture a material's bind group was created
// against with the group itself, so a texture re-upload invalidates it.
type materialBinding struct {
	tex   driver.TextureHandle
	group driver.BindGroupHandle
}

// ShapeModule renders the scene's shapes: it registers the cull/collect
// listener (frustum culling of branches via hierarchical bounds, LOD
// selection for visible leaves), keeps the model and material caches
// synchronized, and encodes one indexed draw per visible shape with the
// shape's model slot as the draw's first instance.
//
// The module hosts the ShadowProcessor and IlluminationProcessor: the lit
// fragment stage calls functions their fragments define. The shadow processor
// registers first so shadow slots are assigned before the light blocks
// upload.
type ShapeModule struct {
	stage

	maxShapes    int
	maxMaterials int

	illumination *IlluminationProcessor
	shadows      *ShadowProcessor

	visible []visibleShape

	modelBuf    driver.BufferHandle
	materialBuf driver.BufferHandle
	models      shadercache.Cache
	materials   shadercache.Cache

	opaque      driver.PipelineHandle
	doubleSided driver.PipelineHandle

	materialGroup  int
	textureBinding uint32
	samplerBinding uint32
	bindings       map[material.Material]materialBinding
	fallback       texture.Texture

	uploaded map[geometry.Geometry]struct{}
	scratch  []driver.BindGroupHandle
}

var _ Module = &ShapeModule{}

// NewShapeModule creates the shape rendering module with its shadow and
// illumination processors attached and any provided options applied.
//
// Parameters:
//   - opts: variadic list of ShapeModuleOption functions to configure the module
//
// Returns:
//   - *ShapeModule: the new module, ready for the renderer's Build
func NewShapeModule(opts ...ShapeModuleOption) *ShapeModule {
	m := &ShapeModule{
		stage:        stage{core: core{name: "shapes"}},
		maxShapes:    DefaultMaxShapes,
		maxMaterials: DefaultMaxMaterials,
		bindings:     make(map[material.Material]materialBinding),
		uploaded:     make(map[geometry.Geometry]struct{}),
	}
	cfg := shapeModuleConfig{}
	for _, opt := range opts {
		opt(m, &cfg)
	}
	m.illumination = NewIlluminationProcessor(cfg.illuminationOpts...)
	m.shadows = NewShadowProcessor(m, m.illumination, cfg.shadowOpts...)
	m.AddProcessor(m.shadows)
	m.AddProcessor(m.illumination)
	return m
}

// Illumination returns the module's illumination processor.
//
// Returns:
//   - *IlluminationProcessor: the hosted processor
func (m *ShapeModule) Illumination() *IlluminationProcessor {
	return m.illumination
}

// Shadows returns the module's shadow processor.
//
// Returns:
//   - *ShadowProcessor: the hosted processor
func (m *ShapeModule) Shadows() *ShadowProcessor {
	return m.shadows
}

// Visible returns the shapes collected by the most recent traversal, in
// visit order.
//
// Returns:
//   - []*shape.Shape: the visible shapes
func (m *ShapeModule) Visible() []*shape.Shape {
	out := make([]*shape.Shape, len(m.visible))
	for i, v := range m.visible {
		out[i] = v.shape
	}
	return out
}

func (m *ShapeModule) Build(prog shader.Program) {
	m.markBuilt()
	prog.AddFragment("shape vertex stage", shapeVertexWGSL)
	m.buildProcessors(prog)
	prog.AddFragment("shape fragment stage", shapeFragmentWGSL)
}

func (m *ShapeModule) Init(ctx *Context) error {
	m.markInitialized()
	drv := ctx.Driver

	modelBlock := (&geometry.GPUModelData{}).Size()
	modelBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "model cache",
		Kind:  driver.BufferStorage,
		Size:  uint64(m.maxShapes * modelBlock),
	})
	if err != nil {
		return fmt.Errorf("failed to create model buffer: %w", err)
	}
	m.modelBuf = modelBuf
	m.models = shadercache.NewCache(drv, modelBuf, m.maxShapes, modelBlock)

	materialBlock := (&material.GPUMaterialParams{}).Size()
	materialBuf, err := drv.CreateBuffer(driver.BufferDescriptor{
		Label: "material cache",
		Kind:  driver.BufferStorage,
		Size:  uint64(m.maxMaterials * materialBlock),
	})
	if err != nil {
		return fmt.Errorf("failed to create material buffer: %w", err)
	}
	m.materialBuf = materialBuf
	m.materials = shadercache.NewCache(drv, materialBuf, m.maxMaterials, materialBlock)

	group, binding, ok := ctx.BindingFor(shader.AnnotationArgModelData)
	if !ok {
		return fmt.Errorf("composed program declares no model data binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  modelBuf,
	})

	group, binding, ok = ctx.BindingFor(shader.AnnotationArgMaterialParams)
	if !ok {
		return fmt.Errorf("composed program declares no material params binding")
	}
	ctx.ContributeBinding(group, driver.BindGroupEntry{
		Binding: uint32(binding),
		Kind:    driver.BindingBuffer,
		Buffer:  materialBuf,
	})

	// Per-material texture group: the fallback white texture serves as the
	// shared default so every pipeline of the program can bind the group.
	texGroup, texBinding, ok := ctx.ProviderBinding(shader.AnnotationArgMaterial, shader.AnnotationArgBaseColorTexture)
	if !ok {
		return fmt.Errorf("composed program declares no material texture binding")
	}
	_, samplerBinding, ok := ctx.ProviderBinding(shader.AnnotationArgMaterial, shader.AnnotationArgBaseColorSampler)
	if !ok {
		return fmt.Errorf("composed program declares no material sampler binding")
	}
	m.materialGroup = texGroup
	m.textureBinding = uint32(texBinding)
	m.samplerBinding = uint32(samplerBinding)

	m.fallback = texture.White()
	if err := m.fallback.Upload(drv); err != nil {
		return fmt.Errorf("failed to upload fallback texture: %w", err)
	}
	ctx.ContributeBinding(texGroup, driver.BindGroupEntry{
		Binding: m.textureBinding,
		Kind:    driver.BindingTexture,
		Texture: m.fallback.Handle(),
	})
	ctx.ContributeBinding(texGroup, driver.BindGroupEntry{
		Binding: m.samplerBinding,
		Kind:    driver.BindingSampler,
		Texture: m.fallback.Handle(),
	})

	opaque, err := drv.CreatePipeline(driver.PipelineDescriptor{
		Label:      "shapes opaque",
		Program:    ctx.Program.Handle(),
		DepthTest:  true,
		DepthWrite: true,
		CullMode:   driver.CullBack,
	})
	if err != nil {
		return fmt.Errorf("failed to create opaque pipeline: %w", err)
	}
	m.opaque = opaque

	doubleSided, err := drv.CreatePipeline(driver.PipelineDescriptor{
		Label:      "shapes double-sided",
		Program:    ctx.Program.Handle(),
		DepthTest:  true,
		DepthWrite: true,
		CullMode:   driver.CullNone,
	})
	if err != nil {
		return fmt.Errorf("failed to create double-sided pipeline: %w", err)
	}
	m.doubleSided = doubleSided

	ctx.Traverser.AddListener(&shapeListener{module: m, camera: ctx.Camera})

	return m.initProcessors(ctx)
}

func (m *ShapeModule) Render(ctx *Context) error {
	drv := ctx.Driver

	// Materials first: the model blocks embed the material slot.
	for _, v := range m.visible {
		mat := v.shape.Material()
		if !m.materials.IsCached(mat) {
			m.materials.Cache(mat)
		} else if mat.Dirty() {
			m.materials.Update(mat)
		}
	}
	for _, v := range m.visible {
		if !v.geom.Uploaded() || v.geom.Dirty() {
			if err := v.geom.Upload(drv); err != nil {
				return fmt.Errorf("failed to upload geometry %q: %w", v.geom.Name(), err)
			}
			m.uploaded[v.geom] = struct{}{}
		}
		if !m.models.IsCached(v.shape) {
			m.models.Cache(v.shape)
		} else if v.shape.Dirty() {
			m.models.Update(v.shape)
		}
	}

	// Shadow depth passes and light uploads happen before the main draws
	// encode, while the model cache is already current.
	if err := m.renderProcessors(ctx); err != nil {
		return err
	}

	for _, v := range m.visible {
		mat := v.shape.Material()
		bg, err := m.materialBindGroup(ctx, mat)
		if err != nil {
			return err
		}
		m.scratch = ctx.FillBindGroups(m.scratch)
		m.scratch[m.materialGroup] = bg

		pipe := m.opaque
		if mat.DoubleSided() {
			pipe = m.doubleSided
		}
		drv.Draw(driver.DrawCall{
			Pipeline:      pipe,
			Vertex:        v.geom.VertexBuffer(),
			Index:         v.geom.IndexBuffer(),
			IndexCount:    uint32(v.geom.IndexCount()),
			InstanceCount: 1,
			FirstInstance: uint32(v.shape.Slot()),
			BindGroups:    m.scratch,
		})
	}
	return nil
}

func (m *ShapeModule) Clean() {
	for _, v := range m.visible {
		v.shape.Material().Clean()
	}
	m.cleanProcessors()
}

func (m *ShapeModule) Reset(ctx *Context) {
	drv := ctx.Driver
	m.resetProcessors(ctx)

	for _, b := range m.bindings {
		drv.DestroyBindGroup(b.group)
	}
	m.bindings = make(map[material.Material]materialBinding)
	for g := range m.uploaded {
		g.Destroy(drv)
	}
	m.uploaded = make(map[geometry.Geometry]struct{})
	if m.fallback != nil {
		m.fallback.Destroy(drv)
		m.fallback = nil
	}
	if m.models != nil {
		m.models.Clear()
		m.models = nil
	}
	if m.materials != nil {
		m.materials.Clear()
		m.materials = nil
	}
	drv.DestroyBuffer(m.modelBuf)
	drv.DestroyBuffer(m.materialBuf)
	m.modelBuf, m.materialBuf = 0, 0
	m.opaque, m.doubleSided = 0, 0
	m.visible = m.visible[:0]
	m.reset()
}

// materialBindGroup returns the texture bind group for a material, creating
// it on first use and recreating it when the material's texture was
// re-uploaded. Materials without a texture share the context's default group.
func (m *ShapeModule) materialBindGroup(ctx *Context, mat material.Material) (driver.BindGroupHandle, error) {
	tex := mat.Texture()
	if tex == nil {
		return ctx.SharedGroup(m.materialGroup), nil
	}
	if !tex.Uploaded() || tex.Dirty() {
		if err := tex.Upload(ctx.Driver); err != nil {
			return 0, fmt.Errorf("failed to upload texture %q: %w", tex.Name(), err)
		}
	}
	if b, ok := m.bindings[mat]; ok && b.tex == tex.Handle() {
		return b.group, nil
	}
	if b, ok := m.bindings[mat]; ok {
		ctx.Driver.DestroyBindGroup(b.group)
	}
	bg, err := ctx.Driver.CreateBindGroup(driver.BindGroupDescriptor{
		Label:   fmt.Sprintf("material %q", mat.Name()),
		Program: ctx.Program.Handle(),
		Group:   m.materialGroup,
		Entries: []driver.BindGroupEntry{
			{Binding: m.textureBinding, Kind: driver.BindingTexture, Texture: tex.Handle()},
			{Binding: m.samplerBinding, Kind: driver.BindingSampler, Texture: tex.Handle()},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bind group for material %q: %w", mat.Name(), err)
	}
	m.bindings[mat] = materialBinding{tex: tex.Handle(), group: bg}
	return bg, nil
}

// shapeListener is the module's traversal listener: it prunes branches whose
// current hierarchical bounds miss the frustum and collects visible shape
// leaves with their LOD pick.
//
// A dirty branch is never pruned: its bounds are stale, and descending is the
// only way to refresh them. Since the renderer cleans only traversed nodes, a
// pruned branch would otherwise stay stale forever.
type shapeListener struct {
	module *ShapeModule
	camera camera.Camera
}

var _ spatial.Listener = &shapeListener{}

func (l *shapeListener) Init(spatial.Spatial) {
	l.module.visible = l.module.visible[:0]
}

func (l *shapeListener) BranchAdvance(branch spatial.Spatial) bool {
	n := branch.AsNode()
	if n.TransformDirty() || n.DescendantTransformDirty() || n.BoundsDirty() {
		return false
	}
	return !l.camera.Intersects(n.WorldBounds())
}

func (l *shapeListener) LeafVisited(leaf spatial.Spatial) bool {
	s, ok := leaf.(*shape.Shape)
	if !ok {
		return false
	}
	if !l.camera.Intersects(s.WorldBounds()) {
		return true
	}
	center := s.WorldBounds().Center
	eye := l.camera.Position()
	dx, dy, dz := center[0]-eye[0], center[1]-eye[1], center[2]-eye[2]
	distance := math32.Sqrt(dx*dx + dy*dy + dz*dz)
	l.module.visible = append(l.module.visible, visibleShape{
		shape:    s,
		geom:     s.SelectLOD(distance),
		distance: distance,
	})
	return true
}

func (l *shapeListener) BranchExhausted(spatial.Spatial) {}
