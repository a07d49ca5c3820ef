package material

import (
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
	"github.com/helio-engine/helio-go/engine/texture"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	baseColor   [4]float32
	metallic    float32
	roughness   float32
	emissive    [3]float32
	texture     texture.Texture
	doubleSided bool

	slot  int
	dirty bool
}

// Material defines the interface for a render material: the PBR surface
// parameters of a shape plus an optional base color texture.
//
// Each material occupies a slot in the material shader cache; setters mark
// the material dirty, the shape module re-uploads dirty blocks at their
// existing slots, and Clean resets the flag during the module clean phase.
// Marshal produces the 48-byte GPUMaterialParams block. The double-sided
// flag drives pipeline cull state and is not part of the GPU block.
type Material interface {
	shadercache.Cacheable

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo RGBA factor of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// SetBaseColor sets the albedo RGBA factor and marks the material dirty.
	//
	// Parameters:
	//   - r, g, b, a: base color components
	SetBaseColor(r, g, b, a float32)

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// SetMetallic sets the metallic factor and marks the material dirty.
	//
	// Parameters:
	//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
	SetMetallic(metallic float32)

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// SetRoughness sets the roughness factor and marks the material dirty.
	//
	// Parameters:
	//   - roughness: the roughness factor
	SetRoughness(roughness float32)

	// Emissive retrieves the emissive RGB color of the material.
	//
	// Returns:
	//   - [3]float32: the emissive color
	Emissive() [3]float32

	// SetEmissive sets the emissive RGB color and marks the material dirty.
	//
	// Parameters:
	//   - r, g, b: emissive color components
	SetEmissive(r, g, b float32)

	// Texture retrieves the base color texture, or nil if the material is untextured.
	//
	// Returns:
	//   - texture.Texture: the base color texture, or nil
	Texture() texture.Texture

	// SetTexture sets the base color texture and marks the material dirty.
	// Passing nil makes the material untextured.
	//
	// Parameters:
	//   - tex: the base color texture, or nil
	SetTexture(tex texture.Texture)

	// DoubleSided reports whether both faces of the surface are rendered.
	//
	// Returns:
	//   - bool: true when back-face culling is disabled for this material
	DoubleSided() bool

	// SetDoubleSided sets whether both faces of the surface are rendered.
	//
	// Parameters:
	//   - doubleSided: true to disable back-face culling
	SetDoubleSided(doubleSided bool)

	// Params assembles the GPU parameter block for the current surface values.
	//
	// Returns:
	//   - GPUMaterialParams: the material parameter data
	Params() GPUMaterialParams

	// Clean clears the dirty flag. Called by the owning module after the
	// material's GPU block has been synchronized.
	Clean()
}

var _ Material = &material{}

// NewMaterial creates a new Material with white albedo, dielectric fully rough
// surface defaults, and any provided options applied. A new material starts
// dirty and unslotted; it becomes GPU-resident the first time the shape module
// caches it.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
		slot:      shadercache.UnassignedSlot,
		dirty:     true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) SetBaseColor(r, g, b, a float32) {
	m.baseColor = [4]float32{r, g, b, a}
	m.dirty = true
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) SetMetallic(metallic float32) {
	m.metallic = metallic
	m.dirty = true
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) SetRoughness(roughness float32) {
	m.roughness = roughness
	m.dirty = true
}

func (m *material) Emissive() [3]float32 {
	return m.emissive
}

func (m *material) SetEmissive(r, g, b float32) {
	m.emissive = [3]float32{r, g, b}
	m.dirty = true
}

func (m *material) Texture() texture.Texture {
	return m.texture
}

func (m *material) SetTexture(tex texture.Texture) {
	m.texture = tex
	m.dirty = true
}

func (m *material) DoubleSided() bool {
	return m.doubleSided
}

func (m *material) SetDoubleSided(doubleSided bool) {
	m.doubleSided = doubleSided
}

func (m *material) Params() GPUMaterialParams {
	useTexture := uint32(0)
	if m.texture != nil {
		useTexture = 1
	}
	return GPUMaterialParams{
		BaseColor:  m.baseColor,
		Emissive:   m.emissive,
		Metallic:   m.metallic,
		Roughness:  m.roughness,
		UseTexture: useTexture,
	}
}

func (m *material) Slot() int {
	return m.slot
}

func (m *material) SetSlot(slot int) {
	m.slot = slot
}

func (m *material) Dirty() bool {
	return m.dirty
}

func (m *material) Clean() {
	m.dirty = false
}

func (m *material) Marshal() []byte {
	p := m.Params()
	return p.Marshal()
}
