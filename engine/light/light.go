package light

import "github.com/helio-engine/helio-go/engine/renderer/shadercache"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Used for bare bulbs, lanterns, and candle flames. Attenuates with distance
	// up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Used for flashlights, desk lamps, and wall sconces. Attenuates with both
	// distance and angle from the cone axis, controlled by inner and outer cone angles.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType    LightType
	position     [3]float32
	direction    [3]float32
	color        [3]float32
	intensity    float32
	lightRange   float32
	innerCone    float32 // stored as cos(angle in radians)
	outerCone    float32 // stored as cos(angle in radians)
	enabled      bool
	castsShadows bool

	slot       int
	shadowSlot int
	dirty      bool
}

// Light defines the interface for a light source in the scene.
//
// Lights are placed in the scene graph through Node and collected by the
// illumination listener during traversal. Each light occupies a slot in the
// light shader cache: setters mark the light dirty, the owning processor
// re-uploads dirty blocks at its existing slot, and Clean resets the flag
// during the module clean phase. Marshal produces the 64-byte GPULight block.
type Light interface {
	shadercache.Cacheable

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	// Beyond this distance the light contributes zero energy. Meaningless for
	// directional lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	// Fragments within this angle receive full intensity. Meaningless for
	// directional and point lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	// Fragments outside this angle receive zero intensity from the spot cone
	// falloff. Meaningless for directional and point lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped when the illumination listener collects.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether this light is eligible for shadow map generation.
	// Shadow-casting lights have their depth pass rendered each frame, which is
	// expensive; most lights should have this disabled.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetPosition sets the world-space position of the light and marks it dirty.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetDirection sets the direction of the light, normalizes it, and marks
	// the light dirty.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light and marks it dirty.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier and marks the light dirty.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance and marks the light dirty.
	//
	// Parameters:
	//   - lightRange: the range value
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights and
	// marks the light dirty. Angles are specified in degrees and stored
	// internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light is eligible for shadow mapping and
	// marks the light dirty.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)

	// ShadowSlot returns the shadow cache slot assigned by the shadow processor,
	// or shadercache.UnassignedSlot when the light has no shadow map this frame.
	// The slot is encoded into the GPU light block so the fragment shader can
	// index the shadow data array.
	//
	// Returns:
	//   - int: the shadow slot, or shadercache.UnassignedSlot
	ShadowSlot() int

	// SetShadowSlot assigns or revokes the light's shadow cache slot and marks
	// the light dirty when the slot changes.
	//
	// Parameters:
	//   - slot: the shadow slot, or shadercache.UnassignedSlot to revoke
	SetShadowSlot(slot int)

	// Clean clears the dirty flag. Called by the owning module after the
	// light's GPU block has been synchronized.
	Clean()
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied. A new light starts dirty and unslotted; it
// becomes GPU-resident the first time the illumination processor caches it.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:    lightType,
		position:     [3]float32{0, 0, 0},
		direction:    [3]float32{0, -1, 0},
		color:        [3]float32{1, 1, 1},
		intensity:    1.0,
		lightRange:   10.0,
		innerCone:    0.9063, // cos(25°)
		outerCone:    0.8192, // cos(35°)
		enabled:      true,
		castsShadows: false,
		slot:         shadercache.UnassignedSlot,
		shadowSlot:   shadercache.UnassignedSlot,
		dirty:        true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
	l.dirty = true
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = normalize3(x, y, z)
	l.dirty = true
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
	l.dirty = true
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
	l.dirty = true
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
	l.dirty = true
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
	l.dirty = true
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
	l.dirty = true
}

func (l *lightImpl) ShadowSlot() int {
	return l.shadowSlot
}

func (l *lightImpl) SetShadowSlot(slot int) {
	if l.shadowSlot == slot {
		return
	}
	l.shadowSlot = slot
	l.dirty = true
}

func (l *lightImpl) Slot() int {
	return l.slot
}

func (l *lightImpl) SetSlot(slot int) {
	l.slot = slot
}

func (l *lightImpl) Dirty() bool {
	return l.dirty
}

func (l *lightImpl) Clean() {
	l.dirty = false
}

func (l *lightImpl) Marshal() []byte {
	gpu := ToGPULight(l)
	return gpu.Marshal()
}
