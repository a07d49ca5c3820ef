package light

import "github.com/helio-engine/helio-go/engine/renderer/shadercache"

// ShadowMapResolution is the default width and height in texels of the shadow
// depth texture. The shadow processor uses this as its initial value; override
// it per shadow via the WithMapResolution builder option.
const ShadowMapResolution = 2048

// MaxShadowCasters is the default slot capacity of the shadow shader cache and
// the default layer count of the shadow map array. One layer is consumed per
// shadow-casting light each frame.
const MaxShadowCasters = 8

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum. Controls how much of the scene
// around the camera center is captured in the shadow map.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for the shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map
// texel world-size to compute the normal-offset bias. Higher values push
// the shadow sample point further along the surface normal, reducing
// self-shadowing on concave geometry at the cost of slight shadow
// detachment from contact points. Typical values are 2.0-4.0.
const DefaultShadowNormalBiasScale float32 = 3.0

// shadowImpl is the implementation of the Shadow interface.
type shadowImpl struct {
	light           Light
	data            GPUShadowData
	halfExtent      float32
	near            float32
	far             float32
	resolution      int
	normalBiasScale float32

	slot  int
	dirty bool
}

// Shadow pairs a shadow-casting light with the view-projection matrix of its
// depth pass and the shadow map array layer it renders into. Shadows occupy
// slots in the shadow shader cache the same way lights occupy the light
// cache; Marshal produces the 96-byte GPUShadowData block.
type Shadow interface {
	shadercache.Cacheable

	// Light returns the light this shadow belongs to.
	//
	// Returns:
	//   - Light: the owning light
	Light() Light

	// Layer returns the shadow map array layer the depth pass renders into.
	//
	// Returns:
	//   - int: the layer index
	Layer() int

	// SetLayer assigns the shadow map array layer and marks the shadow dirty.
	//
	// Parameters:
	//   - layer: the layer index
	SetLayer(layer int)

	// LightVP returns the current light view-projection matrix (column-major).
	//
	// Returns:
	//   - [16]float32: the light view-projection matrix
	LightVP() [16]float32

	// Resolution returns the shadow map resolution in texels.
	//
	// Returns:
	//   - int: width and height of the shadow map
	Resolution() int

	// Update recomputes the light view-projection matrix from the light's
	// current state. Directional lights use an orthographic frustum centered
	// on the provided point (typically the camera position); spot lights use a
	// perspective frustum from the light position covering the outer cone;
	// point lights use a single 90 degree perspective face along their
	// direction. The shadow is marked dirty only when the matrix changed.
	//
	// Parameters:
	//   - center: world-space center for the directional shadow frustum
	Update(center [3]float32)

	// Uniform returns the 64-byte vertex-stage uniform holding only the light
	// view-projection matrix, written before the depth-only shadow pass.
	//
	// Returns:
	//   - GPUShadowUniform: the shadow pass uniform data
	Uniform() GPUShadowUniform

	// Clean clears the dirty flag. Called by the owning module after the
	// shadow's GPU block has been synchronized.
	Clean()
}

var _ Shadow = &shadowImpl{}

// NewShadow creates shadow state for a light. The texel size and normal bias
// are derived from the resolution and half-extent after options are applied,
// and the view-projection matrix is computed once from the light's current
// state with the frustum centered at the origin.
//
// Parameters:
//   - l: the light the shadow belongs to
//   - opts: variadic list of ShadowBuilderOption functions to configure the shadow
//
// Returns:
//   - Shadow: the new shadow state
func NewShadow(l Light, opts ...ShadowBuilderOption) Shadow {
	if l == nil {
		panic("light: NewShadow requires a non-nil light")
	}
	s := &shadowImpl{
		light:           l,
		halfExtent:      DefaultShadowHalfExtent,
		near:            DefaultShadowNear,
		far:             DefaultShadowFar,
		resolution:      ShadowMapResolution,
		normalBiasScale: DefaultShadowNormalBiasScale,
		slot:            shadercache.UnassignedSlot,
		dirty:           true,
	}
	s.data.Bias = DefaultShadowBias
	for _, opt := range opts {
		opt(s)
	}
	s.data.TexelSize = [2]float32{1.0 / float32(s.resolution), 1.0 / float32(s.resolution)}
	s.data.ComputeNormalBias(s.halfExtent, s.normalBiasScale, s.resolution)
	s.Update([3]float32{0, 0, 0})
	return s
}

func (s *shadowImpl) Light() Light {
	return s.light
}

func (s *shadowImpl) Layer() int {
	return int(s.data.Layer)
}

func (s *shadowImpl) SetLayer(layer int) {
	s.data.Layer = uint32(layer)
	s.dirty = true
}

func (s *shadowImpl) LightVP() [16]float32 {
	return s.data.LightVP
}

func (s *shadowImpl) Resolution() int {
	return s.resolution
}

func (s *shadowImpl) Update(center [3]float32) {
	prev := s.data.LightVP
	switch s.light.Type() {
	case LightTypeDirectional:
		s.data.ComputeDirectionalLightVP(s.light.Direction(), center[0], center[1], center[2], s.halfExtent, s.near, s.far)
	case LightTypeSpot:
		s.data.ComputeSpotLightVP(s.light.Position(), s.light.Direction(), s.light.OuterCone(), s.near, s.rangeFar())
	case LightTypePoint:
		// cos(45°): a square 90 degree frustum along the light's direction.
		s.data.ComputeSpotLightVP(s.light.Position(), s.light.Direction(), 0.7071, s.near, s.rangeFar())
	}
	if s.data.LightVP != prev {
		s.dirty = true
	}
}

// rangeFar picks the far plane for positional lights: the light's range when
// it is usable, the configured far plane otherwise.
func (s *shadowImpl) rangeFar() float32 {
	if r := s.light.Range(); r > s.near {
		return r
	}
	return s.far
}

func (s *shadowImpl) Uniform() GPUShadowUniform {
	return GPUShadowUniform{LightVP: s.data.LightVP}
}

func (s *shadowImpl) Slot() int {
	return s.slot
}

func (s *shadowImpl) SetSlot(slot int) {
	s.slot = slot
}

func (s *shadowImpl) Dirty() bool {
	return s.dirty
}

func (s *shadowImpl) Clean() {
	s.dirty = false
}

func (s *shadowImpl) Marshal() []byte {
	return s.data.Marshal()
}
