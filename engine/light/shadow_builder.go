package light

// ShadowBuilderOption is a function that configures a Shadow instance during construction.
type ShadowBuilderOption func(*shadowImpl)

// WithLayer is an option builder that sets the shadow map array layer the
// shadow's depth pass renders into.
//
// Parameters:
//   - layer: the layer index
//
// Returns:
//   - ShadowBuilderOption: a function that applies the layer option to a shadowImpl
func WithLayer(layer int) ShadowBuilderOption {
	return func(s *shadowImpl) {
		s.data.Layer = uint32(layer)
	}
}

// WithMapResolution is an option builder that sets the shadow map resolution
// in texels. The texel size and normal bias are re-derived after options run.
//
// Parameters:
//   - resolution: shadow map width and height in texels
//
// Returns:
//   - ShadowBuilderOption: a function that applies the resolution option to a shadowImpl
func WithMapResolution(resolution int) ShadowBuilderOption {
	return func(s *shadowImpl) {
		if resolution > 0 {
			s.resolution = resolution
		}
	}
}

// WithHalfExtent is an option builder that sets the orthographic half-extent
// (in world units) of a directional light's shadow frustum.
//
// Parameters:
//   - halfExtent: frustum half-size in world units
//
// Returns:
//   - ShadowBuilderOption: a function that applies the half-extent option to a shadowImpl
func WithHalfExtent(halfExtent float32) ShadowBuilderOption {
	return func(s *shadowImpl) {
		s.halfExtent = halfExtent
	}
}

// WithShadowClipPlanes is an option builder that sets the near and far planes
// of the shadow projection. Positional lights still prefer their own range as
// the far plane when it is usable.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - ShadowBuilderOption: a function that applies the clip plane option to a shadowImpl
func WithShadowClipPlanes(near, far float32) ShadowBuilderOption {
	return func(s *shadowImpl) {
		s.near = near
		s.far = far
	}
}

// WithBias is an option builder that sets the constant depth comparison bias.
//
// Parameters:
//   - bias: the depth bias value
//
// Returns:
//   - ShadowBuilderOption: a function that applies the bias option to a shadowImpl
func WithBias(bias float32) ShadowBuilderOption {
	return func(s *shadowImpl) {
		s.data.Bias = bias
	}
}

// WithNormalBiasScale is an option builder that sets the multiplier applied to
// the shadow texel world-size when deriving the normal-offset bias.
//
// Parameters:
//   - scale: the normal bias scale (typically 2.0-4.0)
//
// Returns:
//   - ShadowBuilderOption: a function that applies the normal bias option to a shadowImpl
func WithNormalBiasScale(scale float32) ShadowBuilderOption {
	return func(s *shadowImpl) {
		s.normalBiasScale = scale
	}
}
