package module

// shapeModuleConfig collects options destined for the module's hosted
// processors, which are constructed after the module options run.
type shapeModuleConfig struct {
	illuminationOpts []IlluminationOption
	shadowOpts       []ShadowOption
}

// ShapeModuleOption is a function that configures a ShapeModule during construction.
type ShapeModuleOption func(*ShapeModule, *shapeModuleConfig)

// WithMaxShapes is an option builder that sets the slot capacity of the model
// cache. Panics if capacity is not positive.
//
// Parameters:
//   - capacity: the maximum number of GPU-resident shapes
//
// Returns:
//   - ShapeModuleOption: a function that applies the capacity to a ShapeModule
func WithMaxShapes(capacity int) ShapeModuleOption {
	if capacity <= 0 {
		panic("module: WithMaxShapes requires a positive capacity")
	}
	return func(m *ShapeModule, _ *shapeModuleConfig) {
		m.maxShapes = capacity
	}
}

// WithMaxMaterials is an option builder that sets the slot capacity of the
// material cache. Panics if capacity is not positive.
//
// Parameters:
//   - capacity: the maximum number of GPU-resident materials
//
// Returns:
//   - ShapeModuleOption: a function that applies the capacity to a ShapeModule
func WithMaxMaterials(capacity int) ShapeModuleOption {
	if capacity <= 0 {
		panic("module: WithMaxMaterials requires a positive capacity")
	}
	return func(m *ShapeModule, _ *shapeModuleConfig) {
		m.maxMaterials = capacity
	}
}

// WithMaxLights is an option builder that sets the slot capacity of the light
// cache on the module's illumination processor.
//
// Parameters:
//   - capacity: the maximum number of GPU-resident lights
//
// Returns:
//   - ShapeModuleOption: a function that forwards the capacity to the processor
func WithMaxLights(capacity int) ShapeModuleOption {
	return func(_ *ShapeModule, cfg *shapeModuleConfig) {
		cfg.illuminationOpts = append(cfg.illuminationOpts, withIlluminationMaxLights(capacity))
	}
}

// WithMaxShadowCasters is an option builder that sets how many shadow map
// layers the module's shadow processor allocates.
//
// Parameters:
//   - count: the maximum number of simultaneous shadow-casting lights
//
// Returns:
//   - ShapeModuleOption: a function that forwards the count to the processor
func WithMaxShadowCasters(count int) ShapeModuleOption {
	return func(_ *ShapeModule, cfg *shapeModuleConfig) {
		cfg.shadowOpts = append(cfg.shadowOpts, withShadowMaxCasters(count))
	}
}

// WithShadowMapResolution is an option builder that sets the square resolution
// of each shadow map layer.
//
// Parameters:
//   - resolution: the width and height of each layer in texels
//
// Returns:
//   - ShapeModuleOption: a function that forwards the resolution to the processor
func WithShadowMapResolution(resolution int) ShapeModuleOption {
	return func(_ *ShapeModule, cfg *shapeModuleConfig) {
		cfg.shadowOpts = append(cfg.shadowOpts, withShadowResolution(resolution))
	}
}
