package driver

// wgpuDriverConfig collects construction-time options for the WebGPU driver.
type wgpuDriverConfig struct {
	sampleCount          MSAASampleCount
	vsync                bool
	forceFallbackAdapter bool
}

// WGPUDriverOption is a function that configures the WebGPU driver during construction.
type WGPUDriverOption func(*wgpuDriverConfig)

// WithSampleCount is an option builder that sets the MSAA sample count for the main render pass.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - WGPUDriverOption: a function that applies the sample count option to the driver
func WithSampleCount(count MSAASampleCount) WGPUDriverOption {
	return func(cfg *wgpuDriverConfig) {
		cfg.sampleCount = count
	}
}

// WithVSync is an option builder that selects the FIFO present mode, capping
// the frame rate to the monitor's refresh rate.
//
// Returns:
//   - WGPUDriverOption: a function that applies the vsync option to the driver
func WithVSync() WGPUDriverOption {
	return func(cfg *wgpuDriverConfig) {
		cfg.vsync = true
	}
}

// WithForceFallbackAdapter is an option builder that forces selection of a
// software fallback adapter, useful on machines without a hardware GPU.
//
// Returns:
//   - WGPUDriverOption: a function that applies the fallback adapter option to the driver
func WithForceFallbackAdapter() WGPUDriverOption {
	return func(cfg *wgpuDriverConfig) {
		cfg.forceFallbackAdapter = true
	}
}
