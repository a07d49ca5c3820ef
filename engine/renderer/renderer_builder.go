package renderer

import "github.com/helio-engine/helio-go/engine/renderer/module"

// RendererBuilderOption is a function that configures a Renderer instance during construction.
type RendererBuilderOption func(*rendererImpl)

// WithModules is an option builder that registers rendering modules in order,
// as if AddModule were called for each.
//
// Parameters:
//   - modules: the modules to register
//
// Returns:
//   - RendererBuilderOption: a function that applies the modules to a renderer
func WithModules(modules ...module.Module) RendererBuilderOption {
	return func(r *rendererImpl) {
		for _, m := range modules {
			r.AddModule(m)
		}
	}
}

// WithClearColor is an option builder that sets the color the main pass
// clears to each frame.
//
// Parameters:
//   - r, g, b, a: clear color components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color to a renderer
func WithClearColor(red, green, blue, alpha float32) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.clearColor = [4]float32{red, green, blue, alpha}
	}
}
