package texture

import (
	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// TextureBuilderOption is a functional option for configuring a Texture via NewTexture.
type TextureBuilderOption func(*texture)

// WithName is an option builder that sets the name of the Texture.
//
// Parameters:
//   - name: the texture identifier
//
// Returns:
//   - TextureBuilderOption: a function that applies the name option to a texture
func WithName(name string) TextureBuilderOption {
	return func(t *texture) {
		t.name = name
	}
}

// WithPixels is an option builder that sets the RGBA pixel data and dimensions of the Texture.
//
// Parameters:
//   - pixels: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - width: the texture width in pixels
//   - height: the texture height in pixels
//
// Returns:
//   - TextureBuilderOption: a function that applies the pixel data option to a texture
func WithPixels(pixels []byte, width, height int) TextureBuilderOption {
	return func(t *texture) {
		t.pixels = pixels
		t.width = width
		t.height = height
	}
}

// WithFilter is an option builder that sets the sampler filter mode of the Texture.
//
// Parameters:
//   - filter: the filter mode to set
//
// Returns:
//   - TextureBuilderOption: a function that applies the filter option to a texture
func WithFilter(filter driver.FilterMode) TextureBuilderOption {
	return func(t *texture) {
		t.filter = filter
	}
}

// WithWrap is an option builder that sets the sampler address mode of the Texture.
//
// Parameters:
//   - wrap: the wrap mode to set
//
// Returns:
//   - TextureBuilderOption: a function that applies the wrap option to a texture
func WithWrap(wrap driver.WrapMode) TextureBuilderOption {
	return func(t *texture) {
		t.wrap = wrap
	}
}

// WithSRGB is an option builder that marks the Texture as sRGB-encoded.
// Base color maps should be sampled in sRGB; data maps should not.
//
// Parameters:
//   - srgb: true to use an sRGB texture format
//
// Returns:
//   - TextureBuilderOption: a function that applies the sRGB option to a texture
func WithSRGB(srgb bool) TextureBuilderOption {
	return func(t *texture) {
		t.srgb = srgb
	}
}
