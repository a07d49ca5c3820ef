package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

// texture is the implementation of the Texture interface.
type texture struct {
	name   string
	pixels []byte
	width  int
	height int
	filter driver.FilterMode
	wrap   driver.WrapMode
	srgb   bool
	dirty  bool

	handle   driver.TextureHandle
	uploaded bool
}

// Texture defines the interface for a decoded RGBA image with sampler configuration.
// A Texture owns its CPU-side pixel data and the GPU texture created on Upload.
// Pixel or sampler mutation marks the texture dirty; the next Upload recreates the
// GPU texture, since sampler state is baked into it at creation.
type Texture interface {
	// Name retrieves the texture identifier.
	//
	// Returns:
	//   - string: the texture name
	Name() string

	// Pixels retrieves the raw RGBA pixel data (4 bytes per pixel, row-major order).
	//
	// Returns:
	//   - []byte: the pixel data
	Pixels() []byte

	// SetPixels replaces the pixel data and dimensions and marks the texture dirty.
	//
	// Parameters:
	//   - pixels: raw RGBA pixel data (4 bytes per pixel, row-major order)
	//   - width: the texture width in pixels
	//   - height: the texture height in pixels
	SetPixels(pixels []byte, width, height int)

	// Width retrieves the texture width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height retrieves the texture height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Filter retrieves the sampler filter mode.
	//
	// Returns:
	//   - driver.FilterMode: the filter mode
	Filter() driver.FilterMode

	// SetFilter sets the sampler filter mode and marks the texture dirty.
	//
	// Parameters:
	//   - filter: the filter mode to set
	SetFilter(filter driver.FilterMode)

	// Wrap retrieves the sampler address mode.
	//
	// Returns:
	//   - driver.WrapMode: the wrap mode
	Wrap() driver.WrapMode

	// SetWrap sets the sampler address mode and marks the texture dirty.
	//
	// Parameters:
	//   - wrap: the wrap mode to set
	SetWrap(wrap driver.WrapMode)

	// SRGB reports whether the texture is sampled in the sRGB color space.
	//
	// Returns:
	//   - bool: true if the texture uses an sRGB format
	SRGB() bool

	// Dirty reports whether CPU-side state has changed since the last Upload.
	//
	// Returns:
	//   - bool: true if the GPU texture is stale
	Dirty() bool

	// Upload creates the GPU texture on first call and recreates it on
	// subsequent calls while the texture is dirty. A clean, already-uploaded
	// texture is a no-op.
	//
	// Parameters:
	//   - drv: the driver to create the texture through
	//
	// Returns:
	//   - error: error if the pixel data does not match the dimensions or creation fails
	Upload(drv driver.Driver) error

	// Destroy releases the GPU texture. Safe to call on a texture that was
	// never uploaded. The CPU-side pixels are kept; a later Upload recreates
	// the GPU texture from them.
	//
	// Parameters:
	//   - drv: the driver that owns the texture
	Destroy(drv driver.Driver)

	// Uploaded reports whether a GPU texture currently exists.
	//
	// Returns:
	//   - bool: true if Upload has created a texture that Destroy has not released
	Uploaded() bool

	// Handle retrieves the GPU texture handle.
	//
	// Returns:
	//   - driver.TextureHandle: the texture handle, zero if not uploaded
	Handle() driver.TextureHandle
}

var _ Texture = &texture{}

// NewTexture creates a new Texture instance with the specified options applied.
// The default sampler configuration is linear filtering with repeat addressing.
//
// Parameters:
//   - options: a variadic list of TextureBuilderOption functions to configure the Texture
//
// Returns:
//   - Texture: a new instance of Texture configured with the provided options
func NewTexture(options ...TextureBuilderOption) Texture {
	t := &texture{dirty: true}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// White creates the 1×1 opaque white fallback texture used for materials
// without a base color map.
//
// Returns:
//   - Texture: the fallback texture
func White() Texture {
	return NewTexture(
		WithName("white"),
		WithPixels([]byte{255, 255, 255, 255}, 1, 1),
	)
}

// Decode decodes PNG or JPEG image bytes into a Texture with RGBA pixel data.
// Extra options are applied after the pixel data, so callers can set sampler
// state on the decoded texture.
//
// Parameters:
//   - name: the texture identifier
//   - data: raw PNG or JPEG image bytes
//   - options: optional builder options applied on top of the decoded pixels
//
// Returns:
//   - Texture: the decoded texture
//   - error: error if decoding fails
func Decode(name string, data []byte, options ...TextureBuilderOption) (Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %q: %w", name, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	all := append([]TextureBuilderOption{
		WithName(name),
		WithPixels(rgba.Pix, bounds.Dx(), bounds.Dy()),
	}, options...)
	return NewTexture(all...), nil
}

func (t *texture) Name() string {
	return t.name
}

func (t *texture) Pixels() []byte {
	return t.pixels
}

func (t *texture) SetPixels(pixels []byte, width, height int) {
	t.pixels = pixels
	t.width = width
	t.height = height
	t.dirty = true
}

func (t *texture) Width() int {
	return t.width
}

func (t *texture) Height() int {
	return t.height
}

func (t *texture) Filter() driver.FilterMode {
	return t.filter
}

func (t *texture) SetFilter(filter driver.FilterMode) {
	t.filter = filter
	t.dirty = true
}

func (t *texture) Wrap() driver.WrapMode {
	return t.wrap
}

func (t *texture) SetWrap(wrap driver.WrapMode) {
	t.wrap = wrap
	t.dirty = true
}

func (t *texture) SRGB() bool {
	return t.srgb
}

func (t *texture) Dirty() bool {
	return t.dirty
}

func (t *texture) Upload(drv driver.Driver) error {
	if drv == nil {
		panic("texture: Upload requires a non-nil driver")
	}
	if t.uploaded && !t.dirty {
		return nil
	}
	if len(t.pixels) != t.width*t.height*4 {
		return fmt.Errorf("texture %q has %d pixel bytes, expected %d for %dx%d RGBA",
			t.name, len(t.pixels), t.width*t.height*4, t.width, t.height)
	}

	// Sampler state is baked into the GPU texture, so a dirty texture is
	// recreated rather than written in place.
	if t.uploaded {
		t.Destroy(drv)
	}

	h, err := drv.CreateTexture(driver.TextureDescriptor{
		Label:  t.name,
		Width:  uint32(t.width),
		Height: uint32(t.height),
		Pixels: t.pixels,
		Filter: t.filter,
		Wrap:   t.wrap,
		SRGB:   t.srgb,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture %q: %w", t.name, err)
	}

	t.handle = h
	t.uploaded = true
	t.dirty = false
	return nil
}

func (t *texture) Destroy(drv driver.Driver) {
	if !t.uploaded {
		return
	}
	drv.DestroyTexture(t.handle)
	t.handle = 0
	t.uploaded = false
}

func (t *texture) Uploaded() bool {
	return t.uploaded
}

func (t *texture) Handle() driver.TextureHandle {
	return t.handle
}
