package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/renderer/driver"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWhiteFallback(t *testing.T) {
	w := White()
	assert.Equal(t, "white", w.Name())
	assert.Equal(t, 1, w.Width())
	assert.Equal(t, 1, w.Height())
	assert.Equal(t, []byte{255, 255, 255, 255}, w.Pixels())
}

func TestDecodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})

	tex, err := Decode("checker", encodePNG(t, img))
	require.NoError(t, err)

	assert.Equal(t, "checker", tex.Name())
	assert.Equal(t, 2, tex.Width())
	assert.Equal(t, 1, tex.Height())
	assert.Equal(t, []byte{255, 0, 0, 255, 0, 255, 0, 255}, tex.Pixels())
}

func TestDecodeInvalidData(t *testing.T) {
	_, err := Decode("broken", []byte{0xde, 0xad, 0xbe, 0xef})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to decode image "broken"`)
}

func TestUploadLifecycle(t *testing.T) {
	d := driver.NewHeadless()
	tex := White()

	require.NoError(t, tex.Upload(d))
	assert.True(t, tex.Uploaded())
	assert.False(t, tex.Dirty())
	assert.NotZero(t, tex.Handle())
	assert.Equal(t, 1, d.CreatedTextures())

	// Clean re-upload is a no-op.
	require.NoError(t, tex.Upload(d))
	assert.Equal(t, 1, d.CreatedTextures())

	// A sampler change forces a recreate since sampler state is baked in.
	tex.SetFilter(driver.FilterNearest)
	assert.True(t, tex.Dirty())
	require.NoError(t, tex.Upload(d))
	assert.Equal(t, 2, d.CreatedTextures())
	assert.Equal(t, 1, d.LiveTextures())

	desc, ok := d.TextureDesc(tex.Handle())
	require.True(t, ok)
	assert.Equal(t, driver.FilterNearest, desc.Filter)

	tex.Destroy(d)
	assert.False(t, tex.Uploaded())
	assert.Zero(t, tex.Handle())
	assert.Equal(t, 0, d.LiveTextures())
}

func TestUploadValidatesPixelSize(t *testing.T) {
	d := driver.NewHeadless()
	tex := NewTexture(
		WithName("short"),
		WithPixels([]byte{255, 255}, 1, 1),
	)

	err := tex.Upload(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 pixel bytes, expected 4")
	assert.False(t, tex.Uploaded())
}

func TestUploadNilDriverPanics(t *testing.T) {
	assert.PanicsWithValue(t, "texture: Upload requires a non-nil driver", func() {
		_ = White().Upload(nil)
	})
}

func TestDestroyWithoutUploadIsSafe(t *testing.T) {
	d := driver.NewHeadless()
	White().Destroy(d)
	assert.Equal(t, 0, d.CreatedTextures())
}

func TestDecodeSRGBDefaultsOff(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{10, 20, 30, 255})

	tex, err := Decode("plain", encodePNG(t, img))
	require.NoError(t, err)
	assert.False(t, tex.SRGB())
}
