package sky

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/texture"
)

func TestNewSkyDefaults(t *testing.T) {
	s := NewSky("sky")

	require.NotNil(t, s.Geometry())
	assert.Equal(t, 8, s.Geometry().VertexCount())
	assert.Equal(t, 36, s.Geometry().IndexCount())
	require.NotNil(t, s.Material())
	assert.True(t, s.Dirty())
	assert.True(t, s.WorldBounds().IsInfinite())

	p := s.Params()
	assert.Equal(t, uint32(0), p.UseTexture)
	assert.Equal(t, float32(1), p.TopColor[3])
	assert.Equal(t, float32(1), p.HorizonColor[3])
}

func TestColorSettersMarkDirty(t *testing.T) {
	s := NewSky("sky")
	s.Clean()
	require.False(t, s.Dirty())

	s.SetTopColor(0.1, 0.2, 0.3)
	assert.True(t, s.Dirty())
	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, s.TopColor())

	s.Clean()
	s.SetHorizonColor(0.9, 0.8, 0.7)
	assert.True(t, s.Dirty())
	assert.Equal(t, [3]float32{0.9, 0.8, 0.7}, s.HorizonColor())
}

func TestParamsReflectTexturePresence(t *testing.T) {
	s := NewSky("sky")
	assert.Equal(t, uint32(0), s.Params().UseTexture)

	s.Material().SetTexture(texture.White())
	assert.Equal(t, uint32(1), s.Params().UseTexture)
}

func TestParamsMarshalLayout(t *testing.T) {
	p := GPUSkyParams{
		TopColor:     [4]float32{0.1, 0.2, 0.3, 1},
		HorizonColor: [4]float32{0.4, 0.5, 0.6, 1},
		UseTexture:   1,
	}
	require.Equal(t, 48, p.Size())

	buf := p.Marshal()
	require.Len(t, buf, 48)
	assert.Equal(t, float32(0.1), float32at(buf, 0))
	assert.Equal(t, float32(0.4), float32at(buf, 16))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[32:36]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[44:48]))
}

func TestBuilderOptions(t *testing.T) {
	s := NewSky("sky",
		WithTopColor(0, 0, 1),
		WithHorizonColor(1, 1, 1),
	)

	assert.Equal(t, [3]float32{0, 0, 1}, s.TopColor())
	assert.Equal(t, [3]float32{1, 1, 1}, s.HorizonColor())
}

func float32at(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}
