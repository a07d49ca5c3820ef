package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/renderer/shadercache"
)

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)

	assert.Equal(t, LightTypePoint, l.Type())
	assert.Equal(t, [3]float32{1, 1, 1}, l.Color())
	assert.InDelta(t, 1.0, l.Intensity(), 1e-6)
	assert.InDelta(t, 10.0, l.Range(), 1e-6)
	assert.True(t, l.Enabled())
	assert.False(t, l.CastsShadows())

	assert.Equal(t, shadercache.UnassignedSlot, l.Slot())
	assert.True(t, l.Dirty(), "a new light has never been uploaded")
}

func TestSettersMarkDirty(t *testing.T) {
	l := NewLight(LightTypeSpot)

	cases := []struct {
		name string
		call func()
	}{
		{"SetPosition", func() { l.SetPosition(1, 2, 3) }},
		{"SetDirection", func() { l.SetDirection(1, 0, 0) }},
		{"SetColor", func() { l.SetColor(1, 0, 0) }},
		{"SetIntensity", func() { l.SetIntensity(2) }},
		{"SetRange", func() { l.SetRange(50) }},
		{"SetSpotCone", func() { l.SetSpotCone(20, 30) }},
		{"SetCastsShadows", func() { l.SetCastsShadows(true) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l.Clean()
			tc.call()
			assert.True(t, l.Dirty())
		})
	}

	// Enabled gates collection only; it is not part of the GPU block.
	l.Clean()
	l.SetEnabled(false)
	assert.False(t, l.Dirty())
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(0, -2, 0)
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())

	l.SetDirection(0, 0, 0)
	assert.Equal(t, [3]float32{0, 0, 0}, l.Direction())
}

func TestSpotConeStoredAsCosine(t *testing.T) {
	l := NewLight(LightTypeSpot, WithSpotCone(25, 35))
	assert.InDelta(t, math.Cos(25*math.Pi/180), float64(l.InnerCone()), 1e-4)
	assert.InDelta(t, math.Cos(35*math.Pi/180), float64(l.OuterCone()), 1e-4)
}

func TestLightMarshalLayout(t *testing.T) {
	l := NewLight(LightTypeSpot,
		WithPosition(1, 2, 3),
		WithIntensity(2.5),
		WithCastsShadows(true),
	)

	// Without a shadow slot the shader sees zero (no shadow lookup).
	data := l.Marshal()
	require.Len(t, data, 64)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[56:60]))

	gpu := ToGPULight(l)
	assert.Equal(t, 64, gpu.Size())

	l.SetShadowSlot(2)
	data = l.Marshal()

	assert.Equal(t, math.Float32bits(1), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(LightTypeSpot), binary.LittleEndian.Uint32(data[12:16]))
	assert.Equal(t, math.Float32bits(2.5), binary.LittleEndian.Uint32(data[28:32]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[56:60]), "casts_shadows carries shadow slot + 1")
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[60:64]))
}

func TestLightHeaderMarshal(t *testing.T) {
	h := GPULightHeader{AmbientColor: [3]float32{0.1, 0.2, 0.3}, LightCount: 7}

	data := h.Marshal()
	require.Len(t, data, 16)
	assert.Equal(t, 16, h.Size())
	assert.Equal(t, math.Float32bits(0.1), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(data[12:16]))
}

func TestNewShadowDefaults(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithCastsShadows(true))
	s := NewShadow(l)

	assert.Same(t, l, s.Light())
	assert.Equal(t, 0, s.Layer())
	assert.Equal(t, ShadowMapResolution, s.Resolution())
	assert.Equal(t, shadercache.UnassignedSlot, s.Slot())
	assert.True(t, s.Dirty())

	u := s.Uniform()
	assert.Equal(t, s.LightVP(), u.LightVP)
}

func TestNewShadowNilLightPanics(t *testing.T) {
	assert.PanicsWithValue(t, "light: NewShadow requires a non-nil light", func() {
		NewShadow(nil)
	})
}

func TestDirectionalShadowTracksCenter(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(0, -1, 0), WithCastsShadows(true))
	s := NewShadow(l)

	// The frustum centered at the origin sees the origin.
	ndc, ok := common.TransformPoint(sliceVP(s), [3]float32{0, 0, 0})
	require.True(t, ok)
	assert.LessOrEqual(t, float64(absF32(ndc[0])), 1.0)
	assert.LessOrEqual(t, float64(absF32(ndc[1])), 1.0)
	assert.Greater(t, ndc[2], float32(0))
	assert.Less(t, ndc[2], float32(1))

	// Re-running with the same center leaves the matrix, and the flag, alone.
	s.Clean()
	s.Update([3]float32{0, 0, 0})
	assert.False(t, s.Dirty())

	// Moving the center recomputes and re-dirties.
	before := s.LightVP()
	s.Update([3]float32{25, 0, 0})
	assert.NotEqual(t, before, s.LightVP())
	assert.True(t, s.Dirty())
}

func TestSpotShadowFrustumCoversCone(t *testing.T) {
	l := NewLight(LightTypeSpot,
		WithPosition(0, 0, 0),
		WithDirection(0, 0, -1),
		WithRange(10),
		WithSpotCone(30, 45),
		WithCastsShadows(true),
	)
	s := NewShadow(l)
	vp := sliceVP(s)

	// The light's range is the far plane.
	farPoint, ok := common.TransformPoint(vp, [3]float32{0, 0, -10})
	require.True(t, ok)
	assert.InDelta(t, 1.0, farPoint[2], 1e-3)

	// A ray 45 degrees off axis lands on the frustum edge (fov spans the outer cone).
	edge, ok := common.TransformPoint(vp, [3]float32{5, 0, -5})
	require.True(t, ok)
	assert.InDelta(t, 1.0, edge[0], 1e-3)

	mid, ok := common.TransformPoint(vp, [3]float32{0, 0, -5})
	require.True(t, ok)
	assert.Greater(t, mid[2], float32(0))
	assert.Less(t, mid[2], float32(1))
}

func TestShadowMarshalLayout(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithCastsShadows(true))
	s := NewShadow(l, WithMapResolution(1024))
	s.SetLayer(3)

	data := s.Marshal()
	require.Len(t, data, 96)

	vp := s.LightVP()
	assert.Equal(t, math.Float32bits(vp[0]), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, math.Float32bits(1.0/1024.0), binary.LittleEndian.Uint32(data[64:68]))
	assert.Equal(t, math.Float32bits(DefaultShadowBias), binary.LittleEndian.Uint32(data[72:76]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(data[80:84]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[92:96]))
}

func TestShadowSlotAndClean(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithCastsShadows(true))
	s := NewShadow(l)

	s.SetSlot(4)
	assert.Equal(t, 4, s.Slot())

	s.Clean()
	assert.False(t, s.Dirty())

	s.SetLayer(1)
	assert.True(t, s.Dirty())
}

func TestNodeSyncDrivesLightFromTransform(t *testing.T) {
	l := NewLight(LightTypeSpot, WithDirection(0, 0, -1))
	n := NewNode("key", l)

	tr := common.IdentityTransform()
	tr.Translation = [3]float32{3, 4, 5}
	tr.Rotation = common.QuatFromAxisAngle([3]float32{0, 1, 0}, math.Pi/2)
	n.SetTransform(tr)
	n.UpdateWorldTransform()

	l.Clean()
	n.Sync()

	assert.Equal(t, [3]float32{3, 4, 5}, l.Position())
	dir := l.Direction()
	assert.InDelta(t, -1, dir[0], 1e-5)
	assert.InDelta(t, 0, dir[1], 1e-5)
	assert.InDelta(t, 0, dir[2], 1e-5)
	assert.True(t, l.Dirty())
}

func TestNodeSyncIsQuietWhenStatic(t *testing.T) {
	l := NewLight(LightTypePoint, WithPosition(1, 1, 1))
	n := NewNode("lantern", l)
	n.UpdateWorldTransform()

	n.Sync() // first sync pulls the light to the node's transform
	l.Clean()

	n.Sync()
	assert.False(t, l.Dirty(), "an unmoved node must not dirty its light")
}

func TestNodeBoundsFollowLightRange(t *testing.T) {
	l := NewLight(LightTypePoint, WithRange(10))
	n := NewNode("lantern", l)
	assert.Equal(t, [3]float32{10, 10, 10}, n.Bounds().Extent)

	l.SetRange(20)
	n.UpdateWorldTransform()
	n.Sync()
	assert.Equal(t, [3]float32{20, 20, 20}, n.Bounds().Extent)

	sun := NewNode("sun", NewLight(LightTypeDirectional))
	assert.True(t, sun.Bounds().IsInfinite())
}

func TestNewNodeNilLightPanics(t *testing.T) {
	assert.PanicsWithValue(t, "light: NewNode requires a non-nil light", func() {
		NewNode("broken", nil)
	})
}

// sliceVP copies a shadow's view-projection matrix into a slice for the
// common matrix helpers.
func sliceVP(s Shadow) []float32 {
	vp := s.LightVP()
	return vp[:]
}
