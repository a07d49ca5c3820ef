package module

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/sky"
	"github.com/helio-engine/helio-go/engine/texture"
)

func TestSkyModuleDrawsBackdropLast(t *testing.T) {
	sc := scene.NewScene("sky scene")
	sc.Add(shape.NewShape("tri", shape.WithGeometry(triangle("tri mesh"))))
	sk := sky.NewSky("dusk")
	sc.SetSky(sk)

	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)),
		NewShapeModule(), NewSkyModule())
	rig.frame(t)

	draws := rig.lastFrame(t)
	require.Len(t, draws, 2)
	backdrop := draws[len(draws)-1]
	assert.Equal(t, uint32(36), backdrop.IndexCount, "the default sky cube has 12 triangles")

	desc, ok := rig.drv.PipelineDesc(backdrop.Pipeline)
	require.True(t, ok)
	assert.Equal(t, "vs_sky", desc.VertexEntry)
	assert.Equal(t, "fs_sky", desc.FragmentEntry)
	assert.True(t, desc.DepthLessEqual, "the backdrop covers pixels the clear left at depth 1")
	assert.False(t, desc.DepthWrite)
}

func TestSkyModuleSkipsScenesWithoutSky(t *testing.T) {
	sc := scene.NewScene("bare scene")
	sc.Add(shape.NewShape("tri", shape.WithGeometry(triangle("tri mesh"))))

	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)),
		NewShapeModule(), NewSkyModule())
	rig.frame(t)

	assert.Len(t, rig.lastFrame(t), 1, "only the shape draws")
}

func TestSkyModuleRewritesParamsOnlyWhenDirty(t *testing.T) {
	sc := scene.NewScene("gradient scene")
	sk := sky.NewSky("gradient")
	sc.SetSky(sk)

	m := NewSkyModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)),
		NewShapeModule(), m)

	rig.frame(t)
	writes := rig.drv.BufferWrites(m.paramsBuf)
	require.Positive(t, writes)

	rig.frame(t)
	assert.Equal(t, writes, rig.drv.BufferWrites(m.paramsBuf))

	sk.SetTopColor(1, 0, 0)
	rig.frame(t)
	assert.Equal(t, writes+1, rig.drv.BufferWrites(m.paramsBuf))

	data := rig.drv.BufferData(m.paramsBuf)
	require.Len(t, data, 48)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[32:36]), "gradient skies sample no texture")
}

func TestSkyModuleUsesPanoramaTexture(t *testing.T) {
	sc := scene.NewScene("panorama scene")
	sk := sky.NewSky("panorama",
		sky.WithMaterial(material.NewMaterial(
			material.WithName("panorama material"),
			material.WithTexture(texture.White()),
		)),
	)
	sc.SetSky(sk)

	m := NewSkyModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)),
		NewShapeModule(), m)
	rig.frame(t)

	data := rig.drv.BufferData(m.paramsBuf)
	require.Len(t, data, 48)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[32:36]))
	assert.Nil(t, m.fallback, "the panorama replaces the fallback texture")
}
