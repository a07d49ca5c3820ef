package module

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/light"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/shape"
)

func TestIlluminationCollectsAndUploadsLights(t *testing.T) {
	sc := scene.NewScene("lit scene")
	sc.SetAmbient(0.1, 0.2, 0.3)
	sun := light.NewLight(light.LightTypeDirectional, light.WithDirection(0, -1, 0))
	sc.Add(light.NewNode("sun", sun))

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)
	rig.frame(t)

	p := m.Illumination()
	require.Equal(t, []light.Light{sun}, p.Lights())
	assert.Equal(t, 0, sun.Slot())
	assert.False(t, sun.Dirty(), "the clean pass ran")

	header := rig.drv.BufferData(p.headerBuf)
	require.Len(t, header, 16)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(header[12:16]))
}

func TestIlluminationSkipsUploadsForCleanLights(t *testing.T) {
	sc := scene.NewScene("static lights")
	lamp := light.NewLight(light.LightTypePoint, light.WithRange(100))
	sc.Add(light.NewNode("lamp", lamp))

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)

	rig.frame(t)
	p := m.Illumination()
	lightWrites := rig.drv.BufferWrites(p.lightBuf)
	headerWrites := rig.drv.BufferWrites(p.headerBuf)

	rig.frame(t)
	assert.Equal(t, lightWrites, rig.drv.BufferWrites(p.lightBuf))
	assert.Equal(t, headerWrites, rig.drv.BufferWrites(p.headerBuf))

	lamp.SetColor(1, 0, 0)
	rig.frame(t)
	assert.Equal(t, lightWrites+1, rig.drv.BufferWrites(p.lightBuf))
	assert.Equal(t, headerWrites, rig.drv.BufferWrites(p.headerBuf),
		"a light change does not rewrite the header")
}

func TestIlluminationRebuildsCacheOnSetChange(t *testing.T) {
	sc := scene.NewScene("changing lights")
	a := light.NewLight(light.LightTypePoint, light.WithRange(100))
	b := light.NewLight(light.LightTypePoint, light.WithRange(100))
	nodeA := light.NewNode("a", a)
	nodeB := light.NewNode("b", b)
	sc.Add(nodeA)
	sc.Add(nodeB)

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)
	rig.frame(t)

	p := m.Illumination()
	require.Len(t, p.Lights(), 2)
	require.Equal(t, 0, a.Slot())
	require.Equal(t, 1, b.Slot())

	// Removing the first light compacts the survivors back to slot zero.
	require.True(t, sc.Remove(nodeA))
	rig.frame(t)
	require.Equal(t, []light.Light{b}, p.Lights())
	assert.Equal(t, 0, b.Slot())

	header := rig.drv.BufferData(p.headerBuf)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(header[12:16]))
}

func TestIlluminationIgnoresDisabledLights(t *testing.T) {
	sc := scene.NewScene("disabled lights")
	lamp := light.NewLight(light.LightTypePoint, light.WithRange(100), light.WithEnabled(false))
	sc.Add(light.NewNode("lamp", lamp))
	sc.Add(shape.NewShape("tri", shape.WithGeometry(triangle("tri mesh"))))

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)
	rig.frame(t)

	assert.Empty(t, m.Illumination().Lights())
}
