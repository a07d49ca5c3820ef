package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/camera"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/shape"
	"github.com/helio-engine/helio-go/engine/texture"
)

func TestShapeModuleDrawsVisibleShapes(t *testing.T) {
	sc := scene.NewScene("draw scene")
	near := shape.NewShape("near", shape.WithGeometry(triangle("near mesh")))
	far := shape.NewShape("far", shape.WithGeometry(triangle("far mesh")))
	placeAt(far, 0, 0, -5000)
	sc.Add(near)
	sc.Add(far)

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)
	rig.frame(t)

	draws := rig.lastFrame(t)
	require.Len(t, draws, 1, "the off-frustum shape is culled")
	assert.Equal(t, uint32(3), draws[0].IndexCount)
	assert.Equal(t, uint32(near.Slot()), draws[0].FirstInstance,
		"the draw addresses the shape's model cache slot")
	assert.Equal(t, []*shape.Shape{near}, m.Visible())

	desc, ok := rig.drv.PipelineDesc(draws[0].Pipeline)
	require.True(t, ok)
	assert.Equal(t, driver.CullBack, desc.CullMode)
	assert.True(t, desc.DepthWrite)
}

func TestShapeModuleSelectsLODByDistance(t *testing.T) {
	high := triangle("high detail")
	low := triangle("low detail")
	s := shape.NewShape("lod shape",
		shape.WithLOD(high, 50),
		shape.WithLOD(low, 0),
	)
	sc := scene.NewScene("lod scene")
	sc.Add(s)

	cam := camera.NewCamera(camera.WithPosition(0, 0, 10), camera.WithClipPlanes(0.1, 500))
	rig := newTestRig(t, sc, cam, NewShapeModule())

	rig.frame(t)
	require.Len(t, rig.lastFrame(t), 1)
	assert.Equal(t, high.VertexBuffer(), rig.lastFrame(t)[0].Vertex)

	cam.SetPosition(0, 0, 200)
	rig.frame(t)
	require.Len(t, rig.lastFrame(t), 1)
	assert.Equal(t, low.VertexBuffer(), rig.lastFrame(t)[0].Vertex)
}

func TestShapeModuleDoubleSidedMaterialSwitchesPipeline(t *testing.T) {
	mat := material.NewMaterial(
		material.WithName("foliage"),
		material.WithDoubleSided(true),
	)
	sc := scene.NewScene("pipeline scene")
	sc.Add(shape.NewShape("leaf", shape.WithGeometry(triangle("leaf mesh")), shape.WithMaterial(mat)))

	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), NewShapeModule())
	rig.frame(t)

	draws := rig.lastFrame(t)
	require.Len(t, draws, 1)
	desc, ok := rig.drv.PipelineDesc(draws[0].Pipeline)
	require.True(t, ok)
	assert.Equal(t, driver.CullNone, desc.CullMode)
}

func TestShapeModuleBindsPerMaterialTexture(t *testing.T) {
	textured := material.NewMaterial(
		material.WithName("textured"),
		material.WithTexture(texture.White()),
	)
	plain := material.NewMaterial(material.WithName("plain"))

	sc := scene.NewScene("texture scene")
	a := shape.NewShape("a", shape.WithGeometry(triangle("a mesh")), shape.WithMaterial(textured))
	b := shape.NewShape("b", shape.WithGeometry(triangle("b mesh")), shape.WithMaterial(plain))
	sc.Add(a)
	sc.Add(b)

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)
	rig.frame(t)

	draws := rig.lastFrame(t)
	require.Len(t, draws, 2)
	groupOf := map[string]driver.BindGroupHandle{}
	for _, d := range draws {
		require.Greater(t, len(d.BindGroups), m.materialGroup)
		switch d.FirstInstance {
		case uint32(a.Slot()):
			groupOf["a"] = d.BindGroups[m.materialGroup]
		case uint32(b.Slot()):
			groupOf["b"] = d.BindGroups[m.materialGroup]
		}
	}
	assert.Equal(t, rig.ctx.SharedGroup(m.materialGroup), groupOf["b"],
		"untextured materials share the default white group")
	assert.NotEqual(t, groupOf["b"], groupOf["a"],
		"textured materials get their own bind group")
}

func TestShapeModuleReuploadsOnlyDirtyModels(t *testing.T) {
	sc := scene.NewScene("dirty scene")
	s := shape.NewShape("mover", shape.WithGeometry(triangle("mover mesh")))
	sc.Add(s)

	m := NewShapeModule()
	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), m)

	rig.frame(t)
	writes := rig.drv.BufferWrites(m.modelBuf)
	require.Positive(t, writes)

	// A static frame uploads nothing.
	rig.frame(t)
	assert.Equal(t, writes, rig.drv.BufferWrites(m.modelBuf))

	placeAt(s, 1, 0, 0)
	rig.frame(t)
	assert.Equal(t, writes+1, rig.drv.BufferWrites(m.modelBuf))
}

func TestShapeModuleNeverPrunesDirtyBranches(t *testing.T) {
	sc := scene.NewScene("stale scene")
	s := shape.NewShape("wanderer", shape.WithGeometry(triangle("wanderer mesh")))
	placeAt(s, 0, 0, -5000)
	sc.Add(s)

	rig := newTestRig(t, sc, camera.NewCamera(camera.WithPosition(0, 0, 10)), NewShapeModule())
	rig.frame(t)
	require.Empty(t, rig.lastFrame(t), "the shape starts off-frustum")

	// Moving the shape dirties its branch; the stale branch bounds must not
	// keep it pruned on the frame that would refresh them.
	placeAt(s, 0, 0, 0)
	rig.frame(t)
	assert.Len(t, rig.lastFrame(t), 1)
}
