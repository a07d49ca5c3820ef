package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/sky"
	"github.com/helio-engine/helio-go/engine/spatial"
)

func TestNewSceneDefaults(t *testing.T) {
	s := NewScene("level 1")

	assert.Equal(t, "level 1", s.Name())
	require.NotNil(t, s.Root())
	assert.Equal(t, "level 1", s.Root().Name())
	assert.Empty(t, s.Root().Children())
	assert.Nil(t, s.Sky())
	assert.Equal(t, [3]float32{0.03, 0.03, 0.03}, s.Ambient())
}

func TestSceneBuilderOptions(t *testing.T) {
	sk := sky.NewSky("dome")
	s := NewScene("outdoors", WithAmbient(0.1, 0.2, 0.3), WithSky(sk))

	assert.Equal(t, [3]float32{0.1, 0.2, 0.3}, s.Ambient())
	assert.Same(t, sk, s.Sky())
}

func TestSceneAddRemoveFind(t *testing.T) {
	s := NewScene("world")
	region := spatial.NewGroup("region")
	inner := spatial.NewGroup("inner")
	region.AddChild(inner)
	s.Add(region)

	assert.Len(t, s.Root().Children(), 1)
	assert.Same(t, spatial.Spatial(region), s.Find("region"))
	assert.Same(t, spatial.Spatial(inner), s.Find("inner"))
	assert.Nil(t, s.Find("missing"))

	// Remove only detaches direct children of the root.
	assert.False(t, s.Remove(inner))
	assert.True(t, s.Remove(region))
	assert.Empty(t, s.Root().Children())
}

func TestSceneSkyIsNotAGraphNode(t *testing.T) {
	s := NewScene("world")
	s.SetSky(sky.NewSky("dome"))

	assert.NotNil(t, s.Sky())
	assert.Empty(t, s.Root().Children(), "the sky must not be attached to the hierarchy")

	s.SetSky(nil)
	assert.Nil(t, s.Sky())
}
