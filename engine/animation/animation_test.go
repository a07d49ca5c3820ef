package animation

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/spatial"
)

func slideChannel() Channel {
	return Channel{
		Target: "arm",
		Path:   PathTranslation,
		VectorKeys: []VectorKey{
			{Time: 0, Value: [3]float32{0, 0, 0}},
			{Time: 2, Value: [3]float32{2, 0, 0}},
		},
	}
}

func TestClipSampleLinearInterpolation(t *testing.T) {
	clip := NewClip("slide", WithChannel(slideChannel()))

	pose := make(Pose)
	clip.Sample(1, pose)
	assert.Equal(t, [3]float32{1, 0, 0}, pose["arm"].Translation)

	// Missing pose entries start from the identity transform.
	assert.Equal(t, [3]float32{1, 1, 1}, pose["arm"].Scale)

	clip.Sample(-5, pose)
	assert.Equal(t, [3]float32{0, 0, 0}, pose["arm"].Translation)
	clip.Sample(99, pose)
	assert.Equal(t, [3]float32{2, 0, 0}, pose["arm"].Translation)
}

func TestClipSampleStepHoldsValue(t *testing.T) {
	ch := slideChannel()
	ch.Interpolation = InterpolationStep
	clip := NewClip("slide", WithChannel(ch))

	pose := make(Pose)
	clip.Sample(1.9, pose)
	assert.Equal(t, [3]float32{0, 0, 0}, pose["arm"].Translation)
	clip.Sample(2, pose)
	assert.Equal(t, [3]float32{2, 0, 0}, pose["arm"].Translation)
}

func TestClipSampleSlerpRotation(t *testing.T) {
	quarter := common.QuatFromAxisAngle([3]float32{0, 1, 0}, math32.Pi/2)
	clip := NewClip("turn", WithChannel(Channel{
		Target: "arm",
		Path:   PathRotation,
		QuaternionKeys: []QuaternionKey{
			{Time: 0, Value: common.QuatIdentity()},
			{Time: 1, Value: quarter},
		},
	}))

	pose := make(Pose)
	clip.Sample(0.5, pose)
	eighth := common.QuatFromAxisAngle([3]float32{0, 1, 0}, math32.Pi/4)
	got := pose["arm"].Rotation
	for i := range got {
		assert.InDelta(t, eighth[i], got[i], 1e-5)
	}
}

func TestClipDuration(t *testing.T) {
	clip := NewClip("slide", WithChannel(slideChannel()))
	assert.Equal(t, float32(2), clip.Duration())
	assert.False(t, clip.Looping())

	looped := NewClip("slide", WithChannel(slideChannel()), WithLooping(), WithDuration(3))
	assert.Equal(t, float32(3), looped.Duration())
	assert.True(t, looped.Looping())
}

func TestNewClipPanicsOnMalformedChannels(t *testing.T) {
	assert.PanicsWithValue(t, `animation: clip "empty" has no channels`, func() {
		NewClip("empty")
	})

	assert.Panics(t, func() {
		NewClip("bad", WithChannel(Channel{
			Target: "arm",
			Path:   PathTranslation,
			VectorKeys: []VectorKey{
				{Time: 1, Value: [3]float32{1, 0, 0}},
				{Time: 0, Value: [3]float32{0, 0, 0}},
			},
		}))
	})

	assert.Panics(t, func() {
		NewClip("bad", WithChannel(Channel{
			Target:     "arm",
			Path:       PathRotation,
			VectorKeys: []VectorKey{{Time: 0}},
		}))
	})
}

func testTree() (*spatial.Group, *spatial.Group) {
	root := spatial.NewGroup("root")
	arm := spatial.NewGroup("arm")
	root.AddChild(arm)
	return root, arm
}

func TestPlayerAppliesPoseThroughSetTransform(t *testing.T) {
	root, arm := testTree()
	base := common.IdentityTransform()
	base.Scale = [3]float32{2, 2, 2}
	arm.SetTransform(base)
	arm.Clean()

	player := NewPlayer(NewClip("slide", WithChannel(slideChannel())), root)
	player.Advance(1)

	assert.Equal(t, [3]float32{1, 0, 0}, arm.Transform().Translation)
	// Unanimated components keep the node's bind-time values.
	assert.Equal(t, [3]float32{2, 2, 2}, arm.Transform().Scale)
	assert.True(t, arm.TransformDirty())
}

func TestPlayerClampsAndPausesAtEnd(t *testing.T) {
	root, arm := testTree()
	player := NewPlayer(NewClip("slide", WithChannel(slideChannel())), root)

	player.Advance(10)
	assert.Equal(t, float32(2), player.Time())
	assert.False(t, player.Playing())
	assert.Equal(t, [3]float32{2, 0, 0}, arm.Transform().Translation)

	// Play restarts a finished non-looping clip.
	player.Play()
	assert.Equal(t, float32(0), player.Time())
	assert.True(t, player.Playing())
}

func TestPlayerLoopsAroundDuration(t *testing.T) {
	root, arm := testTree()
	clip := NewClip("slide", WithChannel(slideChannel()), WithLooping())
	player := NewPlayer(clip, root)

	player.Advance(2.5)
	assert.InDelta(t, 0.5, player.Time(), 1e-6)
	assert.True(t, player.Playing())
	assert.Equal(t, [3]float32{0.5, 0, 0}, arm.Transform().Translation)
}

func TestPlayerStepHoldSkipsRedundantWrites(t *testing.T) {
	root, arm := testTree()
	ch := slideChannel()
	ch.Interpolation = InterpolationStep
	player := NewPlayer(NewClip("slide", WithChannel(ch)), root)

	player.Advance(0.5)
	require.True(t, arm.TransformDirty())
	arm.Clean()

	// Still inside the first key's hold: the pose did not change, so the
	// node must not be re-dirtied.
	player.Advance(0.5)
	assert.False(t, arm.TransformDirty())
}

func TestPlayerSpeedAndPause(t *testing.T) {
	root, _ := testTree()
	player := NewPlayer(NewClip("slide", WithChannel(slideChannel())), root, WithSpeed(2))

	player.Advance(0.5)
	assert.Equal(t, float32(1), player.Time())

	player.Pause()
	player.Advance(1)
	assert.Equal(t, float32(1), player.Time())
}

func TestPlayerIgnoresMissingTargets(t *testing.T) {
	root, _ := testTree()
	ch := slideChannel()
	ch.Target = "ghost"
	player := NewPlayer(NewClip("slide", WithChannel(ch)), root)

	assert.NotPanics(t, func() { player.Advance(1) })
}

func TestNewPlayerPanicsOnNilInputs(t *testing.T) {
	root, _ := testTree()
	clip := NewClip("slide", WithChannel(slideChannel()))

	assert.PanicsWithValue(t, "animation: NewPlayer requires a non-nil clip", func() {
		NewPlayer(nil, root)
	})
	assert.PanicsWithValue(t, "animation: NewPlayer requires a non-nil root", func() {
		NewPlayer(clip, nil)
	})
}
