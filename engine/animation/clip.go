// Package animation implements CPU keyframe animation: clips of named
// node channels sampled into transform poses, and players that advance
// clips over time and push the sampled poses into the scene graph.
package animation

import (
	"sort"

	"github.com/helio-engine/helio-go/common"
)

// Path identifies which transform component a channel animates.
type Path int

const (
	// PathTranslation animates the node's local translation.
	PathTranslation Path = iota
	// PathRotation animates the node's local rotation quaternion.
	PathRotation
	// PathScale animates the node's local scale.
	PathScale
)

// Interpolation selects how values between keyframes are produced.
type Interpolation int

const (
	// InterpolationLinear blends between surrounding keys (slerp for
	// rotation channels, component lerp otherwise).
	InterpolationLinear Interpolation = iota
	// InterpolationStep holds each key's value until the next key's time.
	InterpolationStep
)

// VectorKey is a timestamped 3-component keyframe.
type VectorKey struct {
	// Time in seconds from the start of the clip.
	Time float32

	// Value at this key.
	Value [3]float32
}

// QuaternionKey is a timestamped rotation keyframe (x, y, z, w).
type QuaternionKey struct {
	// Time in seconds from the start of the clip.
	Time float32

	// Value as a unit quaternion.
	Value [4]float32
}

// Channel animates one transform component of one named node. Rotation
// channels carry QuaternionKeys; translation and scale channels carry
// VectorKeys. Key times are ascending.
type Channel struct {
	// Target is the name of the spatial node this channel drives.
	Target string

	// Path is the transform component being animated.
	Path Path

	// Interpolation selects step or linear sampling.
	Interpolation Interpolation

	// VectorKeys hold translation or scale keyframes.
	VectorKeys []VectorKey

	// QuaternionKeys hold rotation keyframes.
	QuaternionKeys []QuaternionKey
}

// Pose maps node names to sampled local transforms.
type Pose map[string]common.Transform

// Clip is a named set of animation channels with a fixed duration. Clips
// are immutable after construction and hold no scene references; binding
// channel targets to nodes is the Player's job.
type Clip interface {
	// Name returns the clip's name.
	//
	// Returns:
	//   - string: the clip name
	Name() string

	// Duration returns the clip length in seconds.
	//
	// Returns:
	//   - float32: the duration
	Duration() float32

	// Looping reports whether sampling past the end wraps around instead
	// of clamping.
	//
	// Returns:
	//   - bool: true when the clip loops
	Looping() bool

	// Channels returns the clip's channels. The returned slice is owned
	// by the clip and must not be mutated.
	//
	// Returns:
	//   - []Channel: the channels
	Channels() []Channel

	// Sample evaluates every channel at time t and writes the results
	// into dst. Only animated components are written: an entry already in
	// dst keeps its other components, and a missing entry starts from the
	// identity transform. Times outside the clip clamp to the ends.
	//
	// Parameters:
	//   - t: the sample time in seconds
	//   - dst: the pose receiving the sampled components
	Sample(t float32, dst Pose)
}

type clipImpl struct {
	name     string
	duration float32
	looping  bool
	channels []Channel
}

var _ Clip = &clipImpl{}

func (c *clipImpl) Name() string        { return c.name }
func (c *clipImpl) Duration() float32   { return c.duration }
func (c *clipImpl) Looping() bool       { return c.looping }
func (c *clipImpl) Channels() []Channel { return c.channels }

func (c *clipImpl) Sample(t float32, dst Pose) {
	if t < 0 {
		t = 0
	}
	if t > c.duration {
		t = c.duration
	}
	for i := range c.channels {
		ch := &c.channels[i]
		tr, ok := dst[ch.Target]
		if !ok {
			tr = common.IdentityTransform()
		}
		switch ch.Path {
		case PathTranslation:
			tr.Translation = sampleVector(ch.VectorKeys, t, ch.Interpolation)
		case PathRotation:
			tr.Rotation = sampleQuaternion(ch.QuaternionKeys, t, ch.Interpolation)
		case PathScale:
			tr.Scale = sampleVector(ch.VectorKeys, t, ch.Interpolation)
		}
		dst[ch.Target] = tr
	}
}

// sampleVector evaluates a vector key list at time t with end clamping.
func sampleVector(keys []VectorKey, t float32, interp Interpolation) [3]float32 {
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}
	hi := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	lo := hi - 1
	if interp == InterpolationStep {
		return keys[lo].Value
	}
	span := keys[hi].Time - keys[lo].Time
	if span <= 0 {
		return keys[lo].Value
	}
	u := (t - keys[lo].Time) / span
	a, b := keys[lo].Value, keys[hi].Value
	return [3]float32{
		a[0] + (b[0]-a[0])*u,
		a[1] + (b[1]-a[1])*u,
		a[2] + (b[2]-a[2])*u,
	}
}

// sampleQuaternion evaluates a rotation key list at time t with end clamping.
func sampleQuaternion(keys []QuaternionKey, t float32, interp Interpolation) [4]float32 {
	if t <= keys[0].Time {
		return keys[0].Value
	}
	last := len(keys) - 1
	if t >= keys[last].Time {
		return keys[last].Value
	}
	hi := sort.Search(len(keys), func(i int) bool { return keys[i].Time > t })
	lo := hi - 1
	if interp == InterpolationStep {
		return keys[lo].Value
	}
	span := keys[hi].Time - keys[lo].Time
	if span <= 0 {
		return keys[lo].Value
	}
	u := (t - keys[lo].Time) / span
	return common.QuatSlerp(keys[lo].Value, keys[hi].Value, u)
}
