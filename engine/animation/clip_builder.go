package animation

import "fmt"

// ClipBuilderOption is a functional option for configuring a Clip.
type ClipBuilderOption func(*clipImpl)

// NewClip creates an immutable animation clip. The duration defaults to the
// latest key time across all channels unless WithDuration overrides it.
// Panics if no channel was provided: an empty clip is a construction bug,
// not a runtime condition.
//
// Parameters:
//   - name: the clip name
//   - opts: builder options
//
// Returns:
//   - Clip: the constructed clip
func NewClip(name string, opts ...ClipBuilderOption) Clip {
	c := &clipImpl{name: name}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.channels) == 0 {
		panic(fmt.Sprintf("animation: clip %q has no channels", name))
	}
	if c.duration == 0 {
		for i := range c.channels {
			if end := channelEnd(&c.channels[i]); end > c.duration {
				c.duration = end
			}
		}
	}
	return c
}

// WithChannel adds a channel to the clip. Panics on malformed channels
// (empty target, no keys, keys on the wrong path, or non-ascending times).
//
// Parameters:
//   - ch: the channel to add
//
// Returns:
//   - ClipBuilderOption: the option function
func WithChannel(ch Channel) ClipBuilderOption {
	return func(c *clipImpl) {
		validateChannel(&ch)
		c.channels = append(c.channels, ch)
	}
}

// WithLooping makes the clip wrap around at its duration instead of
// clamping at the last key.
//
// Returns:
//   - ClipBuilderOption: the option function
func WithLooping() ClipBuilderOption {
	return func(c *clipImpl) {
		c.looping = true
	}
}

// WithDuration overrides the clip duration. Panics if d is not positive.
//
// Parameters:
//   - d: the duration in seconds
//
// Returns:
//   - ClipBuilderOption: the option function
func WithDuration(d float32) ClipBuilderOption {
	if d <= 0 {
		panic("animation: WithDuration requires a positive duration")
	}
	return func(c *clipImpl) {
		c.duration = d
	}
}

func channelEnd(ch *Channel) float32 {
	if ch.Path == PathRotation {
		return ch.QuaternionKeys[len(ch.QuaternionKeys)-1].Time
	}
	return ch.VectorKeys[len(ch.VectorKeys)-1].Time
}

func validateChannel(ch *Channel) {
	if ch.Target == "" {
		panic("animation: channel has no target node name")
	}
	switch ch.Path {
	case PathRotation:
		if len(ch.QuaternionKeys) == 0 {
			panic(fmt.Sprintf("animation: rotation channel for %q has no keys", ch.Target))
		}
		if len(ch.VectorKeys) != 0 {
			panic(fmt.Sprintf("animation: rotation channel for %q carries vector keys", ch.Target))
		}
		for i := 1; i < len(ch.QuaternionKeys); i++ {
			if ch.QuaternionKeys[i].Time < ch.QuaternionKeys[i-1].Time {
				panic(fmt.Sprintf("animation: channel for %q has non-ascending key times", ch.Target))
			}
		}
	case PathTranslation, PathScale:
		if len(ch.VectorKeys) == 0 {
			panic(fmt.Sprintf("animation: channel for %q has no keys", ch.Target))
		}
		if len(ch.QuaternionKeys) != 0 {
			panic(fmt.Sprintf("animation: vector channel for %q carries quaternion keys", ch.Target))
		}
		for i := 1; i < len(ch.VectorKeys); i++ {
			if ch.VectorKeys[i].Time < ch.VectorKeys[i-1].Time {
				panic(fmt.Sprintf("animation: channel for %q has non-ascending key times", ch.Target))
			}
		}
	default:
		panic(fmt.Sprintf("animation: channel for %q has unknown path %d", ch.Target, ch.Path))
	}
}
