package animation

import (
	"github.com/helio-engine/helio-go/engine/spatial"
)

// PlayerBuilderOption is a functional option for configuring a Player.
type PlayerBuilderOption func(*playerImpl)

// NewPlayer creates a player for the given clip, binding its channel
// targets to nodes found under root by name. Channels whose target name is
// not in the subtree are ignored. The player starts playing at time zero
// with unit speed. Panics on a nil clip or root.
//
// Parameters:
//   - clip: the clip to play
//   - root: the subtree whose nodes the clip animates
//   - opts: builder options
//
// Returns:
//   - Player: the constructed player
func NewPlayer(clip Clip, root spatial.Spatial, opts ...PlayerBuilderOption) Player {
	if clip == nil {
		panic("animation: NewPlayer requires a non-nil clip")
	}
	if root == nil {
		panic("animation: NewPlayer requires a non-nil root")
	}
	p := &playerImpl{
		clip:    clip,
		pose:    make(Pose),
		speed:   1,
		playing: true,
	}
	seen := make(map[string]struct{})
	for _, ch := range clip.Channels() {
		if _, ok := seen[ch.Target]; ok {
			continue
		}
		seen[ch.Target] = struct{}{}
		node := spatial.Find(root, ch.Target)
		if node == nil {
			continue
		}
		base := node.AsNode().Transform()
		p.bindings = append(p.bindings, binding{node: node, base: base, applied: base})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithSpeed sets the initial playback rate multiplier.
//
// Parameters:
//   - speed: the rate multiplier
//
// Returns:
//   - PlayerBuilderOption: the option function
func WithSpeed(speed float32) PlayerBuilderOption {
	return func(p *playerImpl) {
		p.speed = speed
	}
}

// WithPaused constructs the player paused at time zero.
//
// Returns:
//   - PlayerBuilderOption: the option function
func WithPaused() PlayerBuilderOption {
	return func(p *playerImpl) {
		p.playing = false
	}
}
