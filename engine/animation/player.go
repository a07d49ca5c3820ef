package animation

import (
	"github.com/chewxy/math32"

	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// Player advances one clip over time and applies the sampled pose to the
// scene graph. Channel targets are resolved against a subtree root by node
// name at construction; targets missing from the subtree are ignored.
//
// Poses flow through the nodes' SetTransform, so animated motion dirties
// and propagates exactly like direct transform edits. A node whose sampled
// transform did not change this step is left untouched, which keeps step
// interpolation from dirtying branches between keys.
type Player interface {
	// Clip returns the clip being played.
	//
	// Returns:
	//   - Clip: the clip
	Clip() Clip

	// Playing reports whether Advance currently moves time forward.
	//
	// Returns:
	//   - bool: true while playing
	Playing() bool

	// Play resumes playback. Playing a finished non-looping clip restarts
	// it from time zero.
	Play()

	// Pause suspends playback without losing the current time.
	Pause()

	// Time returns the current clip time in seconds.
	//
	// Returns:
	//   - float32: the current time
	Time() float32

	// SetTime jumps to the given clip time and applies the pose there.
	// The time is wrapped for looping clips and clamped otherwise.
	//
	// Parameters:
	//   - t: the target time in seconds
	SetTime(t float32)

	// Speed returns the playback rate multiplier.
	//
	// Returns:
	//   - float32: the speed
	Speed() float32

	// SetSpeed sets the playback rate multiplier. Negative speeds play
	// in reverse.
	//
	// Parameters:
	//   - speed: the rate multiplier
	SetSpeed(speed float32)

	// Advance steps the player by dt seconds of wall time (scaled by
	// speed) and applies the resulting pose. A non-looping clip pauses
	// itself when it reaches either end.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Advance(dt float32)
}

type binding struct {
	node    spatial.Spatial
	base    common.Transform
	applied common.Transform
}

type playerImpl struct {
	clip     Clip
	bindings []binding
	pose     Pose
	time     float32
	speed    float32
	playing  bool
}

var _ Player = &playerImpl{}

func (p *playerImpl) Clip() Clip     { return p.clip }
func (p *playerImpl) Playing() bool  { return p.playing }
func (p *playerImpl) Pause()         { p.playing = false }
func (p *playerImpl) Time() float32  { return p.time }
func (p *playerImpl) Speed() float32 { return p.speed }

func (p *playerImpl) Play() {
	if !p.clip.Looping() && p.time >= p.clip.Duration() && p.speed > 0 {
		p.time = 0
	}
	p.playing = true
}

func (p *playerImpl) SetSpeed(speed float32) { p.speed = speed }

func (p *playerImpl) SetTime(t float32) {
	p.time = p.normalize(t)
	p.apply()
}

func (p *playerImpl) Advance(dt float32) {
	if !p.playing || dt == 0 {
		return
	}
	t := p.time + dt*p.speed
	if !p.clip.Looping() && (t <= 0 || t >= p.clip.Duration()) {
		p.playing = false
	}
	p.time = p.normalize(t)
	p.apply()
}

// normalize wraps t into [0, duration) for looping clips and clamps it to
// [0, duration] otherwise.
func (p *playerImpl) normalize(t float32) float32 {
	d := p.clip.Duration()
	if p.clip.Looping() {
		t = math32.Mod(t, d)
		if t < 0 {
			t += d
		}
		return t
	}
	if t < 0 {
		return 0
	}
	if t > d {
		return d
	}
	return t
}

func (p *playerImpl) apply() {
	for i := range p.bindings {
		p.pose[p.bindings[i].node.AsNode().Name()] = p.bindings[i].base
	}
	p.clip.Sample(p.time, p.pose)
	for i := range p.bindings {
		b := &p.bindings[i]
		tr := p.pose[b.node.AsNode().Name()]
		if tr == b.applied {
			continue
		}
		b.node.AsNode().SetTransform(tr)
		b.applied = tr
	}
}
