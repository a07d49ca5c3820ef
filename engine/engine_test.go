package engine

import (
	"testing"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helio-engine/helio-go/engine/animation"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/scene"
	"github.com/helio-engine/helio-go/engine/spatial"
	"github.com/helio-engine/helio-go/engine/window"
)

// stubWindow drives the frame loop without a display: it closes itself
// after a fixed number of polls and can script events per poll.
type stubWindow struct {
	polls    int
	maxPolls int
	scripted map[int][]window.Event
	pending  []window.Event
	closed   bool
	width    int
	height   int
}

var _ window.Window = &stubWindow{}

func newStubWindow(maxPolls int) *stubWindow {
	return &stubWindow{
		maxPolls: maxPolls,
		scripted: make(map[int][]window.Event),
		width:    640,
		height:   480,
	}
}

func (w *stubWindow) Poll() {
	w.polls++
	w.pending = append(w.pending, w.scripted[w.polls]...)
	// Give each frame a measurable duration so time-based paths run.
	time.Sleep(time.Millisecond)
}

func (w *stubWindow) DrainEvents() []window.Event {
	evs := w.pending
	w.pending = nil
	return evs
}

func (w *stubWindow) ShouldClose() bool {
	return w.closed || w.polls >= w.maxPolls
}

func (w *stubWindow) RequestClose() { w.closed = true }

func (w *stubWindow) Size() (int, int) { return w.width, w.height }

func (w *stubWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }

func (w *stubWindow) Close() error { return nil }

func newTestEngine(t *testing.T, win *stubWindow, opts ...EngineBuilderOption) (Engine, *driver.Headless) {
	t.Helper()
	drv := driver.NewHeadless()
	opts = append([]EngineBuilderOption{WithWindow(win), WithDriver(drv)}, opts...)
	return NewEngine(opts...), drv
}

func TestEngineRunsUntilWindowCloses(t *testing.T) {
	e, drv := newTestEngine(t, newStubWindow(3))
	require.NoError(t, e.Run())
	assert.Len(t, drv.Frames(), 3)
}

func TestEngineStopExitsAfterCurrentFrame(t *testing.T) {
	e, drv := newTestEngine(t, newStubWindow(1000))
	e.AddInputHandler(func(ev window.Event) {
		if ev.Kind == window.EventKeyDown && ev.Key == window.KeyEscape {
			e.Stop()
		}
	})
	win := e.Window().(*stubWindow)
	win.scripted[1] = []window.Event{{Kind: window.EventKeyDown, Key: window.KeyEscape}}

	require.NoError(t, e.Run())
	assert.Len(t, drv.Frames(), 1)
}

func TestEngineResizeEventPropagates(t *testing.T) {
	win := newStubWindow(2)
	win.scripted[1] = []window.Event{{Kind: window.EventResize, Width: 800, Height: 600}}
	e, drv := newTestEngine(t, win)

	require.NoError(t, e.Run())
	w, h := drv.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.InDelta(t, 800.0/600.0, e.Camera().Aspect(), 1e-6)
}

func TestEngineFixedStepUpdates(t *testing.T) {
	const step = float32(1.0 / 2000.0)
	var dts []float32
	e, _ := newTestEngine(t, newStubWindow(5), WithFixedStep(step))
	e.AddUpdate(func(dt float32) {
		dts = append(dts, dt)
	})

	require.NoError(t, e.Run())
	// Each frame sleeps ~1ms, so the 0.5ms step must have fired.
	require.NotEmpty(t, dts)
	for _, dt := range dts {
		assert.Equal(t, step, dt)
	}
}

func TestEngineAdvancesAnimationPlayers(t *testing.T) {
	sc := scene.NewScene("anim")
	arm := spatial.NewGroup("arm")
	sc.Add(arm)

	clip := animation.NewClip("slide", animation.WithChannel(animation.Channel{
		Target: "arm",
		Path:   animation.PathTranslation,
		VectorKeys: []animation.VectorKey{
			{Time: 0, Value: [3]float32{0, 0, 0}},
			{Time: 100, Value: [3]float32{100, 0, 0}},
		},
	}), animation.WithLooping())

	e, _ := newTestEngine(t, newStubWindow(4), WithScene(sc))
	player := animation.NewPlayer(clip, sc.Root())
	e.AddPlayer(player)

	require.NoError(t, e.Run())
	assert.Positive(t, player.Time())
	assert.Positive(t, arm.Transform().Translation[0])
}

func TestEngineRemovePlayer(t *testing.T) {
	sc := scene.NewScene("anim")
	sc.Add(spatial.NewGroup("arm"))
	clip := animation.NewClip("slide", animation.WithChannel(animation.Channel{
		Target:     "arm",
		Path:       animation.PathTranslation,
		VectorKeys: []animation.VectorKey{{Time: 0}, {Time: 1, Value: [3]float32{1, 0, 0}}},
	}))

	e, _ := newTestEngine(t, newStubWindow(1), WithScene(sc))
	player := animation.NewPlayer(clip, sc.Root())
	e.AddPlayer(player)

	assert.True(t, e.RemovePlayer(player))
	assert.False(t, e.RemovePlayer(player))
}

func TestWithFixedStepPanicsOnNonPositive(t *testing.T) {
	assert.PanicsWithValue(t, "engine: WithFixedStep requires a positive step", func() {
		WithFixedStep(0)
	})
}
