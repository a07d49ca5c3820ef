// Package window provides the GLFW windowing and input boundary. All input
// and resize callbacks enqueue events; the application drains the queue at
// the frame boundary, so the scene is never mutated mid-traversal by a
// callback.
package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// EventKind discriminates queued window events.
type EventKind int

const (
	// EventKeyDown is a key press or repeat.
	EventKeyDown EventKind = iota
	// EventKeyUp is a key release.
	EventKeyUp
	// EventMouseDown is a mouse button press.
	EventMouseDown
	// EventMouseUp is a mouse button release.
	EventMouseUp
	// EventMouseMove is a cursor position change.
	EventMouseMove
	// EventScroll is a scroll wheel tick.
	EventScroll
	// EventResize is a framebuffer size change.
	EventResize
)

// MouseButton identifies a mouse button in mouse events.
type MouseButton int

const (
	// MouseButtonLeft is the primary button.
	MouseButtonLeft MouseButton = iota
	// MouseButtonRight is the secondary button.
	MouseButtonRight
	// MouseButtonMiddle is the wheel button.
	MouseButtonMiddle
)

// Event is one queued input or window event. Which fields are meaningful
// depends on Kind: Key for key events, Button and X/Y for mouse button
// events, X/Y for moves, Delta for scrolls, Width/Height for resizes.
type Event struct {
	// Kind is the event discriminator.
	Kind EventKind

	// Key is the virtual key code for key events.
	Key Key

	// Button is the mouse button for button events.
	Button MouseButton

	// X and Y are the cursor position in window coordinates.
	X, Y float32

	// Delta is the vertical scroll amount (positive scrolls up).
	Delta float32

	// Width and Height are the new framebuffer size in pixels.
	Width, Height int
}

// Window is a platform window plus its deferred input queue. Poll pumps the
// platform event loop, which appends to the queue; DrainEvents hands the
// accumulated events to the caller and clears the queue. All methods must be
// called from the main goroutine (a GLFW requirement).
type Window interface {
	// Poll pumps pending platform events into the queue without blocking.
	Poll()

	// DrainEvents returns the events queued since the last drain and
	// clears the queue. The returned slice is invalidated by the next
	// Poll.
	//
	// Returns:
	//   - []Event: the queued events in arrival order
	DrainEvents() []Event

	// ShouldClose reports whether the window was asked to close, either
	// by the user or through RequestClose.
	//
	// Returns:
	//   - bool: true when the window should close
	ShouldClose() bool

	// RequestClose flags the window for closing. The current frame still
	// runs to completion.
	RequestClose()

	// Size returns the current framebuffer size in pixels. On high-DPI
	// displays this differs from the window size and is what the render
	// surface must be configured with.
	//
	// Returns:
	//   - int: the width in pixels
	//   - int: the height in pixels
	Size() (int, int)

	// SurfaceDescriptor returns the platform-specific descriptor used to
	// create the WebGPU surface for this window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Close destroys the window and terminates the platform layer.
	//
	// Returns:
	//   - error: an error if the window was never created
	Close() error
}

type windowImpl struct {
	title  string
	width  int
	height int

	events []Event
	drain  []Event

	platform *glfwState
}

var _ Window = &windowImpl{}

// NewWindow creates and shows a GLFW window. Must be called from the main
// goroutine; the constructor locks the calling goroutine to its OS thread.
// Panics if the platform layer cannot be initialized, since no engine can
// run without its window.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - Window: the created window
func NewWindow(opts ...WindowBuilderOption) Window {
	w := &windowImpl{
		title:  "helio",
		width:  1280,
		height: 720,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: %v", err))
	}
	return w
}

func (w *windowImpl) Poll() {
	platformPoll()
}

func (w *windowImpl) DrainEvents() []Event {
	w.drain = append(w.drain[:0], w.events...)
	w.events = w.events[:0]
	return w.drain
}

func (w *windowImpl) ShouldClose() bool {
	return platformShouldClose(w)
}

func (w *windowImpl) RequestClose() {
	platformRequestClose(w)
}

func (w *windowImpl) Size() (int, int) {
	return w.width, w.height
}

func (w *windowImpl) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *windowImpl) Close() error {
	return platformClose(w)
}

// push appends an event to the deferred queue. Called only from platform
// callbacks, which GLFW runs on the polling thread.
func (w *windowImpl) push(ev Event) {
	w.events = append(w.events, ev)
}
