package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwState holds the GLFW-specific window handle.
type glfwState struct {
	window *glfw.Window
}

// newPlatformWindow initializes GLFW, creates the window, and registers the
// input callbacks. Every callback only enqueues an Event; nothing downstream
// of the queue runs inside a callback.
func newPlatformWindow(w *windowImpl) error {
	// GLFW event processing must stay on one OS thread.
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// WebGPU owns the graphics API, so no OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	w.platform = &glfwState{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press, glfw.Repeat:
			w.push(Event{Kind: EventKeyDown, Key: Key(key)})
		case glfw.Release:
			w.push(Event{Kind: EventKeyUp, Key: Key(key)})
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		var b MouseButton
		switch button {
		case glfw.MouseButtonLeft:
			b = MouseButtonLeft
		case glfw.MouseButtonRight:
			b = MouseButtonRight
		case glfw.MouseButtonMiddle:
			b = MouseButtonMiddle
		default:
			return
		}
		x, y := win.GetCursorPos()
		kind := EventMouseDown
		if action == glfw.Release {
			kind = EventMouseUp
		}
		w.push(Event{Kind: kind, Button: b, X: float32(x), Y: float32(y)})
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.push(Event{Kind: EventMouseMove, X: float32(x), Y: float32(y)})
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		w.push(Event{Kind: EventScroll, Delta: float32(yoff)})
	})

	// Framebuffer size, not window size: high-DPI displays scale the two
	// differently and the render surface needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		w.push(Event{Kind: EventResize, Width: width, Height: height})
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

func platformPoll() {
	glfw.PollEvents()
}

func platformShouldClose(w *windowImpl) bool {
	if w.platform == nil {
		return true
	}
	return w.platform.window.ShouldClose()
}

func platformRequestClose(w *windowImpl) {
	if w.platform != nil {
		w.platform.window.SetShouldClose(true)
	}
}

func platformSurfaceDescriptor(w *windowImpl) *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.platform.window)
}

func platformClose(w *windowImpl) error {
	if w.platform == nil {
		return fmt.Errorf("window is not initialized")
	}
	w.platform.window.SetShouldClose(true)
	w.platform.window.Destroy()
	glfw.Terminate()
	w.platform = nil
	return nil
}
