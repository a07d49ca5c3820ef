package window

// WindowBuilderOption is a functional option for configuring a Window.
type WindowBuilderOption func(*windowImpl)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - WindowBuilderOption: the option function
func WithTitle(title string) WindowBuilderOption {
	return func(w *windowImpl) {
		w.title = title
	}
}

// WithSize sets the initial window size. Panics on non-positive dimensions.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: the option function
func WithSize(width, height int) WindowBuilderOption {
	if width <= 0 || height <= 0 {
		panic("window: WithSize requires positive dimensions")
	}
	return func(w *windowImpl) {
		w.width = width
		w.height = height
	}
}
