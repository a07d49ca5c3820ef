package window

// Key is a virtual key code. Values match GLFW key codes, which use ASCII
// values for printable keys.
type Key int

// Common key codes.
const (
	KeySpace     Key = 32
	Key0         Key = 48
	Key1         Key = 49
	Key2         Key = 50
	Key3         Key = 51
	Key4         Key = 52
	Key5         Key = 53
	Key6         Key = 54
	Key7         Key = 55
	Key8         Key = 56
	Key9         Key = 57
	KeyA         Key = 65
	KeyB         Key = 66
	KeyC         Key = 67
	KeyD         Key = 68
	KeyE         Key = 69
	KeyF         Key = 70
	KeyG         Key = 71
	KeyL         Key = 76
	KeyM         Key = 77
	KeyQ         Key = 81
	KeyS         Key = 83
	KeyT         Key = 84
	KeyV         Key = 86
	KeyW         Key = 87
	KeyX         Key = 88
	KeyEscape    Key = 256
	KeyEnter     Key = 257
	KeyTab       Key = 258
	KeyBackspace Key = 259
	KeyRight     Key = 262
	KeyLeft      Key = 263
	KeyDown      Key = 264
	KeyUp        Key = 265
	KeyLeftShift Key = 340
)
