package game

import (
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/lallassu/citydrive/internal/controls"
	"github.com/lallassu/citydrive/internal/rig"
)

// Input turns glfw callbacks into control state and orbit drags. All
// callbacks fire inside glfw.PollEvents on the render thread.
type Input struct {
	keys     *controls.State
	bindings controls.Bindings
	orbit    *rig.Orbit

	dragging     bool
	lastX, lastY float64
	resized      bool
}

func NewInput(keys *controls.State, bindings controls.Bindings, orbit *rig.Orbit) *Input {
	return &Input{keys: keys, bindings: bindings, orbit: orbit}
}

func (in *Input) Attach(window *glfw.Window) {
	window.SetKeyCallback(in.onKey)
	window.SetFocusCallback(in.onFocus)
	window.SetFramebufferSizeCallback(in.onFramebufferSize)
	window.SetMouseButtonCallback(in.onMouseButton)
	window.SetCursorPosCallback(in.onCursorPos)
}

// TakeResize reports whether the framebuffer changed since the last call.
func (in *Input) TakeResize() bool {
	r := in.resized
	in.resized = false
	return r
}

func (in *Input) onKey(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
		return
	}
	a := in.bindings.Lookup(keyName(key))
	if a == controls.ActionNone {
		return
	}
	switch action {
	case glfw.Press:
		in.keys.Set(a, true)
	case glfw.Release:
		in.keys.Set(a, false)
	}
}

func (in *Input) onFocus(_ *glfw.Window, focused bool) {
	if !focused {
		in.keys.Reset()
		in.dragging = false
	}
}

func (in *Input) onFramebufferSize(_ *glfw.Window, _, _ int) {
	in.resized = true
}

func (in *Input) onMouseButton(w *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	switch action {
	case glfw.Press:
		in.dragging = true
		in.lastX, in.lastY = w.GetCursorPos()
	case glfw.Release:
		in.dragging = false
	}
}

func (in *Input) onCursorPos(w *glfw.Window, x, y float64) {
	if !in.dragging {
		return
	}
	_, h := w.GetSize()
	in.orbit.Rotate(x-in.lastX, y-in.lastY, h)
	in.lastX, in.lastY = x, y
}

var namedKeys = map[glfw.Key]string{
	glfw.KeyUp:        "UP",
	glfw.KeyDown:      "DOWN",
	glfw.KeyLeft:      "LEFT",
	glfw.KeyRight:     "RIGHT",
	glfw.KeySpace:     "SPACE",
	glfw.KeyLeftShift: "SHIFT",
}

// keyName maps a physical key to the name used in key bindings. Letters
// and digits map to themselves.
func keyName(k glfw.Key) string {
	switch {
	case k >= glfw.KeyA && k <= glfw.KeyZ, k >= glfw.Key0 && k <= glfw.Key9:
		return string(rune(k))
	}
	return namedKeys[k]
}
