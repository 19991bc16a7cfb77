package window

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/sirupsen/logrus"

	"roomwalk/core"
	"roomwalk/pkg/logger"
)

func init() {
	runtime.LockOSThread()
}

type Config struct {
	Width      int
	Height     int
	Title      string
	Resizable  bool
	VSync      bool
	Fullscreen bool
	Samples    int
}

func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Title:     "roomwalk",
		Resizable: true,
		VSync:     true,
		Samples:   4,
	}
}

// Window is a GLFW window with a current OpenGL 4.1 core context. Event
// callbacks run on the main thread during PollEvents.
type Window struct {
	Handle *glfw.Window
	Width  int
	Height int
	Title  string

	OnKey              func(key core.Key, action core.Action)
	OnClick            func()
	OnMouseMove        func(dx, dy float64)
	OnResize           func(width, height int)
	OnFocus            func(focused bool)
	OnPointerLock      func(locked bool)
	OnPointerLockError func()

	log logrus.FieldLogger

	locked       bool
	haveBaseline bool
	lastX, lastY float64

	// pointer-lock outcomes, reported after the next PollEvents
	pending []func()
}

func New(config Config) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)
	if config.Samples > 0 {
		glfw.WindowHint(glfw.Samples, config.Samples)
	}

	monitor := (*glfw.Monitor)(nil)
	if config.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{
		Handle: handle,
		Title:  config.Title,
		log:    logger.For("window"),
	}
	w.Width, w.Height = handle.GetFramebufferSize()
	w.installCallbacks()
	return w, nil
}

func (w *Window) installCallbacks() {
	w.Handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		k := translateKey(key)
		if k == core.KeyUnknown || w.OnKey == nil {
			return
		}
		w.OnKey(k, translateAction(action))
	})

	w.Handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button == glfw.MouseButtonLeft && action == glfw.Press && w.OnClick != nil {
			w.OnClick()
		}
	})

	w.Handle.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		if !w.locked {
			return
		}
		if !w.haveBaseline {
			w.lastX, w.lastY = xpos, ypos
			w.haveBaseline = true
			return
		}
		dx, dy := xpos-w.lastX, ypos-w.lastY
		w.lastX, w.lastY = xpos, ypos
		if w.OnMouseMove != nil {
			w.OnMouseMove(dx, dy)
		}
	})

	// framebuffer size, not window size: they differ on HiDPI displays
	w.Handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.Width = width
		w.Height = height
		if w.OnResize != nil {
			w.OnResize(width, height)
		}
	})

	w.Handle.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if w.OnFocus != nil {
			w.OnFocus(focused)
		}
	})
}

// RequestPointerLock hides and captures the cursor. The outcome is reported
// through OnPointerLock or OnPointerLockError after the next PollEvents.
func (w *Window) RequestPointerLock() {
	w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		w.Handle.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}

	if w.Handle.GetInputMode(glfw.CursorMode) != glfw.CursorDisabled {
		w.log.Warn("cursor could not be captured")
		w.queue(func() {
			if w.OnPointerLockError != nil {
				w.OnPointerLockError()
			}
		})
		return
	}
	w.setLocked(true)
}

// ExitPointerLock restores the normal cursor.
func (w *Window) ExitPointerLock() {
	if glfw.RawMouseMotionSupported() {
		w.Handle.SetInputMode(glfw.RawMouseMotion, glfw.False)
	}
	w.Handle.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	w.setLocked(false)
}

func (w *Window) setLocked(locked bool) {
	w.locked = locked
	w.haveBaseline = false
	w.queue(func() {
		if w.OnPointerLock != nil {
			w.OnPointerLock(locked)
		}
	})
}

func (w *Window) queue(fn func()) {
	w.pending = append(w.pending, fn)
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
	w.flushPending()
}

// flushPending runs the callbacks queued during the last poll. Callbacks
// queued while flushing wait for the next poll.
func (w *Window) flushPending() {
	pending := w.pending
	w.pending = nil
	for _, fn := range pending {
		fn()
	}
}

func (w *Window) SwapBuffers() {
	w.Handle.SwapBuffers()
}

func (w *Window) GetFramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func translateKey(key glfw.Key) core.Key {
	switch key {
	case glfw.KeyW:
		return core.KeyW
	case glfw.KeyA:
		return core.KeyA
	case glfw.KeyS:
		return core.KeyS
	case glfw.KeyD:
		return core.KeyD
	case glfw.KeyEscape:
		return core.KeyEscape
	}
	return core.KeyUnknown
}

func translateAction(action glfw.Action) core.Action {
	switch action {
	case glfw.Press:
		return core.Press
	case glfw.Repeat:
		return core.Repeat
	}
	return core.Release
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
