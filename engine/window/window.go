package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("window")

// modifierMask keeps the modifier bits key chords are matched on. Lock keys are ignored.
const modifierMask = common.ModShift | common.ModControl | common.ModAlt | common.ModSuper

// Window provides a platform window with a current OpenGL 3.3 core context and keyboard input.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration, after events
	// are polled and before the back buffer is presented.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// BindKey registers a handler for a key pressed with exactly the given modifiers held.
	// Handlers run on the thread that runs ProcessMessages.
	//
	// Parameters:
	//   - mods: the modifiers that must be held
	//   - key: the key that triggers the handler
	//   - handler: function to call on press
	//
	// Returns:
	//   - error: an error if the chord is already bound or the handler is nil
	BindKey(mods common.ModifierKey, key common.KeyCode, handler func()) error

	// SwapBuffers presents the back buffer.
	SwapBuffers()

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback and presents each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Size returns the current framebuffer size.
	//
	// Returns:
	//   - common.Size: the size in pixels
	Size() common.Size
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth is the maximum allowed window width during resize.
	maxWidth int

	// maxHeight is the maximum allowed window height during resize.
	maxHeight int

	// minWidth is the minimum allowed window width during resize.
	minWidth int

	// minHeight is the minimum allowed window height during resize.
	minHeight int

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// vsync sets the swap interval to one frame.
	vsync bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the framebuffer is resized.
	onResize func(width, height int)

	bindMu   sync.Mutex
	bindings map[common.KeyChord]func()
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options and makes its GL context current
// on the calling thread, which stays locked to it.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow()
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	logger.Info("window created", "title", w.title, "width", w.width, "height", w.height)
	return w
}

func newEngineWindow() *engineWindow {
	return &engineWindow{
		title:     "oxy-vr",
		maxWidth:  -1,
		maxHeight: -1,
		minWidth:  320,
		minHeight: 180,
		width:     1920,
		height:    1080,
		vsync:     true,
		bindings:  make(map[common.KeyChord]func()),
	}
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) BindKey(mods common.ModifierKey, key common.KeyCode, handler func()) error {
	chord := common.KeyChord{Mods: mods & modifierMask, Key: key}
	if handler == nil {
		return fmt.Errorf("nil handler for %s", chord)
	}

	w.bindMu.Lock()
	defer w.bindMu.Unlock()
	if _, ok := w.bindings[chord]; ok {
		return fmt.Errorf("%s is already bound", chord)
	}
	w.bindings[chord] = handler
	logger.Debug("key bound", "chord", chord)
	return nil
}

// dispatchKey runs the handler bound to a pressed chord and reports whether one ran.
func (w *engineWindow) dispatchKey(mods common.ModifierKey, key common.KeyCode) bool {
	w.bindMu.Lock()
	handler, ok := w.bindings[common.KeyChord{Mods: mods & modifierMask, Key: key}]
	w.bindMu.Unlock()
	if ok {
		handler()
	}
	return ok
}

// resized records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}
		w.SwapBuffers()

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

func (w *engineWindow) Size() common.Size {
	return common.Size{Width: int32(w.width), Height: int32(w.height)}
}
