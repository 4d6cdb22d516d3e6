// Package window opens the GLFW window the renderer presents to and forwards its
// input and resize events. The window creates no client API context; the WebGPU
// surface is built from SurfaceDescriptor.
package window

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes.
	// It is not called while the window is minimized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta (positive = up)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the key code (see common key constants)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns the platform surface descriptor for the window, built
	// by the wgpuglfw bridge.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Minimized reports whether the framebuffer currently has zero area.
	Minimized() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: an error if the window was already closed
	Close() error

	// ProcessMessages runs the message loop on the calling goroutine until the window
	// closes, calling the update callback once per iteration.
	ProcessMessages()

	// Size returns the framebuffer size in pixels.
	Size() (width, height int)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title     string
	width     int
	height    int
	minWidth  int
	minHeight int
	maxWidth  int
	maxHeight int
	resizable bool
	minimized bool

	platform *glfwWindow

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onKeyUp   func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. It locks the calling goroutine to its OS
// thread; the message loop and every GPU call must stay on that goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if GLFW or the window could not be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-deferred",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 180,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunning(w)
}

func (w *engineWindow) Minimized() bool {
	return w.minimized
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !platformPollEvents(w) {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Size() (width, height int) {
	return w.width, w.height
}

// framebufferResized records a framebuffer size change. Zero sizes mark the window
// minimized and are not forwarded.
func (w *engineWindow) framebufferResized(width, height int) {
	if width <= 0 || height <= 0 {
		w.minimized = true
		return
	}
	w.minimized = false
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}
