package window

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// surfaceIDs hands out surface identities. Zero means no surface.
var surfaceIDs atomic.Uint64

// Window provides the platform window the renderer presents into, and the few events it reacts to.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer size in pixels (or nil to disable)
	SetResizeCallback(callback func(width, height int))

	// SetCloseCallback sets the function called once when the window starts closing.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetCloseCallback(callback func())

	// SetKeyDownCallback sets the function called when a key is pressed or repeats.
	//
	// Parameters:
	//   - callback: function receiving the key code (or nil to disable)
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns the platform surface descriptor for creating a wgpu.Surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SurfaceID identifies the native surface currently backing the window. It changes when the platform
	// handles behind the surface change, after which a renderer built on the old one must be rebuilt.
	//
	// Returns:
	//   - uint64: the surface identity, never 0 for an initialized window
	SurfaceID() uint64

	// IsRunning returns whether the window is still active.
	//
	// Returns:
	//   - bool: true if the window is running
	IsRunning() bool

	// Close closes the window and releases its resources.
	//
	// Returns:
	//   - error: error if closing fails
	Close() error

	// ProcessMessages runs the message loop until the window closes (blocking).
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth, minHeight, maxWidth and maxHeight bound the window size during resize.
	minWidth, minHeight int
	maxWidth, maxHeight int

	// width and height are the current framebuffer size in pixels.
	width, height int

	// surfaceID is replaced when the native surface behind the window changes.
	surfaceID atomic.Uint64
	native    nativeSurface

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate  func()
	onResize  func(width, height int)
	onClose   func()
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-gpu",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  765,
		minHeight: 503,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	w.updateSurface(w.SurfaceDescriptor())
	return w
}

// nativeSurface holds the platform handles a wgpu surface is created from.
type nativeSurface struct {
	display unsafe.Pointer
	handle  unsafe.Pointer
	window  uint32
}

// nativeSurfaceOf extracts the platform handles from desc. A nil descriptor gives the zero value.
//
// Parameters:
//   - desc: the surface descriptor of the window
//
// Returns:
//   - nativeSurface: the comparable handles
func nativeSurfaceOf(desc *wgpu.SurfaceDescriptor) nativeSurface {
	switch {
	case desc == nil:
		return nativeSurface{}
	case desc.WindowsHWND != nil:
		return nativeSurface{display: desc.WindowsHWND.Hinstance, handle: desc.WindowsHWND.Hwnd}
	case desc.XlibWindow != nil:
		return nativeSurface{display: desc.XlibWindow.Display, window: desc.XlibWindow.Window}
	case desc.XcbWindow != nil:
		return nativeSurface{display: desc.XcbWindow.Connection, window: desc.XcbWindow.Window}
	case desc.WaylandSurface != nil:
		return nativeSurface{display: desc.WaylandSurface.Display, handle: desc.WaylandSurface.Surface}
	case desc.MetalLayer != nil:
		return nativeSurface{handle: desc.MetalLayer.Layer}
	case desc.AndroidNativeWindow != nil:
		return nativeSurface{handle: desc.AndroidNativeWindow.Window}
	}
	return nativeSurface{}
}

// updateSurface renews the surface identity when the handles behind desc differ from the recorded ones.
func (w *engineWindow) updateSurface(desc *wgpu.SurfaceDescriptor) {
	native := nativeSurfaceOf(desc)
	if w.surfaceID.Load() != 0 && native == w.native {
		return
	}
	w.native = native
	w.surfaceID.Store(surfaceIDs.Add(1))
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetCloseCallback(callback func()) {
	w.onClose = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SurfaceID() uint64 {
	return w.surfaceID.Load()
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

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
