package window

import (
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNativeSurfaceOf(t *testing.T) {
	var display, surface int
	desc := &wgpu.SurfaceDescriptor{WaylandSurface: &wgpu.SurfaceDescriptorFromWaylandSurface{
		Display: unsafe.Pointer(&display),
		Surface: unsafe.Pointer(&surface),
	}}
	assert.Equal(t, nativeSurface{display: unsafe.Pointer(&display), handle: unsafe.Pointer(&surface)}, nativeSurfaceOf(desc))
	assert.Equal(t, nativeSurface{}, nativeSurfaceOf(nil))

	xlib := &wgpu.SurfaceDescriptor{XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{Display: unsafe.Pointer(&display), Window: 42}}
	assert.Equal(t, uint32(42), nativeSurfaceOf(xlib).window)
}

func TestSurfaceIDFollowsNativeSurface(t *testing.T) {
	var display uintptr
	xlib := func(window uint32) *wgpu.SurfaceDescriptor {
		return &wgpu.SurfaceDescriptor{XlibWindow: &wgpu.SurfaceDescriptorFromXlibWindow{
			Display: unsafe.Pointer(&display),
			Window:  window,
		}}
	}

	w := &engineWindow{}
	w.updateSurface(xlib(7))
	first := w.SurfaceID()
	assert.NotZero(t, first)

	// restored from iconified with the same native window
	w.updateSurface(xlib(7))
	w.updateSurface(xlib(7))
	assert.Equal(t, first, w.SurfaceID())

	w.updateSurface(xlib(8))
	second := w.SurfaceID()
	assert.NotEqual(t, first, second)

	w.updateSurface(xlib(8))
	assert.Equal(t, second, w.SurfaceID())
}

func TestSurfaceIDAssignedWithoutDescriptor(t *testing.T) {
	w := &engineWindow{}
	w.updateSurface(nil)
	id := w.SurfaceID()
	assert.NotZero(t, id)
	w.updateSurface(nil)
	assert.Equal(t, id, w.SurfaceID())
}
