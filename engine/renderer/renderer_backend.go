package renderer

import "errors"

// ErrDeviceLost is returned once the surface has failed to produce a texture MaxSurfaceFailures frames
// in a row. The device or its context is gone and the renderer must be rebuilt from scratch.
var ErrDeviceLost = errors.New("renderer: device lost")

// MaxSurfaceFailures is the number of consecutive surface acquisition failures treated as device loss.
const MaxSurfaceFailures = 3

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// DefaultMaxSampleCount is the highest MSAA sample count assumed when none is configured.
const DefaultMaxSampleCount = 4

// sceneSampleCounts lists the render target sample counts core WebGPU accepts, highest first.
// Other counts need adapter specific format features, which the backend does not request.
var sceneSampleCounts = [...]uint32{4, 1}

// supportedSampleCount rounds a requested sample count down to one in sceneSampleCounts.
//
// Parameters:
//   - requested: the wanted sample count, 0 is treated as 1
//
// Returns:
//   - uint32: the highest supported count not above requested
func supportedSampleCount(requested uint32) uint32 {
	for _, n := range sceneSampleCounts {
		if n <= requested {
			return n
		}
	}
	return 1
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
