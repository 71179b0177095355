// package common contains plain data types and helpers shared across the renderer. They are not interface-wrapped structs, just plain structs that
// express commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds pixel data for a texture binding pending GPU upload.
// Array textures store their layers back to back in Pixels, each Width*Height*4 bytes long.
type TextureStagingData struct {
	// Pixels is the raw pixel data, 4 bytes per pixel.
	Pixels []byte
	// Width is the width of one layer in pixels.
	Width uint32
	// Height is the height of one layer in pixels.
	Height uint32
	// Layers is the number of array layers. Zero is treated as a single 2D texture.
	Layers uint32
	// Format is the GPU texture format of Pixels. The zero value selects RGBA8Unorm.
	Format wgpu.TextureFormat
}

// LayerCount returns the number of layers described by the staging data, never less than one.
func (t TextureStagingData) LayerCount() uint32 {
	if t.Layers == 0 {
		return 1
	}
	return t.Layers
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range.
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// Rect is an integer rectangle in pixels, origin at the top-left of the canvas.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}
