package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Projection builds the screen-space orthographic projection used by the scene pass.
// Vertices arrive already perspective-divided into pixel coordinates with the origin at the
// top-left of the viewport, and their depth in [0, far]. The GL-style [-1, 1] depth range
// produced by mgl32.Ortho is remapped to WebGPU's [0, 1].
//
// Parameters:
//   - viewportWidth: viewport width in pixels
//   - viewportHeight: viewport height in pixels
//   - far: the largest depth value that must remain inside the clip volume
//
// Returns:
//   - [16]float32: the projection matrix in column-major order
func Projection(viewportWidth, viewportHeight int, far float32) [16]float32 {
	ortho := mgl32.Ortho(0, float32(viewportWidth), float32(viewportHeight), 0, -far, 0)
	depthFix := mgl32.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 0.5, 0,
		0, 0, 0.5, 1,
	}
	return depthFix.Mul4(ortho)
}
