package model

import (
	"encoding/binary"
	"math"
)

const (
	// VertexSize is the size in bytes of one GPUVertex, a WGSL vec4<i32>.
	VertexSize = 16
	// UVSize is the size in bytes of one GPUUV, a WGSL vec4<f32>.
	UVSize = 16
)

// GPUVertex is one vertex of the scene vertex stream.
// Matches the WGSL VertexPosition input and the compaction shader's vec4<i32> buffers.
type GPUVertex struct {
	X, Y, Z int32 // world position, or model space before compaction
	Color   int32 // alpha<<24 | priority<<16 | hsl, see PackColor
}

// Marshal appends the vertex to dst in little-endian order.
//
// Parameters:
//   - dst: the buffer to append to
//
// Returns:
//   - []byte: dst extended by VertexSize bytes
func (v GPUVertex) Marshal(dst []byte) []byte {
	for _, c := range [4]int32{v.X, v.Y, v.Z, v.Color} {
		dst = binary.LittleEndian.AppendUint32(dst, uint32(c))
	}
	return dst
}

// GPUUV is the texture coordinate of one vertex.
// Matches the WGSL VertexUV input: x holds the texture id plus one, so zero means untextured.
type GPUUV struct {
	Texture float32
	U, V    float32
	_       float32
}

// Marshal appends the UV to dst in little-endian order.
//
// Parameters:
//   - dst: the buffer to append to
//
// Returns:
//   - []byte: dst extended by UVSize bytes
func (t GPUUV) Marshal(dst []byte) []byte {
	for _, c := range [4]float32{t.Texture, t.U, t.V, 0} {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(c))
	}
	return dst
}

// PackColor packs a face's transparency, render priority and HSL color into a vertex color word.
//
// Parameters:
//   - alpha: transparency, 0 is opaque
//   - priority: render priority, 0 to 255
//   - hsl: the 16-bit HSL color
//
// Returns:
//   - int32: the packed color
func PackColor(alpha, priority byte, hsl int32) int32 {
	return int32(alpha)<<24 | int32(priority)<<16 | hsl&0xFFFF
}

// UnpackColor splits a packed vertex color into its parts.
func UnpackColor(c int32) (alpha, priority byte, hsl int32) {
	return byte(uint32(c) >> 24), byte(uint32(c) >> 16), c & 0xFFFF
}
