package classifier

import (
	"encoding/binary"
)

// NoUV is the UV offset of a descriptor whose geometry has no texture coordinates.
const NoUV = -1

// DescriptorSize is the size in bytes of one marshaled descriptor.
const DescriptorSize = 32

// DrawDescriptor locates one drawable's triangles in a source buffer and assigns their slot in the output buffer.
// Offsets count vertices.
type DrawDescriptor struct {
	VertexOffset  int32
	UVOffset      int32
	TriangleCount int32
	TargetOffset  int32
	Flags         Flags
	X, Y, Z       int32
}

// HasUV reports whether the descriptor carries texture coordinates.
func (d DrawDescriptor) HasUV() bool {
	return d.UVOffset >= 0
}

// VertexCount returns the number of output vertices the descriptor writes.
func (d DrawDescriptor) VertexCount() int {
	return int(d.TriangleCount) * 3
}

// Marshal appends the little-endian wire form of the descriptor to dst.
//
// Parameters:
//   - dst: the slice to append to
//
// Returns:
//   - []byte: dst extended by DescriptorSize bytes
func (d DrawDescriptor) Marshal(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.VertexOffset))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.UVOffset))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.TriangleCount))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.TargetOffset))
	dst = binary.LittleEndian.AppendUint32(dst, d.Flags.Pack())
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.X))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.Y))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(d.Z))
	return dst
}

// MarshalDescriptors encodes a descriptor list for upload.
//
// Parameters:
//   - descriptors: the descriptors to encode
//
// Returns:
//   - []byte: the concatenated wire form, nil for an empty list
func MarshalDescriptors(descriptors []DrawDescriptor) []byte {
	if len(descriptors) == 0 {
		return nil
	}
	out := make([]byte, 0, len(descriptors)*DescriptorSize)
	for _, d := range descriptors {
		out = d.Marshal(out)
	}
	return out
}
