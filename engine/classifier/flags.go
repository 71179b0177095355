package classifier

// Flags is the per-descriptor metadata the compaction shader needs besides offsets.
// On the GPU it is packed into one 32-bit word:
//
//	bit  31     SceneBuffer
//	bits 12..23 Radius (12 bits)
//	bits 0..11  Orientation (12 bits)
//
// Radius and Orientation are truncated to 12 bits when packed.
type Flags struct {
	// SceneBuffer selects the persistent scene buffers as the source instead of the per-frame temporary buffers.
	SceneBuffer bool
	// Radius is the model radius used for priority sorting.
	Radius uint16
	// Orientation is the model yaw as a trig table index.
	Orientation uint16
}

const (
	sceneBufferBit  = uint32(1) << 31
	fieldMask       = 0xFFF
	radiusShift     = 12
	orientationMask = fieldMask
)

// Pack returns the wire form of the flags.
func (f Flags) Pack() uint32 {
	packed := uint32(f.Radius&fieldMask)<<radiusShift | uint32(f.Orientation&orientationMask)
	if f.SceneBuffer {
		packed |= sceneBufferBit
	}
	return packed
}

// UnpackFlags decodes the wire form produced by Pack.
func UnpackFlags(packed uint32) Flags {
	return Flags{
		SceneBuffer: packed&sceneBufferBit != 0,
		Radius:      uint16(packed >> radiusShift & fieldMask),
		Orientation: uint16(packed & orientationMask),
	}
}
