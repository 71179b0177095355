// Package camera captures the client's camera once per frame and encodes the uniform block shared by the
// compaction and scene shaders.
package camera

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
)

const (
	// HeaderSize is the size in bytes of the per-frame camera header.
	HeaderSize = 8 * 4
	// TableEntrySize is the size in bytes of one vec4<i32> trig table entry.
	TableEntrySize = 16
	// UniformSize is the total size in bytes of the uniform block.
	UniformSize = HeaderSize + common.TrigTableSize*TableEntrySize
)

// Snapshot is the camera state of one frame, in the client's fixed-point units.
type Snapshot struct {
	Yaw     int32
	Pitch   int32
	CenterX int32
	CenterY int32
	Zoom    int32
	X       int32
	Y       int32
	Z       int32
}

// FromClient reads the camera from the client.
//
// Parameters:
//   - c: the client
//
// Returns:
//   - Snapshot: the current camera
func FromClient(c host.Client) Snapshot {
	return Snapshot{
		Yaw:     int32(c.CameraYaw()),
		Pitch:   int32(c.CameraPitch()),
		CenterX: int32(c.CenterX()),
		CenterY: int32(c.CenterY()),
		Zoom:    int32(c.Scale()),
		X:       int32(c.CameraX2()),
		Y:       int32(c.CameraY2()),
		Z:       int32(c.CameraZ2()),
	}
}

// Header encodes the snapshot as the first HeaderSize bytes of the uniform block.
//
// Returns:
//   - []byte: the little-endian header
func (s Snapshot) Header() []byte {
	out := make([]byte, 0, HeaderSize)
	for _, v := range [8]int32{s.Yaw, s.Pitch, s.CenterX, s.CenterY, s.Zoom, s.X, s.Y, s.Z} {
		out = binary.LittleEndian.AppendUint32(out, uint32(v))
	}
	return out
}

// TrigTable encodes the fixed-point trig tables as vec4<i32>(sine, cosine, 0, 0) entries. They follow
// the header in the uniform block and are written once, at offset HeaderSize.
//
// Returns:
//   - []byte: common.TrigTableSize*TableEntrySize bytes
func TrigTable() []byte {
	out := make([]byte, common.TrigTableSize*TableEntrySize)
	for i := range common.TrigTableSize {
		o := i * TableEntrySize
		binary.LittleEndian.PutUint32(out[o:], uint32(common.Sine[i]))
		binary.LittleEndian.PutUint32(out[o+4:], uint32(common.Cosine[i]))
	}
	return out
}
