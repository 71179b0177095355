package engine

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
)

const (
	// SceneSize is the edge length of the loaded scene in tiles.
	SceneSize = 104
	// FarPlane is the deepest depth the scene projection keeps.
	FarPlane = SceneSize * classifier.TileSize

	// FrameUniformSize is the size in bytes of the encoded FrameUniforms block.
	FrameUniformSize = 64 + 16 + 16 + 16 + texture.MaxTextures*texture.OffsetStride*4
)

// FrameUniforms is the per-frame uniform block of the scene pass.
type FrameUniforms struct {
	Projection [16]float32
	FogColor   [4]float32
	UseFog     bool
	FogDepth   int32
	// DrawDistance is in world units.
	DrawDistance int32
	// SmoothBanding weights the banded palette color: 0 selects the interpolated color.
	SmoothBanding float32
	Brightness    float32
	// TextureOffsets holds the animation offset of each texture as (u, v, 0, 0).
	TextureOffsets [texture.MaxTextures * texture.OffsetStride]float32
}

// NewFrameUniforms fills the block from the user options and the client state.
//
// Parameters:
//   - cfg: the user options, clamped here
//   - projection: the scene projection
//   - sky: the packed 0xRRGGBB sky color, used as the fog color
//   - brightness: the texture provider's brightness
//
// Returns:
//   - FrameUniforms: the block with zero texture offsets
func NewFrameUniforms(cfg config.Config, projection [16]float32, sky int, brightness float64) FrameUniforms {
	cfg = cfg.Clamped()
	u := FrameUniforms{
		Projection:    projection,
		FogColor:      common.UnpackRGB(sky),
		UseFog:        cfg.FogDepth > 0,
		FogDepth:      int32(cfg.FogDepth),
		DrawDistance:  int32(cfg.DrawDistance * classifier.TileSize),
		SmoothBanding: 1,
		Brightness:    float32(brightness),
	}
	if cfg.SmoothBanding {
		u.SmoothBanding = 0
	}
	return u
}

// Marshal encodes the block in the layout of the WGSL FrameUniforms struct.
//
// Returns:
//   - []byte: FrameUniformSize little-endian bytes
func (u *FrameUniforms) Marshal() []byte {
	out := make([]byte, 0, FrameUniformSize)
	putFloat := func(f float32) {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}

	for _, f := range u.Projection {
		putFloat(f)
	}
	for _, f := range u.FogColor {
		putFloat(f)
	}
	var useFog uint32
	if u.UseFog {
		useFog = 1
	}
	out = binary.LittleEndian.AppendUint32(out, useFog)
	out = binary.LittleEndian.AppendUint32(out, uint32(u.FogDepth))
	out = binary.LittleEndian.AppendUint32(out, uint32(u.DrawDistance))
	putFloat(u.SmoothBanding)
	putFloat(u.Brightness)
	out = append(out, make([]byte, 12)...)
	for _, f := range u.TextureOffsets {
		putFloat(f)
	}
	return out
}
