package engine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameUniformsMarshalLayout(t *testing.T) {
	var projection [16]float32
	for i := range projection {
		projection[i] = float32(i)
	}
	cfg := config.Config{DrawDistance: 30, FogDepth: 5, SmoothBanding: true}
	u := NewFrameUniforms(cfg, projection, 0x00FF00, 0.6)
	u.TextureOffsets[0] = 0.25
	u.TextureOffsets[len(u.TextureOffsets)-1] = -1

	out := u.Marshal()
	require.Len(t, out, FrameUniformSize)
	word := func(i int) uint32 { return binary.LittleEndian.Uint32(out[i*4:]) }
	float := func(i int) float32 { return math.Float32frombits(word(i)) }

	for i := range 16 {
		assert.Equal(t, float32(i), float(i))
	}
	assert.Equal(t, []float32{0, 1, 0, 1}, []float32{float(16), float(17), float(18), float(19)})
	assert.Equal(t, uint32(1), word(20))
	assert.Equal(t, uint32(5), word(21))
	assert.Equal(t, uint32(30*128), word(22))
	assert.Zero(t, float(23))
	assert.InDelta(t, 0.6, float(24), 1e-6)
	assert.Equal(t, make([]byte, 12), out[100:112])
	assert.Equal(t, float32(0.25), float(28))
	assert.Equal(t, float32(-1), float(FrameUniformSize/4-1))
}

func TestNewFrameUniformsDefaults(t *testing.T) {
	u := NewFrameUniforms(config.Default(), [16]float32{}, 0, 1)

	assert.False(t, u.UseFog)
	assert.Equal(t, int32(25*128), u.DrawDistance)
	assert.Equal(t, float32(1), u.SmoothBanding)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, u.FogColor)
}

func TestNewFrameUniformsClamps(t *testing.T) {
	u := NewFrameUniforms(config.Config{DrawDistance: -4, FogDepth: 1000}, [16]float32{}, 0, 1)

	assert.Zero(t, u.DrawDistance)
	assert.Equal(t, int32(config.MaxFogDepth), u.FogDepth)
	assert.True(t, u.UseFog)
}
