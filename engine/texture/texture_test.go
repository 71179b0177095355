package texture

import (
	"testing"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) Manager {
	m := NewManager(WithTextureSize(4))
	t.Cleanup(m.Close)
	return m
}

func TestBuildArrayNotReady(t *testing.T) {
	m := newTestManager(t)
	p := &hosttest.TextureProvider{Table: []*hosttest.Texture{hosttest.SolidTexture(4, 1), {}}}

	assert.False(t, m.AllTexturesLoaded(p))
	_, err := m.BuildArray(p)
	assert.ErrorIs(t, err, ErrNotReady)

	// once loaded the next attempt succeeds
	p.Table[1].Data = make([]int32, 16)
	assert.True(t, m.AllTexturesLoaded(p))
	_, err = m.BuildArray(p)
	assert.NoError(t, err)
}

func TestBuildArrayLayers(t *testing.T) {
	m := newTestManager(t)
	p := &hosttest.TextureProvider{Table: []*hosttest.Texture{
		hosttest.SolidTexture(4, 0x102030),
		nil,
		hosttest.SolidTexture(4, 0),
	}}

	data, err := m.BuildArray(p)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), data.Width)
	assert.Equal(t, uint32(3), data.Layers)
	require.Len(t, data.Pixels, 3*4*4*4)

	assert.Equal(t, []byte{0x10, 0x20, 0x30, 0xFF}, data.Pixels[0:4])
	// missing and black textures are transparent
	assert.Equal(t, make([]byte, 64), data.Pixels[64:128])
	assert.Equal(t, make([]byte, 64), data.Pixels[128:192])
}

func TestBuildArrayUpscales(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(2, 8, defaultIdleTimeout)
	defer pool.Stop()
	m := NewManager(WithTextureSize(4), WithWorkerPool(pool))

	src := &hosttest.Texture{Data: []int32{1, 2, 3, 4}}
	data, err := m.BuildArray(&hosttest.TextureProvider{Table: []*hosttest.Texture{src}})
	require.NoError(t, err)

	blue := func(x, y int) byte { return data.Pixels[(y*4+x)*4+2] }
	assert.Equal(t, byte(1), blue(0, 0))
	assert.Equal(t, byte(1), blue(1, 1))
	assert.Equal(t, byte(2), blue(2, 0))
	assert.Equal(t, byte(3), blue(0, 3))
	assert.Equal(t, byte(4), blue(3, 3))
}

func TestBuildArraySkipsUnsupportedSizes(t *testing.T) {
	m := newTestManager(t)
	odd := &hosttest.Texture{Data: []int32{1, 2, 3}}
	data, err := m.BuildArray(&hosttest.TextureProvider{Table: []*hosttest.Texture{odd}})
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 64), data.Pixels)
}

func TestAnimateDirections(t *testing.T) {
	m := newTestManager(t)
	cases := []struct {
		direction int
		u, v      float32
	}{
		{1, 0.5, 0.5 - 4.0/128},
		{2, 0.5 - 4.0/128, 0.5},
		{3, 0.5, 0.5 + 4.0/128},
		{4, 0.5 + 4.0/128, 0.5},
		{0, 0.5, 0.5},
	}
	for _, tc := range cases {
		tex := hosttest.SolidTexture(128, 1)
		tex.OffsetU, tex.OffsetV = 0.5, 0.5
		tex.Direction, tex.Speed = tc.direction, 2

		m.Animate(tex, 2)
		assert.InDelta(t, tc.u, tex.U(), 1e-6, "direction %d", tc.direction)
		assert.InDelta(t, tc.v, tex.V(), 1e-6, "direction %d", tc.direction)
	}
}

func TestAnimateSmallTextureStepAndWrap(t *testing.T) {
	m := newTestManager(t)
	tex := hosttest.SolidTexture(64, 1)
	tex.Direction, tex.Speed = 1, 1
	tex.OffsetV = 0.25 / 64

	m.Animate(tex, 1)
	assert.InDelta(t, 1-0.75/64, tex.V(), 1e-6)

	tex.Direction, tex.OffsetU = 4, 0.999
	m.Animate(tex, 200)
	assert.GreaterOrEqual(t, tex.U(), float32(0))
	assert.Less(t, tex.U(), float32(1))
}

func TestAnimateUnloaded(t *testing.T) {
	m := newTestManager(t)
	tex := &hosttest.Texture{Direction: 1, Speed: 1, OffsetV: 0.5}
	m.Animate(tex, 1)
	assert.Equal(t, float32(0.5), tex.V())
}

func TestOffsets(t *testing.T) {
	m := newTestManager(t)
	a := hosttest.SolidTexture(4, 1)
	a.OffsetU, a.OffsetV = 0.25, 0.75
	p := &hosttest.TextureProvider{Table: []*hosttest.Texture{nil, a}}

	dst := make([]float32, MaxTextures*OffsetStride)
	m.Offsets(p, dst)
	assert.Equal(t, []int{1}, p.Loaded)
	assert.Equal(t, []float32{0.25, 0.75, 0, 0}, dst[4:8])
}
