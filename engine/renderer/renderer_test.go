package renderer

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sceneTargetRecorder records the scene target requests reaching the backend.
// Methods not overridden panic through the nil embedded interface.
type sceneTargetRecorder struct {
	RendererBackend
	samples    uint32
	configured []uint32
}

func (b *sceneTargetRecorder) ConfigureSceneTarget(_, _ int, samples uint32) error {
	b.configured = append(b.configured, samples)
	b.samples = samples
	return nil
}

func (b *sceneTargetRecorder) SceneSampleCount() uint32 { return b.samples }

func newRecordingRenderer(maxSamples uint32) (*renderer, *sceneTargetRecorder) {
	b := &sceneTargetRecorder{}
	return &renderer{
		mu:             &sync.Mutex{},
		pipelineCache:  map[string]pipeline.Pipeline{},
		backend:        b,
		maxSampleCount: maxSamples,
	}, b
}

func TestClipRect(t *testing.T) {
	cases := []struct {
		name string
		in   common.Rect
		want common.Rect
	}{
		{"inside", common.Rect{X: 10, Y: 20, Width: 100, Height: 50}, common.Rect{X: 10, Y: 20, Width: 100, Height: 50}},
		{"negative origin", common.Rect{X: -1, Y: -1, Width: 802, Height: 602}, common.Rect{X: 0, Y: 0, Width: 800, Height: 600}},
		{"past the edge", common.Rect{X: 700, Y: 500, Width: 200, Height: 200}, common.Rect{X: 700, Y: 500, Width: 100, Height: 100}},
		{"outside", common.Rect{X: 900, Y: 0, Width: 10, Height: 10}, common.Rect{X: 900, Y: 0, Width: 0, Height: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := clipRect(tc.in, 800, 600)
			assert.Equal(t, tc.want, got)
		})
	}
	assert.True(t, clipRect(common.Rect{X: 900, Width: 10, Height: 10}, 800, 600).Empty())
}

func TestPassRectsKeepFullViewport(t *testing.T) {
	// stretched output padded by one pixel on every side
	padded := common.Rect{X: -1, Y: -1, Width: 802, Height: 602}
	viewport, scissor := passRects(padded, 800, 600)
	assert.Equal(t, padded, viewport)
	assert.Equal(t, common.Rect{X: 0, Y: 0, Width: 800, Height: 600}, scissor)

	inside := common.Rect{X: 10, Y: 20, Width: 100, Height: 50}
	viewport, scissor = passRects(inside, 800, 600)
	assert.Equal(t, inside, viewport)
	assert.Equal(t, inside, scissor)

	viewport, scissor = passRects(common.Rect{X: 900, Width: 10, Height: 10}, 800, 600)
	assert.True(t, viewport.Empty())
	assert.Equal(t, common.Rect{}, scissor)
}

func TestBufferSizing(t *testing.T) {
	assert.Equal(t, uint64(minBufferSize), alignBufferSize(0))
	assert.Equal(t, uint64(minBufferSize), alignBufferSize(5))
	assert.Equal(t, uint64(20), alignBufferSize(17))
	assert.Equal(t, uint64(1136), alignBufferSize(1136))

	data := []byte{1, 2, 3, 4, 5}
	padded := padToCopyAlignment(data)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, padded)
	assert.Len(t, data, 5)

	aligned := []byte{1, 2, 3, 4}
	assert.Equal(t, aligned, padToCopyAlignment(aligned))
}

func TestBuilderOptions(t *testing.T) {
	r := &renderer{maxSampleCount: DefaultMaxSampleCount}

	WithMaxSampleCount(0)(r)
	assert.Equal(t, uint32(1), r.maxSampleCount)
	WithMaxSampleCount(16)(r)
	assert.Equal(t, uint32(16), r.maxSampleCount)
	assert.Equal(t, uint32(4), r.MaxSampleCount())

	WithPresentMode(PresentModeVSync)(r)
	if assert.NotNil(t, r.pendingPresentMode) {
		assert.Equal(t, PresentModeVSync, *r.pendingPresentMode)
	}

	WithForceSoftwareRenderer(true)(r)
	assert.True(t, r.forceFallbackAdapter)
}

func TestSupportedSampleCount(t *testing.T) {
	for requested, want := range map[uint32]uint32{0: 1, 1: 1, 2: 1, 3: 1, 4: 4, 5: 4, 8: 4, 16: 4, 32: 4} {
		assert.Equal(t, want, supportedSampleCount(requested), "requested %d", requested)
	}
}

func TestSceneTargetSampleCountPerMode(t *testing.T) {
	cases := []struct {
		mode       config.AntiAliasingMode
		maxSamples uint32
		want       uint32
	}{
		{config.AntiAliasingDisabled, DefaultMaxSampleCount, 1},
		{config.AntiAliasingMSAA2, DefaultMaxSampleCount, 1},
		{config.AntiAliasingMSAA4, DefaultMaxSampleCount, 4},
		{config.AntiAliasingMSAA8, DefaultMaxSampleCount, 4},
		{config.AntiAliasingMSAA16, DefaultMaxSampleCount, 4},
		{config.AntiAliasingMSAA2, 16, 1},
		{config.AntiAliasingMSAA8, 16, 4},
		{config.AntiAliasingMSAA16, 16, 4},
		{config.AntiAliasingMSAA4, 1, 1},
		{config.AntiAliasingMSAA16, 2, 1},
	}
	for _, tc := range cases {
		t.Run(tc.mode.String(), func(t *testing.T) {
			r, b := newRecordingRenderer(tc.maxSamples)
			require.NoError(t, r.ConfigureSceneTarget(100, 100, tc.mode.Samples()))
			assert.Equal(t, []uint32{tc.want}, b.configured)
			assert.LessOrEqual(t, b.samples, r.MaxSampleCount())
		})
	}
}
