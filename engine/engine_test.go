package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host/hosttest"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records every call and fails the ones named in fail.
type fakeBackend struct {
	calls      []string
	fail       map[string]error
	maxSamples uint32

	targets       [][3]int
	uploads       []FrameUpload
	compacts      [][classifier.BucketCount]int
	draws         []SceneDraw
	layers        []UILayer
	textureReady  bool
	textureArrays []common.TextureStagingData
	resizes       [][2]int
}

var _ Backend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{fail: map[string]error{}, maxSamples: 8}
}

func (b *fakeBackend) record(call string) error {
	b.calls = append(b.calls, call)
	return b.fail[call]
}

func (b *fakeBackend) count(call string) int {
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (b *fakeBackend) Init() error             { return b.record("init") }
func (b *fakeBackend) MaxSampleCount() uint32  { return b.maxSamples }
func (b *fakeBackend) TextureArrayReady() bool { return b.textureReady }
func (b *fakeBackend) Barrier()                { b.record("barrier") }
func (b *fakeBackend) ReleaseFrame()           { b.record("release frame") }
func (b *fakeBackend) Release()                { b.record("release") }

func (b *fakeBackend) Resize(width, height int) {
	b.record("resize")
	b.resizes = append(b.resizes, [2]int{width, height})
}

func (b *fakeBackend) ConfigureSceneTarget(width, height int, samples uint32) error {
	b.targets = append(b.targets, [3]int{width, height, int(samples)})
	return b.record("configure target")
}

func (b *fakeBackend) UploadScene(vertices, uvs []byte) error {
	return b.record("upload scene")
}

func (b *fakeBackend) UploadTextureArray(data common.TextureStagingData) error {
	if err := b.record("upload textures"); err != nil {
		return err
	}
	b.textureArrays = append(b.textureArrays, data)
	b.textureReady = true
	return nil
}

func (b *fakeBackend) UploadFrame(f FrameUpload) error {
	b.uploads = append(b.uploads, f)
	return b.record("upload frame")
}

func (b *fakeBackend) Compact(counts [classifier.BucketCount]int) error {
	b.compacts = append(b.compacts, counts)
	return b.record("compact")
}

func (b *fakeBackend) DrawScene(d SceneDraw) error {
	b.draws = append(b.draws, d)
	return b.record("draw scene")
}

func (b *fakeBackend) Composite(ui UILayer) error {
	b.layers = append(b.layers, ui)
	return b.record("composite")
}

type fakeSurface struct {
	id     uint64
	resize func(width, height int)
}

func (s *fakeSurface) SurfaceID() uint64 { return s.id }

func (s *fakeSurface) SetResizeCallback(callback func(width, height int)) {
	s.resize = callback
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClient returns a logged-in client with a one-tile scene and a loaded texture.
func testClient() *hosttest.Client {
	c := hosttest.NewClient(512, 334)
	c.World = &hosttest.Scene{Grid: [][]*hosttest.Tile{{
		{TilePaint: &hosttest.Paint{Sw: 1, Se: 1, Ne: 1, Nw: 1, Tex: -1}},
	}}}
	c.Provider = &hosttest.TextureProvider{
		Table: []*hosttest.Texture{hosttest.SolidTexture(4, 0x336699)},
		Gamma: 0.8,
	}
	return c
}

func startEngine(t *testing.T, c *hosttest.Client, options ...EngineBuilderOption) (*engine, *fakeBackend) {
	t.Helper()
	b := newFakeBackend()
	options = append([]EngineBuilderOption{WithBackend(b), WithLogger(discardLogger())}, options...)
	e := NewEngine(c, options...).(*engine)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Stop)
	return e, b
}

// drawVisible draws m in front of a level camera.
func drawVisible(e Engine, m host.Renderable) {
	one := common.FixedOne
	e.Draw(m, 0, 0, one, 0, one, 0, 0, 1000, 1)
}

func TestNewEngineWithoutBackendPanics(t *testing.T) {
	assert.Panics(t, func() { NewEngine(hosttest.NewClient(10, 10)) })
}

func TestStartUploadsScene(t *testing.T) {
	e, b := startEngine(t, testClient())

	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, []string{"init", "upload scene"}, b.calls)
	assert.True(t, e.sceneUploaded)

	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, 1, b.count("init"), "start is a no-op while running")
}

func TestStartWhileLoadingDefersSceneUpload(t *testing.T) {
	c := testClient()
	c.State = host.GameStateLoading
	e, b := startEngine(t, c)
	assert.Equal(t, 0, b.count("upload scene"))

	e.OnGameStateChanged(host.GameStateLoggedIn)
	assert.Equal(t, 1, b.count("upload scene"))
	assert.True(t, e.sceneUploaded)
}

func TestDrawFrameBeforeStart(t *testing.T) {
	e := NewEngine(testClient(), WithBackend(newFakeBackend()), WithLogger(discardLogger()))
	assert.ErrorIs(t, e.DrawFrame(context.Background()), ErrNotStarted)
}

func TestDrawFrameCancelledContext(t *testing.T) {
	e, b := startEngine(t, testClient())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, e.DrawFrame(ctx), context.Canceled)
	assert.Equal(t, 0, b.count("upload frame"))
}

func TestFrameSequence(t *testing.T) {
	c := testClient()
	e, b := startEngine(t, c)
	b.calls = nil

	e.DrawScene(0, 0, 0, 0, 0, 0)
	assert.Equal(t, StateClassifying, e.State())
	drawVisible(e, hosttest.NewTriangleModel(10))
	require.NoError(t, e.DrawFrame(context.Background()))

	assert.Equal(t, []string{
		"configure target",
		"upload frame",
		"compact",
		"barrier",
		"upload textures",
		"draw scene",
		"composite",
		"release frame",
	}, b.calls)
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, 1, c.Clickboxes)
}

func TestFrameBuckets(t *testing.T) {
	c := testClient()
	c.Camera = [3]int{100, 0, 200}
	e, b := startEngine(t, c)

	small := hosttest.NewTriangleModel(10)
	large := hosttest.NewTriangleModel(600)
	paint := &hosttest.Paint{Geometry: hosttest.Geometry{Offset: 0, UVOffset: classifier.NoUV, Len: 6}, Tex: -1}

	e.DrawScene(0, 0, 0, 0, 0, 0)
	e.DrawScenePaint(0, 0, 0, 0, 0, 0, 0, 0, paint, 0, 2, 3, 0, 0, 0)
	drawVisible(e, small)
	drawVisible(e, large)

	require.Len(t, e.classifier.Descriptors(classifier.Small), 1)
	d := e.classifier.Descriptors(classifier.Small)[0]
	assert.Equal(t, int32(100), d.X)
	assert.Equal(t, int32(1000+200), d.Z)
	assert.False(t, d.Flags.SceneBuffer)

	require.NoError(t, e.DrawFrame(context.Background()))

	require.Len(t, b.uploads, 1)
	up := b.uploads[0]
	assert.Equal(t, 6+30+1800, up.VertexCount)
	assert.Len(t, up.Descriptors[classifier.Unordered], classifier.DescriptorSize)
	assert.Len(t, up.Descriptors[classifier.Small], classifier.DescriptorSize)
	assert.Len(t, up.Descriptors[classifier.Large], classifier.DescriptorSize)
	assert.Len(t, up.TempVertices, (30+1800)*4*4)
	assert.NotEmpty(t, up.CameraHeader)

	assert.Equal(t, [][classifier.BucketCount]int{{1, 1, 1}}, b.compacts)
	require.Len(t, b.draws, 1)
	assert.Equal(t, up.VertexCount, b.draws[0].VertexCount)
	assert.InDelta(t, 0.8, b.draws[0].Uniforms.Brightness, 1e-6)
}

func TestMaxTrianglesOption(t *testing.T) {
	e, b := startEngine(t, testClient(), WithMaxTriangles(100))

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, hosttest.NewTriangleModel(600))
	require.NoError(t, e.DrawFrame(context.Background()))

	require.Len(t, b.uploads, 1)
	assert.Equal(t, 3*100, b.uploads[0].VertexCount)
	assert.Equal(t, [][classifier.BucketCount]int{{0, 1, 0}}, b.compacts)
}

func TestResidentModelDrawnFromSceneBuffer(t *testing.T) {
	c := testClient()
	static := hosttest.NewTriangleModel(4)
	c.World = &hosttest.Scene{Grid: [][]*hosttest.Tile{{{Static: []host.Model{static}}}}}
	e, _ := startEngine(t, c)
	require.Equal(t, e.uploader.SceneID(), static.SceneID())

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, static)
	require.Len(t, e.classifier.Descriptors(classifier.Small), 1)
	d := e.classifier.Descriptors(classifier.Small)[0]
	assert.True(t, d.Flags.SceneBuffer)
	assert.Equal(t, int32(static.BufferOffset()), d.VertexOffset)
	assert.Equal(t, 0, e.classifier.TempVertices().Len())

	stale := hosttest.NewTriangleModel(4)
	stale.SetSceneID(e.uploader.SceneID() + 1)
	drawVisible(e, stale)
	require.Len(t, e.classifier.Descriptors(classifier.Small), 2)
	assert.False(t, e.classifier.Descriptors(classifier.Small)[1].Flags.SceneBuffer)
}

func TestInvisibleModelIsCulled(t *testing.T) {
	c := testClient()
	e, _ := startEngine(t, c)
	m := hosttest.NewTriangleModel(3)

	one := common.FixedOne
	e.DrawScene(0, 0, 0, 0, 0, 0)
	e.Draw(m, 0, 0, one, 0, one, 0, 0, 10, 1)

	assert.Zero(t, e.classifier.TargetBufferOffset())
	assert.Zero(t, c.Clickboxes)
	assert.Equal(t, []int{0}, m.Extremes)
}

func TestDrawablesIgnoredOutsideClassifying(t *testing.T) {
	e, _ := startEngine(t, testClient())
	drawVisible(e, hosttest.NewTriangleModel(3))
	assert.Zero(t, e.classifier.TargetBufferOffset())
}

func TestFrameResetAfterSuccess(t *testing.T) {
	e, b := startEngine(t, testClient())

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, hosttest.NewTriangleModel(10))
	require.NoError(t, e.DrawFrame(context.Background()))

	assert.Zero(t, e.classifier.TargetBufferOffset())
	assert.Zero(t, e.classifier.Count(classifier.Small))
	assert.Equal(t, 1, b.count("release frame"))
}

func TestFrameResetAfterError(t *testing.T) {
	c := testClient()
	e, b := startEngine(t, c)
	boom := errors.New("boom")
	b.fail["compact"] = boom

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, hosttest.NewTriangleModel(10))
	err := e.DrawFrame(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateReady, e.State())
	assert.False(t, e.Disabled())
	assert.Empty(t, c.Disabled)
	assert.Zero(t, e.classifier.TargetBufferOffset())
	assert.Equal(t, 1, b.count("release frame"))
	assert.Equal(t, 0, b.count("draw scene"))

	delete(b.fail, "compact")
	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	assert.Equal(t, 1, b.count("composite"))
}

func TestDeviceLostDisablesEngine(t *testing.T) {
	c := testClient()
	e, b := startEngine(t, c)
	require.NotNil(t, e.textures)
	b.fail["composite"] = fmt.Errorf("present: %w", renderer.ErrDeviceLost)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	err := e.DrawFrame(context.Background())

	require.ErrorIs(t, err, renderer.ErrDeviceLost)
	assert.Equal(t, StateDisabled, e.State())
	assert.True(t, e.Disabled())
	require.Len(t, c.Disabled, 1)
	assert.ErrorIs(t, c.Disabled[0], renderer.ErrDeviceLost)
	assert.Equal(t, 1, b.count("release"))
	assert.Nil(t, e.textures, "texture workers stopped on disable")

	assert.ErrorIs(t, e.DrawFrame(context.Background()), ErrDisabled)
	assert.ErrorIs(t, e.Start(context.Background()), ErrDisabled)
	e.DrawScene(0, 0, 0, 0, 0, 0)
	assert.Equal(t, StateDisabled, e.State())
	assert.Len(t, c.Disabled, 1)

	e.Stop()
	assert.Nil(t, e.textures)
}

func TestShaderBuildErrorAtInitDisablesEngine(t *testing.T) {
	c := testClient()
	b := newFakeBackend()
	b.fail["init"] = &shader.BuildError{Kind: shader.CompileFailed, Key: "scene", Err: errors.New("bad token")}
	e := NewEngine(c, WithBackend(b), WithLogger(discardLogger()))

	err := e.Start(context.Background())
	var be *shader.BuildError
	require.ErrorAs(t, err, &be)
	assert.True(t, e.Disabled())
	assert.Len(t, c.Disabled, 1)
}

func TestSkipsFrameWhileLoading(t *testing.T) {
	c := testClient()
	e, b := startEngine(t, c)
	c.State = host.GameStateLoading

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, hosttest.NewTriangleModel(10))
	require.NoError(t, e.DrawFrame(context.Background()))

	assert.Empty(t, b.uploads)
	assert.Equal(t, 1, b.count("release frame"))
	assert.Zero(t, e.classifier.TargetBufferOffset())
	assert.Equal(t, StateReady, e.State())
}

func TestNoTextureProviderSkipsCompaction(t *testing.T) {
	c := testClient()
	c.Provider = nil
	e, b := startEngine(t, c)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	drawVisible(e, hosttest.NewTriangleModel(10))
	require.NoError(t, e.DrawFrame(context.Background()))

	assert.Empty(t, b.compacts)
	require.Len(t, b.draws, 1)
	assert.Zero(t, b.draws[0].VertexCount)
	assert.InDelta(t, 1.0, b.draws[0].Uniforms.Brightness, 1e-6)
	assert.Equal(t, 1, b.count("composite"))
}

func TestTextureArrayRetriedUntilLoaded(t *testing.T) {
	c := testClient()
	pending := &hosttest.Texture{}
	c.Provider = &hosttest.TextureProvider{Table: []*hosttest.Texture{pending}, Gamma: 1}
	e, b := startEngine(t, c)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	assert.Empty(t, b.textureArrays)
	assert.Equal(t, 1, b.count("draw scene"))

	pending.Data = hosttest.SolidTexture(4, 0x112233).Data
	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	require.Len(t, b.textureArrays, 1)
	assert.Equal(t, uint32(1), b.textureArrays[0].Layers)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	assert.Len(t, b.textureArrays, 1)
}

func TestSceneTargetSamples(t *testing.T) {
	cfg := config.Default()
	cfg.AntiAliasing = config.AntiAliasingMSAA16
	src := &mutableConfig{cfg: cfg}
	e, b := startEngine(t, testClient(), WithConfig(src))

	frame := func() {
		e.DrawScene(0, 0, 0, 0, 0, 0)
		require.NoError(t, e.DrawFrame(context.Background()))
	}

	frame()
	frame()
	require.Len(t, b.targets, 1, "unchanged target is not recreated")
	assert.Equal(t, [3]int{512, 334, 8}, b.targets[0])

	src.cfg.AntiAliasing = config.AntiAliasingMSAA2
	frame()
	require.Len(t, b.targets, 2)
	assert.Equal(t, 2, b.targets[1][2])

	src.cfg.AntiAliasing = config.AntiAliasingDisabled
	frame()
	require.Len(t, b.targets, 3)
	assert.Equal(t, 1, b.targets[2][2])
}

func TestUniformsFollowConfig(t *testing.T) {
	cfg := config.Config{DrawDistance: 150, FogDepth: 10, SmoothBanding: true}
	c := testClient()
	c.Sky = 0xFF0000
	e, b := startEngine(t, c, WithConfig(config.Static(cfg)))

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))

	require.Len(t, b.draws, 1)
	u := b.draws[0].Uniforms
	assert.Equal(t, int32(config.MaxDrawDistance*classifier.TileSize), u.DrawDistance)
	assert.True(t, u.UseFog)
	assert.Equal(t, int32(10), u.FogDepth)
	assert.Zero(t, u.SmoothBanding)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, u.FogColor)
	assert.Equal(t, [4]float32{1, 0, 0, 1}, b.draws[0].Clear)
	assert.Equal(t, common.Rect{Width: 512, Height: 334}, b.draws[0].Viewport)
}

func TestUILayerReallocatedOnResize(t *testing.T) {
	c := testClient()
	e, b := startEngine(t, c)
	frame := func() {
		e.DrawScene(0, 0, 0, 0, 0, 0)
		require.NoError(t, e.DrawFrame(context.Background()))
	}

	frame()
	frame()
	c.UI = make([]int32, 100*50)
	c.UISize = [2]int{100, 50}
	frame()

	require.Len(t, b.layers, 3)
	assert.True(t, b.layers[0].Realloc)
	assert.False(t, b.layers[1].Realloc)
	assert.True(t, b.layers[2].Realloc)
	assert.Len(t, b.layers[2].Pixels, 100*50*4)
	assert.False(t, b.layers[2].Nearest)
}

func TestStretchedFrame(t *testing.T) {
	c := testClient()
	c.Stretched = true
	c.StretchedNearest = true
	c.StretchedSize = [2]int{1024, 668}
	e, b := startEngine(t, c)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))

	assert.Equal(t, [3]int{1024, 668, 1}, b.targets[0])
	assert.Equal(t, common.Rect{X: -1, Y: -1, Width: 1026, Height: 670}, b.draws[0].Viewport)
	assert.True(t, b.layers[0].Nearest)
	assert.Equal(t, common.Rect{Width: 1024, Height: 668}, b.layers[0].Viewport)
}

func TestSurfaceChangeRebuildsRenderer(t *testing.T) {
	s := &fakeSurface{id: 1}
	e, b := startEngine(t, testClient(), WithWindow(s))

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))

	s.id = 2
	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	assert.Equal(t, 1, b.count("release"))
	assert.Equal(t, 2, b.count("init"))
	assert.Equal(t, 2, b.count("upload scene"))
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, uint64(2), e.surfaceID)

	e.DrawScene(0, 0, 0, 0, 0, 0)
	require.NoError(t, e.DrawFrame(context.Background()))
	assert.Len(t, b.targets, 2, "the new renderer gets a fresh scene target")
}

func TestResizeForwardedWhileRunning(t *testing.T) {
	s := &fakeSurface{id: 1}
	b := newFakeBackend()
	e := NewEngine(testClient(), WithBackend(b), WithWindow(s), WithLogger(discardLogger()))
	require.NotNil(t, s.resize)

	s.resize(800, 600)
	assert.Empty(t, b.resizes)

	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(e.Stop)
	s.resize(800, 600)
	assert.Equal(t, [][2]int{{800, 600}}, b.resizes)
}

func TestStopAndRestart(t *testing.T) {
	e, b := startEngine(t, testClient())
	e.Stop()
	assert.Equal(t, StateUninitialized, e.State())
	assert.Equal(t, 1, b.count("release"))
	assert.ErrorIs(t, e.DrawFrame(context.Background()), ErrNotStarted)

	require.NoError(t, e.Start(context.Background()))
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, 2, b.count("init"))
}

// mutableConfig is a config.Source tests can change between frames.
type mutableConfig struct {
	cfg config.Config
}

func (m *mutableConfig) Current() config.Config { return m.cfg }
