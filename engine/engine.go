package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/host"
	"github.com/Carmen-Shannon/oxy-gpu/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-gpu/engine/scene"
	"github.com/Carmen-Shannon/oxy-gpu/engine/texture"
	"github.com/Carmen-Shannon/oxy-gpu/engine/visibility"
)

var (
	// ErrDisabled is returned by every frame operation once a fatal error disabled the engine.
	ErrDisabled = errors.New("engine: disabled")
	// ErrNotStarted is returned by DrawFrame before Start.
	ErrNotStarted = errors.New("engine: not started")
)

// Surface is the window the engine draws into.
type Surface interface {
	// SurfaceID identifies the native surface. A change means the renderer must be rebuilt.
	SurfaceID() uint64
	// SetResizeCallback registers the function called when the framebuffer is resized.
	SetResizeCallback(callback func(width, height int))
}

// sceneTarget is the configuration the offscreen scene target was last created with.
type sceneTarget struct {
	width, height int
	mode          config.AntiAliasingMode
	samples       uint32
	valid         bool
}

// engine implements the Engine interface.
// All frame methods run on the client's render goroutine, one at a time.
type engine struct {
	client  host.Client
	backend Backend
	surface Surface
	config  config.Source
	logger  *slog.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool
	stopClassify     func()

	classifier        classifier.Classifier
	classifierOptions []classifier.ClassifierBuilderOption
	uploader          scene.Uploader
	textures          texture.Manager

	state         atomic.Int32
	surfaceID     uint64
	sceneUploaded bool

	viewportSize [2]int
	projection   [16]float32
	target       sceneTarget
	uiSize       [2]int
}

// Engine is the frame orchestrator. The client calls the host.DrawCallbacks while it walks its scene,
// then DrawFrame to upload, compact, draw and composite what was collected.
//
// Frame sequence:
//
//	Ready -> Classifying (DrawScene) -> Uploading -> Compacting -> Drawing -> Compositing -> Ready
//
// Frame state is reset after every frame, whether it succeeded or not. A fatal error moves the engine
// to Disabled, releases the GPU and notifies the client through host.Client.OnRendererDisabled.
type Engine interface {
	host.DrawCallbacks

	// Start creates the GPU resources and uploads the scene when the client is already logged in.
	//
	// Parameters:
	//   - ctx: only checked for cancellation before any work starts
	//
	// Returns:
	//   - error: the fatal error that disabled the engine, or ErrDisabled
	Start(ctx context.Context) error

	// Stop releases every resource. Start may be called again afterwards.
	Stop()

	// DrawFrame runs the end-of-frame sequence over the drawables collected since DrawScene.
	//
	// Parameters:
	//   - ctx: only checked for cancellation before any work starts
	//
	// Returns:
	//   - error: the wrapped frame error, ErrDisabled or ErrNotStarted
	DrawFrame(ctx context.Context) error

	// OnGameStateChanged reacts to the client's session state. Logging in uploads the scene.
	//
	// Parameters:
	//   - state: the new state
	OnGameStateChanged(state host.GameState)

	// State returns the orchestrator state.
	State() State

	// Disabled reports whether a fatal error stopped the engine.
	Disabled() bool

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine for a client. A Backend must be supplied with WithBackend.
//
// Parameters:
//   - client: the game client the engine draws for
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine, in StateUninitialized
func NewEngine(client host.Client, options ...EngineBuilderOption) Engine {
	e := &engine{
		client:   client,
		config:   config.Static(config.Default()),
		logger:   slog.Default(),
		uploader: scene.NewUploader(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.backend == nil {
		panic("engine: no backend configured")
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.classifier == nil {
		opts := append([]classifier.ClassifierBuilderOption{classifier.WithFacePusher(e.uploader)}, e.classifierOptions...)
		e.classifier = classifier.NewClassifier(opts...)
	}

	if e.surface != nil {
		e.surface.SetResizeCallback(func(width, height int) {
			if e.State().running() {
				e.backend.Resize(width, height)
			}
		})
	}
	return e
}

func (e *engine) State() State {
	return State(e.state.Load())
}

func (e *engine) setState(s State) {
	e.state.Store(int32(s))
}

func (e *engine) Disabled() bool {
	return e.State() == StateDisabled
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e.State() {
	case StateDisabled:
		return ErrDisabled
	case StateUninitialized:
	default:
		return nil
	}

	if e.textures == nil {
		e.textures = texture.NewManager(texture.WithLogger(e.logger))
	}
	if err := e.backend.Init(); err != nil {
		err = fmt.Errorf("init renderer: %w", err)
		e.disable(err)
		return err
	}
	if e.surface != nil {
		e.surfaceID = e.surface.SurfaceID()
	}
	e.setState(StateReady)
	e.logger.Info("renderer started", "surface", e.surfaceID, "max_samples", e.backend.MaxSampleCount())

	if e.client.GameState() == host.GameStateLoggedIn {
		if err := e.uploadScene(); err != nil {
			e.disable(err)
			return err
		}
	}
	return nil
}

func (e *engine) Stop() {
	if e.State() == StateUninitialized {
		return
	}
	e.teardown()
	e.closeTextures()
	if e.State() != StateDisabled {
		e.setState(StateUninitialized)
	}
	e.logger.Info("renderer stopped")
}

// teardown releases the GPU and forgets everything that lived on it.
func (e *engine) teardown() {
	e.classifier.Reset()
	e.backend.Release()
	e.sceneUploaded = false
	e.target = sceneTarget{}
	e.viewportSize = [2]int{}
	e.uiSize = [2]int{}
	e.stopClassify = nil
}

// closeTextures stops the texture manager's worker pool.
func (e *engine) closeTextures() {
	if e.textures != nil {
		e.textures.Close()
		e.textures = nil
	}
}

// disable moves the engine to its terminal state and notifies the client once.
func (e *engine) disable(err error) {
	if e.State() == StateDisabled {
		return
	}
	e.logger.Error("renderer disabled", "state", e.State(), "error", err)
	e.teardown()
	e.closeTextures()
	e.setState(StateDisabled)
	e.client.OnRendererDisabled(err)
}

// fatal reports whether err leaves the GPU unusable.
func fatal(err error) bool {
	var be *shader.BuildError
	return errors.Is(err, renderer.ErrDeviceLost) || errors.As(err, &be)
}

func (e *engine) OnGameStateChanged(state host.GameState) {
	if state != host.GameStateLoggedIn || !e.State().running() {
		return
	}
	if err := e.uploadScene(); err != nil {
		e.disable(err)
	}
}

// uploadScene copies the client's static geometry into the persistent scene buffers.
func (e *engine) uploadScene() error {
	s := e.client.Scene()
	if s == nil {
		return nil
	}
	stats := e.uploader.Upload(s)
	err := e.backend.UploadScene(e.uploader.Vertices().Bytes(), e.uploader.UVs().Bytes())
	e.uploader.Release()
	if err != nil {
		return fmt.Errorf("upload scene: %w", err)
	}
	e.sceneUploaded = true
	e.logger.Info("scene uploaded",
		"scene_id", stats.SceneID,
		"paints", stats.Paints,
		"tile_models", stats.TileModels,
		"models", stats.Models,
		"vertices", stats.Vertices,
	)
	return nil
}

func (e *engine) DrawScene(cameraX, cameraY, cameraZ, pitch, yaw, plane int) {
	if !e.State().running() {
		return
	}
	// A frame that never reached DrawFrame leaves its drawables behind.
	e.classifier.Reset()
	e.setState(StateClassifying)
	e.stopClassify = e.profiler.Begin(profiler.StageClassify)
}

func (e *engine) DrawScenePaint(orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, paint host.SceneTilePaint, tileZ, tileX, tileY, zoom, centerX, centerY int) {
	if e.State() != StateClassifying || paint == nil {
		return
	}
	e.classifier.AddScenePaint(paint, tileX, tileY)
}

func (e *engine) DrawSceneModel(orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, model host.SceneTileModel, tileZ, tileX, tileY, zoom, centerX, centerY int) {
	if e.State() != StateClassifying || model == nil {
		return
	}
	e.classifier.AddSceneModel(model, tileX, tileY)
}

func (e *engine) Draw(renderable host.Renderable, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, hash int64) {
	if e.State() != StateClassifying || renderable == nil {
		return
	}
	c := e.client

	// Models uploaded with the current scene are drawn from the scene buffer.
	if m, ok := renderable.(host.Model); ok && e.sceneUploaded && m.SceneID() == e.uploader.SceneID() {
		if !e.cull(m, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z, hash) {
			return
		}
		e.classifier.AddSceneResident(m, orientation, x+c.CameraX2(), y+c.CameraY2(), z+c.CameraZ2())
		return
	}

	m := renderable.Model()
	if m == nil {
		return
	}
	if !e.cull(m, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z, hash) {
		return
	}
	e.classifier.AddTemporary(m, orientation, x+c.CameraX2(), y+c.CameraY2(), z+c.CameraZ2())
}

// cull computes the model bounds, tests visibility and lets the client hit-test a visible model.
func (e *engine) cull(m host.Model, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z int, hash int64) bool {
	m.CalculateBoundsCylinder()
	m.CalculateExtreme(orientation)
	bounds := visibility.Bounds{XYZMag: m.XYZMag(), ModelHeight: m.ModelHeight()}
	if !visibility.IsVisible(bounds, e.client.Clip(), pitchSin, pitchCos, yawSin, yawCos, x, y, z) {
		return false
	}
	e.client.CheckClickbox(m, orientation, pitchSin, pitchCos, yawSin, yawCos, x, y, z, hash)
	return true
}

func (e *engine) Animate(t host.Texture, diff int) {
	if e.textures == nil || t == nil {
		return
	}
	e.textures.Animate(t, diff)
}

func (e *engine) DrawFrame(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch e.State() {
	case StateDisabled:
		return ErrDisabled
	case StateUninitialized:
		return ErrNotStarted
	}
	if e.stopClassify != nil {
		e.stopClassify()
		e.stopClassify = nil
	}

	if e.surface != nil {
		if id := e.surface.SurfaceID(); id != e.surfaceID {
			e.logger.Info("surface changed, rebuilding renderer", "from", e.surfaceID, "to", id)
			e.teardown()
			e.setState(StateUninitialized)
			return e.Start(ctx)
		}
	}

	defer e.resetFrame()
	if !e.client.GameState().Drawing() {
		return nil
	}

	if err := e.drawFrame(); err != nil {
		err = fmt.Errorf("draw frame: %w", err)
		if fatal(err) {
			e.disable(err)
			return err
		}
		e.logger.Error("frame failed", "state", e.State(), "error", err)
		return err
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

// resetFrame clears the frame's drawables and buffers. It runs after every frame.
func (e *engine) resetFrame() {
	e.classifier.Reset()
	e.backend.ReleaseFrame()
	if e.State().running() {
		e.setState(StateReady)
	}
}

func (e *engine) drawFrame() error {
	c := e.client
	cfg := e.config.Current().Clamped()

	if w, h := c.ViewportWidth(), c.ViewportHeight(); w != e.viewportSize[0] || h != e.viewportSize[1] {
		e.viewportSize = [2]int{w, h}
		e.projection = common.Projection(w, h, FarPlane)
	}

	sx, sy := c.SurfaceScale()
	viewport := StretchedViewport(c).Scaled(sx, sy)
	if err := e.ensureSceneTarget(viewport.CanvasWidth, viewport.CanvasHeight, cfg.AntiAliasing); err != nil {
		return fmt.Errorf("scene target: %w", err)
	}

	e.setState(StateUploading)
	done := e.profiler.Begin(profiler.StageUpload)
	e.classifier.Flip()
	upload := FrameUpload{
		TempVertices: e.classifier.TempVertices().Bytes(),
		TempUVs:      e.classifier.TempUVs().Bytes(),
		VertexCount:  e.classifier.TargetBufferOffset(),
		CameraHeader: camera.FromClient(c).Header(),
	}
	var counts [classifier.BucketCount]int
	for _, b := range classifier.Buckets {
		upload.Descriptors[b] = classifier.MarshalDescriptors(e.classifier.Descriptors(b))
		counts[b] = e.classifier.Count(b)
	}
	err := e.backend.UploadFrame(upload)
	done()
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	provider := c.TextureProvider()
	brightness := 1.0
	if provider != nil {
		brightness = provider.Brightness()
	}
	uniforms := NewFrameUniforms(cfg, e.projection, c.SkyboxColor(), brightness)

	vertexCount := 0
	if provider != nil && e.sceneUploaded {
		e.setState(StateCompacting)
		done = e.profiler.Begin(profiler.StageCompact)
		err = e.backend.Compact(counts)
		done()
		if err != nil {
			return fmt.Errorf("compact: %w", err)
		}
		e.backend.Barrier()

		if err := e.ensureTextureArray(provider); err != nil {
			return err
		}
		e.textures.Offsets(provider, uniforms.TextureOffsets[:])
		vertexCount = upload.VertexCount
	}

	e.setState(StateDrawing)
	done = e.profiler.Begin(profiler.StageDraw)
	err = e.backend.DrawScene(SceneDraw{
		Uniforms:    uniforms,
		Viewport:    viewport.Rect(),
		Clear:       common.UnpackRGB(c.SkyboxColor()),
		VertexCount: vertexCount,
	})
	done()
	if err != nil {
		return fmt.Errorf("draw scene: %w", err)
	}

	e.setState(StateCompositing)
	done = e.profiler.Begin(profiler.StageComposite)
	err = e.backend.Composite(e.uiLayer(viewport))
	done()
	if err != nil {
		return fmt.Errorf("composite: %w", err)
	}
	return nil
}

// ensureSceneTarget recreates the scene target only when its size or anti-aliasing mode changed.
func (e *engine) ensureSceneTarget(width, height int, mode config.AntiAliasingMode) error {
	t := e.target
	if t.valid && t.width == width && t.height == height && t.mode == mode {
		return nil
	}
	samples := max(min(mode.Samples(), e.backend.MaxSampleCount()), 1)
	if err := e.backend.ConfigureSceneTarget(width, height, samples); err != nil {
		return err
	}
	e.target = sceneTarget{width: width, height: height, mode: mode, samples: samples, valid: true}
	e.logger.Debug("scene target configured", "width", width, "height", height, "mode", mode, "samples", samples)
	return nil
}

// ensureTextureArray uploads the texture array once every texture is loaded. Until then the scene
// is drawn with the placeholder array and the upload is retried next frame.
func (e *engine) ensureTextureArray(provider host.TextureProvider) error {
	if e.backend.TextureArrayReady() {
		return nil
	}
	data, err := e.textures.BuildArray(provider)
	if errors.Is(err, texture.ErrNotReady) {
		e.logger.Debug("textures not loaded yet")
		return nil
	}
	if err != nil {
		return fmt.Errorf("build texture array: %w", err)
	}
	if err := e.backend.UploadTextureArray(data); err != nil {
		return fmt.Errorf("upload texture array: %w", err)
	}
	e.logger.Info("texture array uploaded", "layers", data.LayerCount(), "size", data.Width)
	return nil
}

// uiLayer reads the client's interface pixels. The packed 0xAARRGGBB ints are BGRA8 in memory on
// little-endian hosts, so they are uploaded without conversion.
func (e *engine) uiLayer(viewport Viewport) UILayer {
	c := e.client
	pixels, w, h := c.UIPixels()
	if w <= 0 || h <= 0 || len(pixels) < w*h {
		w, h = 0, 0
	}
	realloc := w != e.uiSize[0] || h != e.uiSize[1]
	e.uiSize = [2]int{w, h}
	return UILayer{
		Pixels:   common.SliceToBytes(pixels[:w*h]),
		Width:    w,
		Height:   h,
		Realloc:  realloc,
		Nearest:  c.StretchedEnabled() && c.StretchedFast(),
		Viewport: viewport.Canvas(),
	}
}
