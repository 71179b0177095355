package engine

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/camera"
	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/compaction"
	"github.com/Carmen-Shannon/oxy-gpu/engine/model"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline keys of the render programs. The compaction programs use compaction.Stage.PipelineKey.
const (
	ScenePipelineKey = "scene"
	BlitPipelineKey  = "blit"
	UIPipelineKey    = "ui"
)

// Bindings of the compaction program's group 1.
const (
	bindDescriptors = iota
	bindSceneVertices
	bindTempVertices
	bindOutVertices
	bindOutUVs
	bindSceneUVs
	bindTempUVs
)

// Bindings of the scene program's group 0, and of every texture group.
const (
	bindCamera = 0
	bindFrame  = 1

	bindTexture = 0
	bindSampler = 1
)

// gpuFrame holds the resources of one frame, released by ReleaseFrame.
type gpuFrame struct {
	tempVertices, tempUVs *wgpu.Buffer
	outVertices, outUVs   *wgpu.Buffer
	compact               [classifier.BucketCount]bind_group_provider.BindGroupProvider
	frameOpen             bool
	computeOpen           bool
}

// gpuBackend is the Backend implementation on top of the WebGPU renderer.
type gpuBackend struct {
	surface         renderer.SurfaceSource
	rendererOptions []renderer.RendererBuilderOption
	loader          shader.Loader
	dispatcher      compaction.Dispatcher

	renderer renderer.Renderer

	// camera is the compaction's view of the uniform block; sceneFrame borrows its buffer.
	camera     bind_group_provider.BindGroupProvider
	sceneFrame bind_group_provider.BindGroupProvider
	textures   bind_group_provider.BindGroupProvider
	blit       bind_group_provider.BindGroupProvider
	uiLinear   bind_group_provider.BindGroupProvider
	uiNearest  bind_group_provider.BindGroupProvider

	textureArrayReady bool
	uiWidth, uiHeight int

	sceneVertices, sceneUVs *wgpu.Buffer

	frame gpuFrame
}

var _ Backend = &gpuBackend{}

// errNoSurface is returned by Init when the window has no surface yet.
var errNoSurface = errors.New("window has no surface")

// NewGPUBackend creates a Backend that renders into the given surface. No GPU object exists until Init.
//
// Parameters:
//   - surface: the window to present into
//   - options: functional options to configure the backend
//
// Returns:
//   - Backend: the backend
func NewGPUBackend(surface renderer.SurfaceSource, options ...GPUBackendOption) Backend {
	b := &gpuBackend{
		surface:    surface,
		loader:     shader.NewLoader(shader.Assets()),
		dispatcher: compaction.NewDispatcher(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *gpuBackend) Init() error {
	if b.surface == nil || b.surface.SurfaceDescriptor() == nil {
		return errNoSurface
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, b.surface, b.rendererOptions...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	b.renderer = r

	pipelines, err := b.buildPipelines()
	if err != nil {
		b.Release()
		return err
	}
	if err := r.RegisterPipelines(pipelines...); err != nil {
		b.Release()
		return err
	}
	if err := b.initUniforms(); err != nil {
		b.Release()
		return fmt.Errorf("init uniforms: %w", err)
	}
	if err := b.initTextures(); err != nil {
		b.Release()
		return fmt.Errorf("init textures: %w", err)
	}
	if err := b.initBlit(); err != nil {
		b.Release()
		return fmt.Errorf("init scene blit: %w", err)
	}
	return nil
}

// buildPipelines loads every program: one compaction program per stage, the scene program and the
// two composite programs.
func (b *gpuBackend) buildPipelines() ([]pipeline.Pipeline, error) {
	var out []pipeline.Pipeline
	for _, s := range compaction.Stages() {
		cs, err := s.LoadShader(b.loader)
		if err != nil {
			return nil, err
		}
		out = append(out, pipeline.NewPipeline(s.PipelineKey, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(cs)))
	}

	load := func(key string, t shader.ShaderType, name string) (shader.Shader, error) {
		return shader.LoadShader(b.loader, key, t, name, nil)
	}
	sceneVert, err := load("scene vertex", shader.ShaderTypeVertex, shader.SceneVertSource)
	if err != nil {
		return nil, err
	}
	sceneFrag, err := load("scene fragment", shader.ShaderTypeFragment, shader.SceneFragSource)
	if err != nil {
		return nil, err
	}
	quadVert, err := load("quad vertex", shader.ShaderTypeVertex, shader.UIVertSource)
	if err != nil {
		return nil, err
	}
	quadFrag, err := load("quad fragment", shader.ShaderTypeFragment, shader.UIFragSource)
	if err != nil {
		return nil, err
	}

	out = append(out,
		pipeline.NewPipeline(ScenePipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(sceneVert),
			pipeline.WithFragmentShader(sceneFrag),
			pipeline.WithTarget(pipeline.TargetScene),
			pipeline.WithBlendEnabled(true),
			pipeline.WithBlendState(pipeline.AlphaBlend()),
			pipeline.WithCullMode(wgpu.CullModeNone),
		),
		pipeline.NewPipeline(BlitPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(quadVert),
			pipeline.WithFragmentShader(quadFrag),
		),
		pipeline.NewPipeline(UIPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(quadVert),
			pipeline.WithFragmentShader(quadFrag),
			pipeline.WithBlendEnabled(true),
			pipeline.WithBlendState(pipeline.PremultipliedBlend()),
		),
	)
	return out, nil
}

// layout returns one group's layout descriptor of a registered pipeline.
func (b *gpuBackend) layout(key string, group int) (wgpu.BindGroupLayoutDescriptor, error) {
	p := b.renderer.Pipeline(key)
	if p == nil {
		return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("pipeline %q not registered", key)
	}
	layouts, err := p.LayoutDescriptors()
	if err != nil {
		return wgpu.BindGroupLayoutDescriptor{}, err
	}
	desc, ok := layouts[group]
	if !ok {
		return wgpu.BindGroupLayoutDescriptor{}, fmt.Errorf("pipeline %q has no group %d", key, group)
	}
	return desc, nil
}

// initUniforms creates the camera block with its trig table and the scene's frame uniforms.
func (b *gpuBackend) initUniforms() error {
	cameraLayout, err := b.layout(compaction.StageFor(classifier.Unordered).PipelineKey, 0)
	if err != nil {
		return err
	}
	b.camera = bind_group_provider.NewBindGroupProvider("camera")
	if err := b.renderer.InitBindGroup(b.camera, cameraLayout, nil, map[int]uint64{bindCamera: camera.UniformSize}); err != nil {
		return err
	}
	b.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.camera,
		Binding:  bindCamera,
		Offset:   camera.HeaderSize,
		Data:     camera.TrigTable(),
	}})

	frameLayout, err := b.layout(ScenePipelineKey, 0)
	if err != nil {
		return err
	}
	b.sceneFrame = bind_group_provider.NewBindGroupProvider("scene frame",
		bind_group_provider.WithBorrowedBuffer(bindCamera, b.camera.Buffer(bindCamera)),
	)
	return b.renderer.InitBindGroup(b.sceneFrame, frameLayout, nil, map[int]uint64{bindFrame: FrameUniformSize})
}

// initTextures binds a single transparent layer until the real array is uploaded, so the scene
// program always has a complete group 1.
func (b *gpuBackend) initTextures() error {
	b.textures = bind_group_provider.NewBindGroupProvider("textures")
	b.textureArrayReady = false
	placeholder := common.TextureStagingData{
		Pixels: make([]byte, 4),
		Width:  1,
		Height: 1,
		Layers: 1,
	}
	if err := b.renderer.InitTextureView(b.textures, bindTexture, placeholder); err != nil {
		return err
	}
	if err := b.renderer.InitSampler(b.textures, bindSampler, common.SamplerStagingData{}); err != nil {
		return err
	}
	return b.bindTextures()
}

func (b *gpuBackend) bindTextures() error {
	desc, err := b.layout(ScenePipelineKey, 1)
	if err != nil {
		return err
	}
	return b.renderer.InitBindGroup(b.textures, desc, nil, nil)
}

// initBlit creates the samplers of the composite programs. Their bind groups are created once the
// scene target and the UI texture exist.
func (b *gpuBackend) initBlit() error {
	clampEdge := common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
	}
	nearest := clampEdge
	nearest.MagFilter = wgpu.FilterModeNearest
	nearest.MinFilter = wgpu.FilterModeNearest
	nearest.MipmapFilter = wgpu.MipmapFilterModeNearest

	b.blit = bind_group_provider.NewBindGroupProvider("scene blit")
	b.uiLinear = bind_group_provider.NewBindGroupProvider("ui linear")
	b.uiNearest = bind_group_provider.NewBindGroupProvider("ui nearest")
	if err := b.renderer.InitSampler(b.blit, bindSampler, nearest); err != nil {
		return err
	}
	if err := b.renderer.InitSampler(b.uiLinear, bindSampler, clampEdge); err != nil {
		return err
	}
	return b.renderer.InitSampler(b.uiNearest, bindSampler, nearest)
}

func (b *gpuBackend) MaxSampleCount() uint32 {
	if b.renderer == nil {
		return 1
	}
	return b.renderer.MaxSampleCount()
}

func (b *gpuBackend) Resize(width, height int) {
	if b.renderer != nil {
		b.renderer.Resize(width, height)
	}
}

func (b *gpuBackend) ConfigureSceneTarget(width, height int, samples uint32) error {
	if err := b.renderer.ConfigureSceneTarget(width, height, samples); err != nil {
		return err
	}
	b.blit.BorrowTextureView(bindTexture, b.renderer.SceneTargetView())
	desc, err := b.layout(BlitPipelineKey, 0)
	if err != nil {
		return err
	}
	return b.renderer.InitBindGroup(b.blit, desc, nil, nil)
}

func (b *gpuBackend) UploadScene(vertices, uvs []byte) error {
	b.releaseSceneBuffers()

	var err error
	b.sceneVertices, err = b.renderer.CreateBuffer("scene vertices", wgpu.BufferUsageStorage, vertices, model.VertexSize)
	if err != nil {
		return err
	}
	b.sceneUVs, err = b.renderer.CreateBuffer("scene uvs", wgpu.BufferUsageStorage, uvs, model.UVSize)
	if err != nil {
		b.releaseSceneBuffers()
		return err
	}
	return nil
}

func (b *gpuBackend) releaseSceneBuffers() {
	for _, buf := range []*wgpu.Buffer{b.sceneVertices, b.sceneUVs} {
		if buf != nil {
			buf.Release()
		}
	}
	b.sceneVertices, b.sceneUVs = nil, nil
}

func (b *gpuBackend) TextureArrayReady() bool {
	return b.textureArrayReady
}

func (b *gpuBackend) UploadTextureArray(data common.TextureStagingData) error {
	if err := b.renderer.InitTextureView(b.textures, bindTexture, data); err != nil {
		return err
	}
	if err := b.bindTextures(); err != nil {
		return err
	}
	b.textureArrayReady = true
	return nil
}

func (b *gpuBackend) UploadFrame(f FrameUpload) error {
	b.ReleaseFrame()

	b.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.camera,
		Binding:  bindCamera,
		Data:     f.CameraHeader,
	}})

	storage := wgpu.BufferUsageStorage
	output := wgpu.BufferUsageStorage | wgpu.BufferUsageVertex
	outSize := uint64(max(f.VertexCount, 1)) * model.VertexSize

	var err error
	if b.frame.tempVertices, err = b.renderer.CreateBuffer("temp vertices", storage, f.TempVertices, model.VertexSize); err != nil {
		return err
	}
	if b.frame.tempUVs, err = b.renderer.CreateBuffer("temp uvs", storage, f.TempUVs, model.UVSize); err != nil {
		return err
	}
	if b.frame.outVertices, err = b.renderer.CreateBuffer("out vertices", output, nil, outSize); err != nil {
		return err
	}
	if b.frame.outUVs, err = b.renderer.CreateBuffer("out uvs", output, nil, outSize); err != nil {
		return err
	}

	for _, s := range compaction.Stages() {
		desc, err := b.layout(s.PipelineKey, 1)
		if err != nil {
			return err
		}
		descriptors, err := b.renderer.CreateBuffer(s.Label+" descriptors", storage, f.Descriptors[s.Bucket], classifier.DescriptorSize)
		if err != nil {
			return err
		}
		p := bind_group_provider.NewBindGroupProvider(s.Label,
			bind_group_provider.WithBuffer(bindDescriptors, descriptors),
			bind_group_provider.WithBorrowedBuffer(bindTempVertices, b.frame.tempVertices),
			bind_group_provider.WithBorrowedBuffer(bindOutVertices, b.frame.outVertices),
			bind_group_provider.WithBorrowedBuffer(bindOutUVs, b.frame.outUVs),
			bind_group_provider.WithBorrowedBuffer(bindTempUVs, b.frame.tempUVs),
		)
		b.frame.compact[s.Bucket] = p
		// Without a scene the provider creates small placeholders; no descriptor reads them.
		if b.sceneVertices != nil {
			p.BorrowBuffer(bindSceneVertices, b.sceneVertices)
			p.BorrowBuffer(bindSceneUVs, b.sceneUVs)
		}
		if err := b.renderer.InitBindGroup(p, desc, nil, nil); err != nil {
			return fmt.Errorf("%s bind group: %w", s.Label, err)
		}
	}
	return nil
}

func (b *gpuBackend) Compact(counts [classifier.BucketCount]int) error {
	if err := b.renderer.BeginComputeFrame(); err != nil {
		return err
	}
	b.frame.computeOpen = true

	bindings := compaction.Bindings{Camera: b.camera, Buckets: b.frame.compact}
	if _, err := b.dispatcher.Encode(b.renderer, bindings, counts); err != nil {
		return err
	}
	b.frame.computeOpen = false
	return b.renderer.EndComputeFrame()
}

func (b *gpuBackend) Barrier() {
	b.renderer.Barrier()
}

func (b *gpuBackend) DrawScene(d SceneDraw) error {
	if err := b.renderer.BeginFrame(); err != nil {
		return err
	}
	b.frame.frameOpen = true

	clear := wgpu.Color{R: float64(d.Clear[0]), G: float64(d.Clear[1]), B: float64(d.Clear[2]), A: float64(d.Clear[3])}
	if err := b.renderer.BeginPass(pipeline.TargetScene, clear); err != nil {
		return err
	}
	defer b.renderer.EndPass()

	if d.VertexCount == 0 || b.frame.outVertices == nil {
		return nil
	}
	b.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: b.sceneFrame,
		Binding:  bindFrame,
		Data:     d.Uniforms.Marshal(),
	}})
	b.renderer.SetViewport(d.Viewport)
	return b.renderer.Draw(ScenePipelineKey,
		[]*wgpu.Buffer{b.frame.outVertices, b.frame.outUVs},
		uint32(d.VertexCount),
		[]bind_group_provider.BindGroupProvider{b.sceneFrame, b.textures},
	)
}

func (b *gpuBackend) Composite(ui UILayer) error {
	if err := b.uploadUI(ui); err != nil {
		return err
	}

	if err := b.renderer.BeginPass(pipeline.TargetSurface, wgpu.Color{A: 1}); err != nil {
		return err
	}
	b.renderer.SetViewport(ui.Viewport)
	if err := b.renderer.Draw(BlitPipelineKey, nil, 6, []bind_group_provider.BindGroupProvider{b.blit}); err != nil {
		b.renderer.EndPass()
		return err
	}
	if ui.Width > 0 && ui.Height > 0 {
		layer := b.uiLinear
		if ui.Nearest {
			layer = b.uiNearest
		}
		if err := b.renderer.Draw(UIPipelineKey, nil, 6, []bind_group_provider.BindGroupProvider{layer}); err != nil {
			b.renderer.EndPass()
			return err
		}
	}
	b.renderer.EndPass()

	b.frame.frameOpen = false
	if err := b.renderer.EndFrame(); err != nil {
		return err
	}
	b.renderer.Present()
	return nil
}

// uploadUI copies the layer into the UI texture, recreating it and both of its bind groups when the size changed.
func (b *gpuBackend) uploadUI(ui UILayer) error {
	if ui.Width <= 0 || ui.Height <= 0 {
		return nil
	}
	staging := common.TextureStagingData{
		Pixels: ui.Pixels,
		Width:  uint32(ui.Width),
		Height: uint32(ui.Height),
		Format: wgpu.TextureFormatBGRA8Unorm,
	}
	if !ui.Realloc && ui.Width == b.uiWidth && ui.Height == b.uiHeight {
		return b.renderer.WriteTexture(b.uiLinear, bindTexture, staging, common.Rect{Width: ui.Width, Height: ui.Height})
	}

	if err := b.renderer.InitTextureView(b.uiLinear, bindTexture, staging); err != nil {
		return err
	}
	b.uiNearest.BorrowTextureView(bindTexture, b.uiLinear.TextureView(bindTexture))
	desc, err := b.layout(UIPipelineKey, 0)
	if err != nil {
		return err
	}
	if err := b.renderer.InitBindGroup(b.uiLinear, desc, nil, nil); err != nil {
		return err
	}
	if err := b.renderer.InitBindGroup(b.uiNearest, desc, nil, nil); err != nil {
		return err
	}
	b.uiWidth, b.uiHeight = ui.Width, ui.Height
	return nil
}

func (b *gpuBackend) ReleaseFrame() {
	if b.renderer != nil {
		if b.frame.computeOpen {
			_ = b.renderer.EndComputeFrame()
		}
		if b.frame.frameOpen {
			b.renderer.EndPass()
			_ = b.renderer.EndFrame()
		}
	}
	for _, p := range b.frame.compact {
		if p != nil {
			p.Release()
		}
	}
	for _, buf := range []*wgpu.Buffer{b.frame.tempVertices, b.frame.tempUVs, b.frame.outVertices, b.frame.outUVs} {
		if buf != nil {
			buf.Release()
		}
	}
	b.frame = gpuFrame{}
}

func (b *gpuBackend) Release() {
	b.ReleaseFrame()
	b.releaseSceneBuffers()
	// sceneFrame borrows the camera buffer, so it goes first.
	for _, p := range []bind_group_provider.BindGroupProvider{b.sceneFrame, b.camera, b.textures, b.blit, b.uiNearest, b.uiLinear} {
		if p != nil {
			p.Release()
		}
	}
	b.sceneFrame, b.camera, b.textures, b.blit, b.uiNearest, b.uiLinear = nil, nil, nil, nil, nil, nil
	b.textureArrayReady = false
	b.uiWidth, b.uiHeight = 0, 0
	if b.renderer != nil {
		b.renderer.Release()
		b.renderer = nil
	}
}
