package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource is the window the renderer presents into.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	maxSampleCount uint32

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines keyed by PipelineKey and draws the scene into an offscreen
// target which is composited onto the surface together with the UI. Each frame runs in the order
// BeginComputeFrame, DispatchCompute, EndComputeFrame, BeginFrame, BeginPass, Draw, EndPass, EndFrame, Present.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines validates and creates the GPU objects of one or more pipelines, then caches
	// them by PipelineKey. A pipeline already registered under its key is replaced and released.
	// Scene pipelines are built for the current scene sample count.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: a *shader.BuildError if validation or creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the surface for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SurfaceFormat returns the color format of the surface and scene target.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// MaxSampleCount returns the highest MSAA sample count the scene target may use, after rounding the
	// configured cap down to a supported count.
	//
	// Returns:
	//   - uint32: the sample count cap
	MaxSampleCount() uint32

	// ConfigureSceneTarget recreates the offscreen scene target. When the sample count changes,
	// every scene pipeline is rebuilt for it.
	//
	// Parameters:
	//   - width, height: the target size in pixels
	//   - samples: the requested sample count, lowered to the nearest supported count within MaxSampleCount
	//
	// Returns:
	//   - error: an error if the target or a pipeline could not be created
	ConfigureSceneTarget(width, height int, samples uint32) error

	// SceneTargetView returns the resolved scene view for compositing.
	//
	// Returns:
	//   - *wgpu.TextureView: the scene view, nil before ConfigureSceneTarget
	SceneTargetView() *wgpu.TextureView

	// CreateBuffer creates a buffer holding data.
	//
	// Parameters:
	//   - label: the debug label
	//   - usage: the buffer usage, CopyDst is always added
	//   - data: the initial contents, may be empty
	//   - minSize: the minimum size in bytes
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(label string, usage wgpu.BufferUsage, data []byte, minSize uint64) (*wgpu.Buffer, error)

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView
	// and InitSampler before calling this method. Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags to OR into the derived usage, keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes to use instead of MinBindingSize, keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a GPU texture from staging data and stores the resulting texture view
	// on the given BindGroupProvider at the specified binding index. Staging data with Layers set
	// produces an array view. Must be called before InitBindGroup for any texture bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data and dimensions for the texture
	//
	// Returns:
	//   - error: an error if texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteTexture copies a region of stagingData into an existing texture.
	//
	// Parameters:
	//   - provider: the provider holding the texture
	//   - bindingKey: the binding index of the texture
	//   - stagingData: the full-size pixel data
	//   - rect: the region to copy
	//
	// Returns:
	//   - error: an error if no texture is bound at bindingKey
	WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData, rect common.Rect) error

	// InitSampler creates a GPU sampler from staging data and stores it on the given BindGroupProvider
	// at the specified binding index. Must be called before InitBindGroup for any sampler bindings.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame creates a single command encoder for batching all compute dispatches
	// within a frame into one GPU submission.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute looks up the cached compute Pipeline by key and encodes a compute pass
	// within the current compute frame.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached compute Pipeline to use
	//   - bindGroups: the providers bound at group 0, 1, ...
	//   - x, y, z: the number of workgroups in each dimension
	//
	// Returns:
	//   - error: an error if the pipeline is not registered
	DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, x, y, z uint32) error

	// EndComputeFrame submits the compute frame.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndComputeFrame() error

	// Barrier orders the compute frame's writes before the render frame's reads. Compute work is
	// submitted ahead of the render encoder, so queue order already provides this.
	Barrier()

	// BeginFrame creates the render command encoder for the frame.
	//
	// Returns:
	//   - error: an error if the previous frame is still pending
	BeginFrame() error

	// BeginPass begins a render pass on target cleared to clear.
	//
	// Parameters:
	//   - target: pipeline.TargetScene or pipeline.TargetSurface
	//   - clear: the clear color
	//
	// Returns:
	//   - error: ErrDeviceLost on repeated surface loss, or another acquisition error
	BeginPass(target pipeline.Target, clear wgpu.Color) error

	// SetViewport maps the current pass onto rect. The viewport is kept whole and drawing is scissored
	// to the part inside the attachment.
	//
	// Parameters:
	//   - rect: the viewport in pixels
	SetViewport(rect common.Rect)

	// Draw encodes a non-indexed draw of vertexCount vertices in the current pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - vertexBuffers: the vertex buffers bound at slot 0, 1, ...
	//   - vertexCount: the number of vertices to draw
	//   - bindGroups: the providers bound at group 0, 1, ...
	//
	// Returns:
	//   - error: an error if the pipeline is not registered or targets another attachment
	Draw(pipelineKey string, vertexBuffers []*wgpu.Buffer, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndPass ends the current render pass.
	EndPass()

	// EndFrame ends any open pass and submits the render command buffer.
	// Does not present the surface. Call Present after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present presents the current frame's surface texture.
	Present()

	// Release releases all pipelines and the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer presenting into surface.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - surface: the window to present into
//   - options: functional options applied before the backend is created
//
// Returns:
//   - Renderer: the renderer, with its surface configured and a single-sample scene target
//   - error: an error if the adapter, device or scene target could not be created
func NewRenderer(backendType RendererBackendType, surface SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:             &sync.Mutex{},
		pipelineCache:  make(map[string]pipeline.Pipeline),
		backendType:    backendType,
		maxSampleCount: DefaultMaxSampleCount,
	}

	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("unsupported renderer backend %d", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	r.backend.ConfigureSurface(surface.Width(), surface.Height())

	if err := r.backend.ConfigureSceneTarget(surface.Width(), surface.Height(), 1); err != nil {
		r.backend.Release()
		return nil, err
	}

	// Pipelines supplied through WithPipeline still need their GPU objects.
	pending := make([]pipeline.Pipeline, 0, len(r.pipelineCache))
	for _, p := range r.pipelineCache {
		pending = append(pending, p)
	}
	if err := r.RegisterPipelines(pending...); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		if err := r.register(p); err != nil {
			return err
		}
		r.mu.Lock()
		if old, ok := r.pipelineCache[p.PipelineKey()]; ok && old != p {
			old.Release()
		}
		r.pipelineCache[p.PipelineKey()] = p
		r.mu.Unlock()
	}
	return nil
}

func (r *renderer) register(p pipeline.Pipeline) error {
	switch p.Type() {
	case pipeline.PipelineTypeCompute:
		return r.backend.RegisterComputePipeline(p)
	default:
		samples := uint32(1)
		if p.Target() == pipeline.TargetScene {
			samples = max(r.backend.SceneSampleCount(), 1)
		}
		return r.backend.RegisterRenderPipeline(p, samples)
	}
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SurfaceFormat() wgpu.TextureFormat {
	return r.backend.SurfaceFormat()
}

func (r *renderer) MaxSampleCount() uint32 {
	return supportedSampleCount(r.maxSampleCount)
}

func (r *renderer) ConfigureSceneTarget(width, height int, samples uint32) error {
	samples = supportedSampleCount(min(samples, r.maxSampleCount))
	previous := r.backend.SceneSampleCount()

	if err := r.backend.ConfigureSceneTarget(width, height, samples); err != nil {
		return err
	}
	if previous == samples {
		return nil
	}

	for _, p := range r.Pipelines() {
		if p.Type() != pipeline.PipelineTypeRender || p.Target() != pipeline.TargetScene {
			continue
		}
		if err := r.register(p); err != nil {
			return fmt.Errorf("rebuild %s for %dx samples: %w", p.PipelineKey(), samples, err)
		}
	}
	return nil
}

func (r *renderer) SceneTargetView() *wgpu.TextureView {
	return r.backend.SceneTargetView()
}

func (r *renderer) CreateBuffer(label string, usage wgpu.BufferUsage, data []byte, minSize uint64) (*wgpu.Buffer, error) {
	return r.backend.CreateBuffer(label, usage, data, minSize)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData, rect common.Rect) error {
	return r.backend.WriteTexture(provider, bindingKey, stagingData, rect)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, x, y, z uint32) error {
	p := r.Pipeline(pipelineKey)
	if p == nil || p.Type() != pipeline.PipelineTypeCompute {
		return fmt.Errorf("compute pipeline %q not registered", pipelineKey)
	}
	r.backend.DispatchCompute(p, bindGroups, x, y, z)
	return nil
}

func (r *renderer) EndComputeFrame() error {
	return r.backend.EndComputeFrame()
}

func (r *renderer) Barrier() {}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) BeginPass(target pipeline.Target, clear wgpu.Color) error {
	return r.backend.BeginPass(target, clear)
}

func (r *renderer) SetViewport(rect common.Rect) {
	r.backend.SetViewport(rect)
}

func (r *renderer) Draw(pipelineKey string, vertexBuffers []*wgpu.Buffer, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil || p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("render pipeline %q not registered", pipelineKey)
	}
	r.backend.Draw(p, vertexBuffers, vertexCount, bindGroups)
	return nil
}

func (r *renderer) EndPass() {
	r.backend.EndPass()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for k, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, k)
	}
	r.mu.Unlock()

	if r.backend != nil {
		r.backend.Release()
	}
}
