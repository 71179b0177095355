package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-gpu/common"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// minBufferSize keeps zero-length frame buffers bindable.
const minBufferSize = 16

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	surfaceWidth  int
	surfaceHeight int
	presentMode   wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// Offscreen scene target. The scene pass draws into msaaView when sceneSamples > 1 and resolves
	// into resolveView; otherwise it draws into resolveView directly. resolveView is sampled by the
	// composite pass.
	sceneSamples   uint32
	sceneWidth     int
	sceneHeight    int
	msaaTexture    *wgpu.Texture
	msaaView       *wgpu.TextureView
	resolveTexture *wgpu.Texture
	resolveView    *wgpu.TextureView

	// Frame state for batched rendering across multiple passes
	frameEncoder    *wgpu.CommandEncoder
	framePass       *wgpu.RenderPassEncoder
	framePassWidth  int
	framePassHeight int
	frameSurface    *wgpu.Texture
	frameView       *wgpu.TextureView
	surfaceFailures int

	// Compute frame state for batching all compute dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder
}

type wgpuRendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when calling Configure on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// SurfaceFormat returns the color format shared by the surface and the scene target.
	//
	// Returns:
	//   - wgpu.TextureFormat: the surface format
	SurfaceFormat() wgpu.TextureFormat

	// ConfigureSceneTarget (re)creates the offscreen scene target.
	//
	// Parameters:
	//   - width, height: the target size in pixels
	//   - samples: the MSAA sample count, 1 for none
	//
	// Returns:
	//   - error: an error if a texture could not be created
	ConfigureSceneTarget(width, height int, samples uint32) error

	// SceneSampleCount returns the sample count of the scene target, 0 before it is configured.
	//
	// Returns:
	//   - uint32: the sample count
	SceneSampleCount() uint32

	// SceneTargetView returns the single-sample view of the scene target, for compositing.
	//
	// Returns:
	//   - *wgpu.TextureView: the resolved scene view, or nil before configuration
	SceneTargetView() *wgpu.TextureView

	// RegisterRenderPipeline creates the shader modules, layouts and render pipeline of p.
	//
	// Parameters:
	//   - p: the pipeline to create
	//   - sampleCount: the sample count of the pipeline's target
	//
	// Returns:
	//   - error: a *shader.BuildError, CompileFailed for shader modules and LinkFailed otherwise
	RegisterRenderPipeline(p pipeline.Pipeline, sampleCount uint32) error

	// RegisterComputePipeline creates the shader module, layouts and compute pipeline of p.
	//
	// Parameters:
	//   - p: the pipeline to create
	//
	// Returns:
	//   - error: a *shader.BuildError, CompileFailed for the shader module and LinkFailed otherwise
	RegisterComputePipeline(p pipeline.Pipeline) error

	// CreateBuffer creates a buffer and fills it with data.
	//
	// Parameters:
	//   - label: the debug label
	//   - usage: the buffer usage, CopyDst is always added
	//   - data: the initial contents, may be empty
	//   - size: the minimum size in bytes, raised to fit data
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(label string, usage wgpu.BufferUsage, data []byte, size uint64) (*wgpu.Buffer, error)

	// InitBindGroup creates the missing buffers and the bind group described by descriptor, and stores
	// them on the provider. Textures and samplers must already be set on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider describing the layout entries and storage for the bind group
	//   - descriptor: the BindGroupLayoutDescriptor describing the layout of the bind group
	//   - bufferUsageOverrides: additional usage flags per binding (nil safe)
	//   - bufferSizeOverrides: buffer sizes per binding replacing MinBindingSize (nil safe)
	//
	// Returns:
	//   - error: an error if the bind group could not be initialized, otherwise nil
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView creates a texture from staging data and stores it and its view on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - bindingKey: the binding index for this texture
	//   - stagingData: the pixel data, size, layers and format of the texture
	//
	// Returns:
	//   - error: an error if the texture could not be created
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// WriteTexture uploads the pixels of rect from stagingData into the provider's texture.
	//
	// Parameters:
	//   - provider: the provider holding the texture
	//   - bindingKey: the binding index of the texture
	//   - stagingData: the full-size pixel data
	//   - rect: the region to copy, in pixels of layer 0
	//
	// Returns:
	//   - error: an error if the provider holds no texture at bindingKey
	WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData, rect common.Rect) error

	// InitSampler creates a sampler and stores it on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - bindingKey: the binding index for this sampler
	//   - samplerStagingData: the sampler configuration
	//
	// Returns:
	//   - error: an error if the sampler could not be created
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers queues every pending buffer write.
	//
	// Parameters:
	//   - writes: the writes to queue
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame creates a single command encoder for batching all compute dispatches
	// within a frame into one GPU submission.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute encodes one compute pass within the current compute frame.
	//
	// Parameters:
	//   - p: the compute pipeline
	//   - bindGroups: the providers whose bind groups are set, indexed by group
	//   - x, y, z: the workgroup grid
	DispatchCompute(p pipeline.Pipeline, bindGroups []bind_group_provider.BindGroupProvider, x, y, z uint32)

	// EndComputeFrame finishes the compute encoder and submits it.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndComputeFrame() error

	// BeginFrame creates the command encoder for the frame's render passes.
	//
	// Returns:
	//   - error: an error if a previous frame is still held or the encoder could not be created
	BeginFrame() error

	// BeginPass begins a render pass on the given target, cleared to clear. The surface texture is
	// acquired by the first surface pass of the frame.
	//
	// Parameters:
	//   - target: the attachment to draw into
	//   - clear: the clear color
	//
	// Returns:
	//   - error: ErrDeviceLost after MaxSurfaceFailures consecutive acquisition failures, or the acquisition error
	BeginPass(target pipeline.Target, clear wgpu.Color) error

	// SetViewport sets the full viewport of the current pass and a scissor rect clipped to the attachment.
	//
	// Parameters:
	//   - rect: the viewport in pixels
	SetViewport(rect common.Rect)

	// Draw encodes a non-indexed draw in the current pass.
	//
	// Parameters:
	//   - p: the render pipeline
	//   - vertexBuffers: the vertex buffers, indexed by slot
	//   - vertexCount: the number of vertices to draw
	//   - bindGroups: the providers whose bind groups are set, indexed by group
	Draw(p pipeline.Pipeline, vertexBuffers []*wgpu.Buffer, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider)

	// EndPass ends the current render pass.
	EndPass()

	// EndFrame finishes the frame's command encoder and submits it.
	//
	// Returns:
	//   - error: an error if the command buffer could not be finished
	EndFrame() error

	// Present presents the surface texture acquired this frame, if any, and releases it.
	Present()

	// Release releases the scene target, surface, device, adapter and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	if surfaceDescriptor == nil {
		w.Release()
		return nil, fmt.Errorf("create surface: no surface descriptor")
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	// The compaction program binds seven storage buffers in one stage.
	limits := wgpu.DefaultLimits()
	limits.MaxStorageBuffersPerShaderStage = max(limits.MaxStorageBuffersPerShaderStage, 8)

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surfaceWidth = max(width, 1)
	b.surfaceHeight = max(height, 1)

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(b.surfaceWidth),
		Height:      uint32(b.surfaceHeight),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) ConfigureSceneTarget(width, height int, samples uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseSceneTarget()
	width, height = max(width, 1), max(height, 1)
	samples = max(samples, 1)

	newTarget := func(label string, sampleCount uint32, usage wgpu.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: label,
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         usage,
		})
		if err != nil {
			return nil, nil, err
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return nil, nil, err
		}
		return tex, view, nil
	}

	var err error
	b.resolveTexture, b.resolveView, err = newTarget("Scene Texture", 1, wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return fmt.Errorf("create scene texture: %w", err)
	}
	if samples > 1 {
		b.msaaTexture, b.msaaView, err = newTarget("Scene MSAA Texture", samples, wgpu.TextureUsageRenderAttachment)
		if err != nil {
			b.releaseSceneTarget()
			return fmt.Errorf("create %dx scene texture: %w", samples, err)
		}
	}
	b.sceneSamples = samples
	b.sceneWidth = width
	b.sceneHeight = height
	return nil
}

func (b *wgpuRendererBackendImpl) releaseSceneTarget() {
	for _, v := range []*wgpu.TextureView{b.msaaView, b.resolveView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{b.msaaTexture, b.resolveTexture} {
		if t != nil {
			t.Release()
		}
	}
	b.msaaView, b.resolveView = nil, nil
	b.msaaTexture, b.resolveTexture = nil, nil
	b.sceneSamples = 0
}

func (b *wgpuRendererBackendImpl) SceneSampleCount() uint32 {
	return b.sceneSamples
}

func (b *wgpuRendererBackendImpl) SceneTargetView() *wgpu.TextureView {
	return b.resolveView
}

// createLayouts creates one bind group layout per group, leaving holes nil.
func (b *wgpuRendererBackendImpl) createLayouts(p pipeline.Pipeline, stage shader.ShaderType) ([]*wgpu.BindGroupLayout, error) {
	descriptors, err := p.LayoutDescriptors()
	if err != nil {
		return nil, err
	}
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	layouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range descriptors {
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			releaseLayouts(layouts)
			return nil, shader.NewBuildError(shader.LinkFailed, stage, p.PipelineKey(), fmt.Sprintf("bind group layout %d", g), layoutErr)
		}
		layouts[g] = layout
	}
	return layouts, nil
}

func releaseLayouts(layouts []*wgpu.BindGroupLayout) {
	for _, l := range layouts {
		if l != nil {
			l.Release()
		}
	}
}

func (b *wgpuRendererBackendImpl) createModule(s shader.Shader) (*wgpu.ShaderModule, error) {
	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return nil, shader.NewBuildError(shader.CompileFailed, s.ShaderType(), s.Key(), "create shader module", err)
	}
	return module, nil
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline, sampleCount uint32) error {
	if err := p.Validate(); err != nil {
		return err
	}
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	vs, err := b.createModule(vertexShader)
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.createModule(fragmentShader)
	if err != nil {
		return err
	}
	defer fs.Release()

	bindGroupLayouts, err := b.createLayouts(p, shader.ShaderTypeFragment)
	if err != nil {
		return err
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return shader.NewBuildError(shader.LinkFailed, shader.ShaderTypeVertex, p.PipelineKey(), "pipeline layout", err)
	}
	defer pipelineLayout.Release()

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: p.WriteMask(),
		Blend:     p.BlendState(),
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    vertexShader.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: sampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return shader.NewBuildError(shader.LinkFailed, shader.ShaderTypeVertex, p.PipelineKey(), "render pipeline", err)
	}

	p.Release()
	p.SetRenderPipeline(created, sampleCount)
	p.SetBindGroupLayouts(bindGroupLayouts)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}
	computeShader := p.Shader(shader.ShaderTypeCompute)

	s, err := b.createModule(computeShader)
	if err != nil {
		return err
	}
	defer s.Release()

	bindGroupLayouts, err := b.createLayouts(p, shader.ShaderTypeCompute)
	if err != nil {
		return err
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return shader.NewBuildError(shader.LinkFailed, shader.ShaderTypeCompute, p.PipelineKey(), "pipeline layout", err)
	}
	defer layout.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     s,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		releaseLayouts(bindGroupLayouts)
		return shader.NewBuildError(shader.LinkFailed, shader.ShaderTypeCompute, p.PipelineKey(), "compute pipeline", err)
	}

	p.Release()
	p.SetComputePipeline(created)
	p.SetBindGroupLayouts(bindGroupLayouts)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(label string, usage wgpu.BufferUsage, data []byte, size uint64) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size = alignBufferSize(max(size, uint64(len(data))))
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, padToCopyAlignment(data))
	}
	return buf, nil
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(descriptor.Entries) == 0 {
		return nil
	}

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		layout, err = b.device.CreateBindGroupLayout(&descriptor)
		if err != nil {
			return err
		}
		provider.SetBindGroupLayout(layout)
	}

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		if isTexture {
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view", provider.Label(), binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		} else if isSampler {
			samp := provider.Sampler(binding)
			if samp == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler", provider.Label(), binding)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		} else {
			// Buffer binding, created if not already present
			var usage wgpu.BufferUsage
			switch entry.Buffer.Type {
			case wgpu.BufferBindingTypeUniform:
				usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
				usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			}
			if overrideUsage, ok := bufferUsageOverrides[binding]; ok {
				usage |= overrideUsage
			}

			buf := provider.Buffer(binding)
			if buf == nil {
				var bufErr error
				bufSize := entry.Buffer.MinBindingSize
				if overrideSize, ok := bufferSizeOverrides[binding]; ok {
					bufSize = overrideSize
				}
				buf, bufErr = b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  alignBufferSize(bufSize),
					Usage: usage,
				})
				if bufErr != nil {
					return bufErr
				}
				provider.SetBuffer(binding, buf)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	if old := provider.BindGroup(); old != nil {
		old.Release()
	}
	provider.SetBindGroup(bindGroup)

	return nil
}

func (b *wgpuRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	format := common.Coalesce(stagingData.Format, wgpu.TextureFormatRGBA8Unorm)
	layers := stagingData.LayerCount()
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     provider.Label() + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              stagingData.Width,
			Height:             stagingData.Height,
			DepthOrArrayLayers: layers,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return err
	}

	if len(stagingData.Pixels) > 0 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			stagingData.Pixels,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  stagingData.Width * 4,
				RowsPerImage: stagingData.Height,
			},
			&wgpu.Extent3D{
				Width:              stagingData.Width,
				Height:             stagingData.Height,
				DepthOrArrayLayers: layers,
			},
		)
	}

	dimension := wgpu.TextureViewDimension2D
	if stagingData.Layers > 0 {
		dimension = wgpu.TextureViewDimension2DArray
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           provider.Label() + " Texture View",
		Format:          format,
		Dimension:       dimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return err
	}
	if old := provider.TextureView(bindingKey); old != nil && !provider.Borrowed(bindingKey) {
		old.Release()
		if oldTex := provider.Texture(bindingKey); oldTex != nil {
			oldTex.Release()
		}
	}
	provider.SetTexture(bindingKey, tex, view)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteTexture(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData, rect common.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex := provider.Texture(bindingKey)
	if tex == nil {
		return fmt.Errorf("%s: binding %d has no texture", provider.Label(), bindingKey)
	}
	rect = clipRect(rect, int(stagingData.Width), int(stagingData.Height))
	if rect.Empty() {
		return nil
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(rect.X), Y: uint32(rect.Y)},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       uint64(rect.Y*int(stagingData.Width)+rect.X) * 4,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&wgpu.Extent3D{
			Width:              uint32(rect.Width),
			Height:             uint32(rect.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         provider.Label() + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
		Compare:       samplerStagingData.Compare,
	})
	if err != nil {
		return err
	}
	provider.SetSampler(bindingKey, samp)

	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if !w.Pending() {
			continue
		}
		b.queue.WriteBuffer(w.Provider.Buffer(w.Binding), w.Offset, padToCopyAlignment(w.Data))
	}
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, bindGroups []bind_group_provider.BindGroupProvider, x, y, z uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	pass := b.computeFrameEncoder.BeginComputePass(nil)
	pass.SetPipeline(p.Pipeline().(*wgpu.ComputePipeline))
	for i, bg := range bindGroups {
		pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	pass.DispatchWorkgroups(x, y, z)
	pass.End()
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return nil
	}
	defer func() {
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
	}()

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish compute frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A held encoder means the previous frame never reached EndFrame.
	if b.frameEncoder != nil {
		return fmt.Errorf("previous frame not yet submitted")
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) BeginPass(target pipeline.Target, clear wgpu.Color) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return fmt.Errorf("begin pass outside a frame")
	}

	attachment := wgpu.RenderPassColorAttachment{
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	switch target {
	case pipeline.TargetScene:
		if b.resolveView == nil {
			return fmt.Errorf("scene target not configured")
		}
		if b.msaaView != nil {
			// Only the resolved samples are kept.
			attachment.View = b.msaaView
			attachment.ResolveTarget = b.resolveView
			attachment.StoreOp = wgpu.StoreOpDiscard
		} else {
			attachment.View = b.resolveView
		}
		b.framePassWidth, b.framePassHeight = b.sceneWidth, b.sceneHeight
	default:
		if err := b.acquireSurface(); err != nil {
			return err
		}
		attachment.View = b.frameView
		b.framePassWidth, b.framePassHeight = b.surfaceWidth, b.surfaceHeight
	}

	b.framePass = b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	return nil
}

// acquireSurface acquires the frame's surface texture once per frame.
func (b *wgpuRendererBackendImpl) acquireSurface() error {
	if b.frameView != nil {
		return nil
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		b.surfaceFailures++
		if b.surfaceFailures >= MaxSurfaceFailures {
			return fmt.Errorf("%w: %d consecutive surface failures: %v", ErrDeviceLost, b.surfaceFailures, err)
		}
		return fmt.Errorf("acquire surface texture: %w", err)
	}
	b.surfaceFailures = 0

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

func (b *wgpuRendererBackendImpl) SetViewport(rect common.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	viewport, scissor := passRects(rect, b.framePassWidth, b.framePassHeight)
	if !viewport.Empty() {
		b.framePass.SetViewport(float32(viewport.X), float32(viewport.Y), float32(viewport.Width), float32(viewport.Height), 0, 1)
	}
	b.framePass.SetScissorRect(uint32(scissor.X), uint32(scissor.Y), uint32(scissor.Width), uint32(scissor.Height))
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, vertexBuffers []*wgpu.Buffer, vertexCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil || vertexCount == 0 {
		return
	}

	b.framePass.SetPipeline(p.Pipeline().(*wgpu.RenderPipeline))
	for i, bg := range bindGroups {
		b.framePass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
	}
	for slot, buf := range vertexBuffers {
		b.framePass.SetVertexBuffer(uint32(slot), buf, 0, wgpu.WholeSize)
	}
	b.framePass.Draw(vertexCount, 1, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndPass() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()
	b.framePass.Release()
	b.framePass = nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil
	}
	if b.framePass != nil {
		b.framePass.End()
		b.framePass.Release()
		b.framePass = nil
	}
	defer func() {
		b.frameEncoder.Release()
		b.frameEncoder = nil
	}()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.releaseFrameSurface()
		return fmt.Errorf("finish frame: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	b.releaseFrameSurface()
}

func (b *wgpuRendererBackendImpl) releaseFrameSurface() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.Release()
		b.framePass = nil
	}
	for _, e := range []*wgpu.CommandEncoder{b.frameEncoder, b.computeFrameEncoder} {
		if e != nil {
			e.Release()
		}
	}
	b.frameEncoder, b.computeFrameEncoder = nil, nil
	b.releaseFrameSurface()
	b.releaseSceneTarget()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// alignBufferSize rounds a buffer size up to a multiple of 4, with a floor of minBufferSize.
func alignBufferSize(size uint64) uint64 {
	return max((size+3)&^3, minBufferSize)
}

// padToCopyAlignment pads data to the 4-byte multiple queue writes require.
func padToCopyAlignment(data []byte) []byte {
	if rem := len(data) % 4; rem != 0 {
		return append(data[:len(data):len(data)], make([]byte, 4-rem)...)
	}
	return data
}

// passRects splits a requested viewport into the viewport and scissor set on a pass of the given size.
// The viewport keeps the requested rect so the projection is not rescaled. The scissor is the part
// inside the attachment, or a zero rect when nothing is visible.
func passRects(rect common.Rect, width, height int) (viewport, scissor common.Rect) {
	scissor = clipRect(rect, width, height)
	if scissor.Empty() {
		return common.Rect{}, common.Rect{}
	}
	return rect, scissor
}

// clipRect intersects rect with [0, width) x [0, height).
func clipRect(rect common.Rect, width, height int) common.Rect {
	x0, y0 := max(rect.X, 0), max(rect.Y, 0)
	x1, y1 := min(rect.X+rect.Width, width), min(rect.Y+rect.Height, height)
	return common.Rect{X: x0, Y: y0, Width: max(x1-x0, 0), Height: max(y1-y0, 0)}
}
