package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by the Renderer during initialization, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized with the Renderer.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout created for this provider, or nil if not initialized with the Renderer.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers created for this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textures holds the GPU textures backing textureViews, keyed by binding index.
	textures map[int]*wgpu.Texture
	// textureViews holds the GPU texture views created for this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers created for this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// borrowed marks bindings whose resources are owned elsewhere and are not released by Release.
	borrowed map[int]bool
}

// BindGroupProvider defines the interface for components that require GPU bind group resources.
// Frame resources (the camera block, the per-frame compaction buffers, the texture array) hold a
// BindGroupProvider describing their GPU binding requirements. The Renderer then uses this provider to
// initialize and update GPU resources.
//
// Usage pattern:
//  1. The owner creates a BindGroupProvider with a label
//  2. Resources created elsewhere are attached with Borrow*, owned ones are created by the Renderer
//  3. The owner calls Renderer.InitBindGroup(provider, descriptor) to create the bind group
//  4. The owner calls Renderer.WriteBuffers to update uniforms
//  5. Passes read BindGroup() for dispatches and draws
type BindGroupProvider interface {
	// Release releases the GPU resources owned by this provider. Borrowed resources are dropped
	// from the provider without being released.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout for this provider.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Texture returns the texture behind the view at a binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	Texture(binding int) *wgpu.Texture

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// Borrowed reports whether the resource at a binding is owned elsewhere.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - bool: true if Release will leave the resource alive
	Borrowed(binding int) bool

	// SetBindGroup sets the bind group after GPU initialization.
	// Called by Renderer.InitBindGroup().
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	// Called by Renderer.InitBindGroup().
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a buffer owned by this provider.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// BorrowBuffer stores a buffer owned by someone else, such as a buffer shared by several bind groups.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the shared buffer
	BorrowBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores a texture and its view, both owned by this provider.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the texture, may be nil when only the view is owned
	//   - tv: the texture view
	SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView)

	// BorrowTextureView stores a texture view owned by someone else.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the shared texture view
	BorrowTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores a GPU sampler owned by this provider.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// BorrowSampler stores a sampler owned by someone else.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the shared sampler
	BorrowSampler(binding int, s *wgpu.Sampler)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label used for every GPU object the provider holds
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textures:     make(map[int]*wgpu.Texture),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
		borrowed:     make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Texture(binding int) *wgpu.Texture {
	return p.textures[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) Borrowed(binding int) bool {
	return p.borrowed[binding]
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	delete(p.borrowed, binding)
}

func (p *bindGroupProvider) BorrowBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) SetTexture(binding int, tex *wgpu.Texture, tv *wgpu.TextureView) {
	if tex != nil {
		p.textures[binding] = tex
	}
	p.textureViews[binding] = tv
	delete(p.borrowed, binding)
}

func (p *bindGroupProvider) BorrowTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
	delete(p.borrowed, binding)
}

func (p *bindGroupProvider) BorrowSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
	p.borrowed[binding] = true
}

func (p *bindGroupProvider) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for i, tv := range p.textureViews {
		if tv != nil && !p.borrowed[i] {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	for i, tex := range p.textures {
		if tex != nil && !p.borrowed[i] {
			tex.Release()
		}
		delete(p.textures, i)
	}
	for i, s := range p.samplers {
		if s != nil && !p.borrowed[i] {
			s.Release()
		}
		delete(p.samplers, i)
	}
	for i, buf := range p.buffers {
		if buf != nil && !p.borrowed[i] {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.borrowed)

	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
