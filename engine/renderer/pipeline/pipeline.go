package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// Target identifies the color attachment a render pipeline draws into. The target decides the
// pipeline's color format and sample count.
type Target int

const (
	// TargetSurface draws into the swapchain with a single sample.
	TargetSurface Target = iota

	// TargetScene draws into the offscreen scene target, multisampled when anti-aliasing is on.
	// Scene pipelines are rebuilt whenever the scene target's sample count changes.
	TargetScene
)

// pipeline is the implementation of the Pipeline interface.
// It holds the underlying WebGPU pipeline objects and related data for both render and compute pipelines.
type pipeline struct {
	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string
	// target is the attachment a render pipeline draws into
	target Target

	// the following shader references are used for pipeline creation, they are required to be set before registering a pipeline.

	vertexShader, fragmentShader, computeShader shader.Shader

	// renderPipeline is the render pipeline if this is a render pipeline, nil otherwise
	renderPipeline *wgpu.RenderPipeline
	// computePipeline is the compute pipeline if this is a compute pipeline, nil otherwise
	computePipeline *wgpu.ComputePipeline
	// bindGroupLayouts are the layouts the GPU pipeline was created with, indexed by group
	bindGroupLayouts []*wgpu.BindGroupLayout
	// sampleCount is the sample count the render pipeline was created with
	sampleCount uint32

	// The following properties are used to configure the pipeline during creation and can be toggled/set with the builder options.
	// These are only used for render pipelines.

	blendEnabled bool
	cullMode     wgpu.CullMode
	topology     wgpu.PrimitiveTopology
	frontFace    wgpu.FrontFace
	writeMask    wgpu.ColorWriteMask
	blendState   *wgpu.BlendState
}

// Pipeline defines the interface for a GPU pipeline, encapsulating either a render pipeline
// (vertex + fragment shaders) or a compute pipeline (compute shader). It holds all configuration
// state required for pipeline creation including target, blend, cull, and topology settings.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Target returns the attachment a render pipeline draws into.
	//
	// Returns:
	//   - Target: TargetSurface or TargetScene
	Target() Target

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Validate checks that the shaders required by the pipeline type are present and of the right stage.
	//
	// Returns:
	//   - error: a *shader.BuildError of kind LinkFailed describing the first problem, or nil
	Validate() error

	// LayoutDescriptors returns the bind group layouts of all stages merged by group.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged layouts keyed by group index
	//   - error: a *shader.BuildError when two stages disagree on a binding
	LayoutDescriptors() (map[int]wgpu.BindGroupLayoutDescriptor, error)

	// Pipeline returns the underlying pipeline object, either *wgpu.RenderPipeline or *wgpu.ComputePipeline
	// Note: The caller is responsible for type asserting the returned value as either pipeline type.
	//
	// Returns:
	//   - any: the underlying pipeline object.
	Pipeline() any

	// SampleCount returns the sample count of the created render pipeline, 0 before creation.
	//
	// Returns:
	//   - uint32: the sample count
	SampleCount() uint32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline (e.g., wgpu.CullModeNone, wgpu.CullModeFront, wgpu.CullModeBack)
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline (e.g., wgpu.PrimitiveTopologyTriangleList)
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline (e.g., wgpu.FrontFaceCCW, wgpu.FrontFaceCW)
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline (e.g., wgpu.ColorWriteMaskAll)
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, or nil if blending is not enabled
	BlendState() *wgpu.BlendState

	// SetRenderPipeline sets the render pipeline and the sample count it was created with.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	//   - sampleCount: the pipeline's multisample count
	SetRenderPipeline(p *wgpu.RenderPipeline, sampleCount uint32)

	// SetComputePipeline sets the compute pipeline
	//
	// Parameters:
	//   - p: the WebGPU compute pipeline to set
	SetComputePipeline(p *wgpu.ComputePipeline)

	// SetBindGroupLayouts stores the layouts the GPU pipeline was created with so they are released with it.
	//
	// Parameters:
	//   - layouts: the layouts indexed by group
	SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout)

	// Release releases the GPU pipeline and its layouts. The pipeline can be registered again afterwards.
	Release()
}

var _ Pipeline = &pipeline{}

// AlphaBlend returns the blend state for straight alpha: src*a + dst*(1-a).
func AlphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// PremultipliedBlend returns the blend state for premultiplied alpha: src + dst*(1-a).
func PremultipliedBlend() *wgpu.BlendState {
	c := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	}
	return &wgpu.BlendState{Color: c, Alpha: c}
}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:  pipelineKey,
		pipelineType: pipelineType,
		target:       TargetSurface,
		blendEnabled: false,
		cullMode:     wgpu.CullModeNone,
		topology:     wgpu.PrimitiveTopologyTriangleList,
		frontFace:    wgpu.FrontFaceCCW,
		writeMask:    wgpu.ColorWriteMaskAll,
		blendState:   AlphaBlend(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Target() Target {
	return p.target
}

func (p *pipeline) Validate() error {
	var required []shader.ShaderType
	switch p.pipelineType {
	case PipelineTypeCompute:
		required = []shader.ShaderType{shader.ShaderTypeCompute}
	case PipelineTypeRender:
		required = []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment}
	default:
		return fmt.Errorf("pipeline %s: unknown type %d", p.pipelineKey, int(p.pipelineType))
	}
	for _, st := range required {
		s := p.Shader(st)
		if s == nil {
			return shader.NewBuildError(shader.LinkFailed, st, p.pipelineKey, "missing "+st.String()+" shader", nil)
		}
		if s.ShaderType() != st {
			return shader.NewBuildError(shader.LinkFailed, st, p.pipelineKey, "shader "+s.Key()+" is a "+s.ShaderType().String()+" shader", nil)
		}
	}
	return nil
}

func (p *pipeline) LayoutDescriptors() (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	if p.pipelineType == PipelineTypeCompute {
		return shader.MergeBindGroupLayouts(p.computeShader)
	}
	return shader.MergeBindGroupLayouts(p.vertexShader, p.fragmentShader)
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	if !p.blendEnabled {
		return nil
	}
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline, sampleCount uint32) {
	p.renderPipeline = rp
	p.sampleCount = sampleCount
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) SetBindGroupLayouts(layouts []*wgpu.BindGroupLayout) {
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
	p.sampleCount = 0
}
