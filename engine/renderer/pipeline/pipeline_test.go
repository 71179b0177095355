package pipeline

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, st shader.ShaderType, name string) shader.Shader {
	t.Helper()
	s, err := shader.LoadShader(shader.NewLoader(shader.Assets()), name, st, name, nil)
	require.NoError(t, err)
	return s
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("ui", PipelineTypeRender)
	assert.Equal(t, "ui", p.PipelineKey())
	assert.Equal(t, TargetSurface, p.Target())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, uint32(0), p.SampleCount())
	assert.Nil(t, p.Pipeline().(*wgpu.RenderPipeline))
}

func TestWithBlendStateEnablesBlending(t *testing.T) {
	p := NewPipeline("ui", PipelineTypeRender, WithBlendState(PremultipliedBlend()), WithTarget(TargetScene))
	require.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.BlendFactorOne, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Alpha.DstFactor)
	assert.Equal(t, TargetScene, p.Target())

	assert.Equal(t, wgpu.BlendFactorSrcAlpha, AlphaBlend().Color.SrcFactor)
}

func TestValidate(t *testing.T) {
	vert := load(t, shader.ShaderTypeVertex, shader.SceneVertSource)
	frag := load(t, shader.ShaderTypeFragment, shader.SceneFragSource)

	ok := NewPipeline("scene", PipelineTypeRender, WithVertexShader(vert), WithFragmentShader(frag))
	require.NoError(t, ok.Validate())

	cases := map[string]Pipeline{
		"missing fragment": NewPipeline("scene", PipelineTypeRender, WithVertexShader(vert)),
		"swapped stages":   NewPipeline("scene", PipelineTypeRender, WithVertexShader(frag), WithFragmentShader(vert)),
		"missing compute":  NewPipeline("compact", PipelineTypeCompute),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.Validate()
			require.Error(t, err)
			var be *shader.BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, shader.LinkFailed, be.Kind)
		})
	}
}

func TestLayoutDescriptors(t *testing.T) {
	compute := load(t, shader.ShaderTypeCompute, shader.CompactSource)
	p := NewPipeline("compact", PipelineTypeCompute, WithComputeShader(compute))
	layouts, err := p.LayoutDescriptors()
	require.NoError(t, err)
	assert.Len(t, layouts, 2)
	assert.Len(t, layouts[1].Entries, 7)

	ui := NewPipeline("ui", PipelineTypeRender,
		WithVertexShader(load(t, shader.ShaderTypeVertex, shader.UIVertSource)),
		WithFragmentShader(load(t, shader.ShaderTypeFragment, shader.UIFragSource)),
	)
	layouts, err = ui.LayoutDescriptors()
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	assert.Equal(t, wgpu.ShaderStageFragment, layouts[0].Entries[0].Visibility)
}

func TestReleaseUnregistered(t *testing.T) {
	p := NewPipeline("compact", PipelineTypeCompute)
	assert.NotPanics(t, p.Release)
	assert.Nil(t, p.Pipeline().(*wgpu.ComputePipeline))
}
