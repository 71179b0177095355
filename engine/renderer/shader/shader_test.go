package shader

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadAsset(t *testing.T, shaderType ShaderType, name string, defines map[string]string) Shader {
	t.Helper()
	s, err := LoadShader(NewLoader(Assets()), name, shaderType, name, defines)
	require.NoError(t, err)
	return s
}

func TestCompactShaderReflection(t *testing.T) {
	for _, size := range []string{"64", "128", "256"} {
		t.Run(size, func(t *testing.T) {
			s := loadAsset(t, ShaderTypeCompute, CompactSource, map[string]string{"WORKGROUP_SIZE": size})

			assert.Equal(t, "main", s.EntryPoint())
			assert.NotContains(t, s.Source(), "WORKGROUP_SIZE")
			assert.Contains(t, s.Source(), "@workgroup_size("+size+")")

			groups := s.BindGroupLayoutDescriptors()
			require.Len(t, groups, 2)

			camera := groups[0].Entries
			require.Len(t, camera, 1)
			assert.Equal(t, wgpu.BufferBindingTypeUniform, camera[0].Buffer.Type)
			assert.Equal(t, uint64(32+2048*16), camera[0].Buffer.MinBindingSize)
			assert.Equal(t, wgpu.ShaderStageCompute, camera[0].Visibility)

			compute := groups[1].Entries
			require.Len(t, compute, 7)
			for i, e := range compute {
				assert.Equal(t, uint32(i), e.Binding)
			}
			assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, compute[0].Buffer.Type)
			assert.Equal(t, uint64(32), compute[0].Buffer.MinBindingSize)
			assert.Equal(t, wgpu.BufferBindingTypeStorage, compute[3].Buffer.Type)
			assert.Equal(t, wgpu.BufferBindingTypeStorage, compute[4].Buffer.Type)
			assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, compute[6].Buffer.Type)

			b, ok := s.BindGroupFromVarName(1, "out_uvs")
			assert.True(t, ok)
			assert.Equal(t, 4, b)
			assert.Equal(t, "descriptors", s.BindGroupVarName(1, 0))
		})
	}

	s := loadAsset(t, ShaderTypeCompute, CompactSource, map[string]string{"WORKGROUP_SIZE": "128"})
	assert.Equal(t, [3]uint32{128, 1, 1}, s.WorkgroupSize())

	s = loadAsset(t, ShaderTypeCompute, CompactSource, nil)
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
}

func TestSceneVertexLayoutsAreOrdered(t *testing.T) {
	s := loadAsset(t, ShaderTypeVertex, SceneVertSource, nil)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 2)

	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatSint32x4, layouts[0].Attributes[0].Format)
	assert.Equal(t, uint32(0), layouts[0].Attributes[0].ShaderLocation)

	assert.Equal(t, uint64(16), layouts[1].ArrayStride)
	require.Len(t, layouts[1].Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layouts[1].Attributes[0].Format)
	assert.Equal(t, uint32(1), layouts[1].Attributes[0].ShaderLocation)
}

func TestMergeSceneLayouts(t *testing.T) {
	vert := loadAsset(t, ShaderTypeVertex, SceneVertSource, nil)
	frag := loadAsset(t, ShaderTypeFragment, SceneFragSource, nil)

	merged, err := MergeBindGroupLayouts(vert, frag)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	g0 := merged[0].Entries
	require.Len(t, g0, 2)
	assert.Equal(t, wgpu.ShaderStageVertex, g0[0].Visibility)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, g0[1].Visibility)
	assert.Equal(t, uint64(64+16+32+64*16), g0[1].Buffer.MinBindingSize)

	g1 := merged[1].Entries
	require.Len(t, g1, 2)
	assert.Equal(t, wgpu.TextureViewDimension2DArray, g1[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, g1[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, g1[1].Sampler.Type)
}

func TestMergeRejectsConflictingBindings(t *testing.T) {
	a, err := NewShader("a", ShaderTypeVertex, "@group(0) @binding(0) var<uniform> u: vec4<f32>;\n@vertex fn main() {}")
	require.NoError(t, err)
	b, err := NewShader("b", ShaderTypeFragment, "@group(0) @binding(0) var t: texture_2d<f32>;\n@fragment fn main() {}")
	require.NoError(t, err)

	_, err = MergeBindGroupLayouts(a, b)
	require.Error(t, err)

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, ValidateFailed, be.Kind)
	assert.Equal(t, ShaderTypeFragment, be.Stage)
	assert.Contains(t, be.Error(), "binding 0")
}

func TestUIShadersReflect(t *testing.T) {
	vert := loadAsset(t, ShaderTypeVertex, UIVertSource, nil)
	frag := loadAsset(t, ShaderTypeFragment, UIFragSource, nil)

	assert.Empty(t, vert.VertexLayouts())
	merged, err := MergeBindGroupLayouts(vert, frag)
	require.NoError(t, err)
	require.Len(t, merged[0].Entries, 2)
	assert.Equal(t, wgpu.TextureViewDimension2D, merged[0].Entries[0].Texture.ViewDimension)
}

func TestNewShaderValidation(t *testing.T) {
	cases := []struct {
		name       string
		shaderType ShaderType
		source     string
	}{
		{"missing entry point", ShaderTypeVertex, "fn helper() {}"},
		{"wrong stage", ShaderTypeFragment, "@vertex fn main() {}"},
		{"missing workgroup size", ShaderTypeCompute, "@compute fn main() {}"},
		{"commented entry point", ShaderTypeCompute, "// @compute @workgroup_size(64)\nfn main() {}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewShader("k", tc.shaderType, tc.source)
			require.Error(t, err)
			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, ValidateFailed, be.Kind)
			assert.Equal(t, tc.shaderType, be.Stage)
			assert.Equal(t, "k", be.Key)
		})
	}
}

func TestBuildErrorFormatting(t *testing.T) {
	driver := errors.New("driver said no")
	err := NewBuildError(CompileFailed, ShaderTypeFragment, "scene", "module rejected", driver)

	assert.Equal(t, "shader scene: fragment compile failed: module rejected: driver said no", err.Error())
	assert.ErrorIs(t, err, driver)
	assert.Equal(t, "link", LinkFailed.String())
	assert.Equal(t, "validate", ValidateFailed.String())
}

func TestLoadShaderPropagatesLoaderErrors(t *testing.T) {
	_, err := LoadShader(NewLoader(Assets()), "missing", ShaderTypeVertex, "missing.wgsl", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}
