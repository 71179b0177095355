package engine

import (
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gpu/engine/renderer/shader"
)

// GPUBackendOption is a functional option for configuring the GPU backend.
type GPUBackendOption func(*gpuBackend)

// WithRendererOptions passes options through to the renderer created by Init.
//
// Parameters:
//   - options: the renderer options, such as renderer.WithMaxSampleCount
//
// Returns:
//   - GPUBackendOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) GPUBackendOption {
	return func(b *gpuBackend) {
		b.rendererOptions = append(b.rendererOptions, options...)
	}
}

// WithShaderLoader replaces the loader over the built-in shader sources.
//
// Parameters:
//   - l: the loader the programs are read from
//
// Returns:
//   - GPUBackendOption: option function to apply
func WithShaderLoader(l shader.Loader) GPUBackendOption {
	return func(b *gpuBackend) {
		if l != nil {
			b.loader = l
		}
	}
}
