package shader

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

func (t ShaderType) stage() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	default:
		return wgpu.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
// It holds the preprocessed source and the interface reflected from it.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	reflected  reflection
	module     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and reflected WGSL shader. It exposes the shader's
// unique key, source code, entry point, bind group layout descriptors, vertex buffer layouts and
// workgroup size needed for pipeline creation and resource wiring.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the preprocessed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader targets.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "main")
	EntryPoint() string

	// WorkgroupSize returns the workgroup size dimensions for compute shaders, [0, 0, 0] otherwise.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// VertexLayouts returns one vertex buffer layout per vertex input struct, in declaration order.
	// Element i describes the buffer bound to vertex slot i.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the ordered layouts, nil for non-vertex shaders
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors retrieves all reflected bind group layout descriptors keyed by group index.
	// Entries carry this shader's stage as their visibility.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index associated with the variable name, or -1 if not found
	//   - bool: true if the variable name was found, false otherwise
	BindGroupFromVarName(group int, varName string) (int, bool)

	// Module returns the wgpu.ShaderModuleDescriptor built from the source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reflects preprocessed WGSL source into a Shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage the source is written for
//   - source: preprocessed WGSL, typically the output of Loader.Load
//
// Returns:
//   - Shader: the reflected shader
//   - error: a *BuildError of kind ValidateFailed when the entry point or workgroup size is missing
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	r, err := reflect(source, shaderType)
	if err != nil {
		return nil, NewBuildError(ValidateFailed, shaderType, key, err.Error(), nil)
	}
	return &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
		reflected:  r,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}, nil
}

// LoadShader loads name through l and reflects the result.
//
// Parameters:
//   - l: the source loader
//   - key: a unique identifier for the shader
//   - shaderType: the stage the source is written for
//   - name: the source name passed to the loader
//   - defines: per-call defines passed to the loader
//
// Returns:
//   - Shader: the reflected shader
//   - error: a loader error, or a *BuildError from NewShader
func LoadShader(l Loader, key string, shaderType ShaderType, name string, defines map[string]string) (Shader, error) {
	src, err := l.Load(name, defines)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return NewShader(key, shaderType, src)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.reflected.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.reflected.workgroupSize
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.reflected.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.reflected.groups
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.reflected.varNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.reflected.varNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

// MergeBindGroupLayouts combines the reflected layouts of the stages of one pipeline.
// A binding declared by several stages gets the union of their visibilities.
//
// Parameters:
//   - shaders: the stages of a pipeline
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: merged descriptors keyed by group index
//   - error: a *BuildError of kind ValidateFailed when two stages declare different resources at one binding
func MergeBindGroupLayouts(shaders ...Shader) (map[int]wgpu.BindGroupLayoutDescriptor, error) {
	type slot struct{ group, binding int }
	merged := make(map[slot]wgpu.BindGroupLayoutEntry)
	owner := make(map[slot]string)

	for _, s := range shaders {
		for g, desc := range s.BindGroupLayoutDescriptors() {
			for _, e := range desc.Entries {
				k := slot{g, int(e.Binding)}
				prev, seen := merged[k]
				if !seen {
					merged[k] = e
					owner[k] = s.BindGroupVarName(g, int(e.Binding))
					continue
				}
				if !sameResource(prev, e) {
					log := fmt.Sprintf("group %d binding %d declared as %s and %s", g, e.Binding, owner[k], s.BindGroupVarName(g, int(e.Binding)))
					return nil, NewBuildError(ValidateFailed, s.ShaderType(), s.Key(), log, nil)
				}
				prev.Visibility |= e.Visibility
				prev.Buffer.MinBindingSize = max(prev.Buffer.MinBindingSize, e.Buffer.MinBindingSize)
				merged[k] = prev
			}
		}
	}

	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	for k, e := range merged {
		entries[k.group] = append(entries[k.group], e)
	}
	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		out[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return out, nil
}

func sameResource(a, b wgpu.BindGroupLayoutEntry) bool {
	return a.Buffer.Type == b.Buffer.Type &&
		a.Sampler.Type == b.Sampler.Type &&
		a.Texture.SampleType == b.Texture.SampleType &&
		a.Texture.ViewDimension == b.Texture.ViewDimension
}
