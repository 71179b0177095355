package shader

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormat pairs a wgpu vertex format with its byte size.
type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

var vertexFormats = map[string]vertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec2<i32>": {wgpu.VertexFormatSint32x2, 8},
	"vec2i":     {wgpu.VertexFormatSint32x2, 8},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
	"vec4i":     {wgpu.VertexFormatSint32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"vec4u":     {wgpu.VertexFormatUint32x4, 16},
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_2d":       wgpu.TextureViewDimension2D,
	"texture_2d_array": wgpu.TextureViewDimension2DArray,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	structPattern        = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationPattern      = regexp.MustCompile(`@location\((\d+)\)`)
	builtinPattern       = regexp.MustCompile(`@builtin\(\w+\)`)
	fieldPattern         = regexp.MustCompile(`(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)`)
	workgroupSizePattern = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
	bindingPattern       = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
	entryPatterns        = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
		ShaderTypeCompute:  regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`),
	}
)

// wgslField is one member of a parsed struct.
type wgslField struct {
	name     string
	typeName string
	location int
	builtin  bool
}

// wgslStruct is a parsed struct declaration.
type wgslStruct struct {
	name   string
	fields []wgslField
}

// reflection is everything the renderer needs to know about a shader's interface.
type reflection struct {
	entryPoint    string
	workgroupSize [3]uint32
	vertexLayouts []wgpu.VertexBufferLayout
	groups        map[int]wgpu.BindGroupLayoutDescriptor
	varNames      map[int]map[int]string
}

// reflect parses source for the interface of a single shader stage.
func reflect(source string, shaderType ShaderType) (reflection, error) {
	cleaned := stripComments(source)
	structs := parseStructs(cleaned)

	r := reflection{}
	re, ok := entryPatterns[shaderType]
	if !ok {
		return r, fmt.Errorf("unknown shader type %d", int(shaderType))
	}
	m := re.FindStringSubmatch(cleaned)
	if m == nil {
		return r, fmt.Errorf("no @%s entry point", shaderType)
	}
	r.entryPoint = m[1]

	switch shaderType {
	case ShaderTypeCompute:
		size, ok := parseWorkgroupSize(cleaned)
		if !ok {
			return r, fmt.Errorf("compute entry point %s has no @workgroup_size", r.entryPoint)
		}
		r.workgroupSize = size
	case ShaderTypeVertex:
		layouts, err := parseVertexLayouts(structs)
		if err != nil {
			return r, err
		}
		r.vertexLayouts = layouts
	}

	r.groups, r.varNames = parseBindings(cleaned, structs, shaderType.stage())
	return r, nil
}

func parseWorkgroupSize(source string) ([3]uint32, bool) {
	m := workgroupSizePattern.FindStringSubmatch(source)
	if m == nil {
		return [3]uint32{}, false
	}
	size := [3]uint32{1, 1, 1}
	for i := range 3 {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil || v == 0 {
			return [3]uint32{}, false
		}
		size[i] = uint32(v)
	}
	return size, true
}

func parseStructs(source string) []wgslStruct {
	matches := structPattern.FindAllStringSubmatch(source, -1)
	out := make([]wgslStruct, 0, len(matches))
	for _, m := range matches {
		s := wgslStruct{name: m[1]}
		for _, part := range splitTopLevel(m[2]) {
			part = strings.TrimSpace(part)
			fm := fieldPattern.FindStringSubmatch(part)
			if part == "" || fm == nil {
				continue
			}
			f := wgslField{
				name:     fm[1],
				typeName: strings.TrimSpace(fm[2]),
				location: -1,
				builtin:  builtinPattern.MatchString(part),
			}
			if lm := locationPattern.FindStringSubmatch(part); lm != nil {
				f.location, _ = strconv.Atoi(lm[1])
			}
			s.fields = append(s.fields, f)
		}
		out = append(out, s)
	}
	return out
}

// parseVertexLayouts turns every pure vertex input struct into one vertex buffer layout, in declaration order.
// Buffer slot i of a draw call binds the i-th struct.
func parseVertexLayouts(structs []wgslStruct) ([]wgpu.VertexBufferLayout, error) {
	var layouts []wgpu.VertexBufferLayout
	for _, s := range structs {
		if !isVertexInput(s) {
			continue
		}
		attrs := make([]wgpu.VertexAttribute, 0, len(s.fields))
		var offset uint64
		for _, f := range s.fields {
			vf, ok := vertexFormats[f.typeName]
			if !ok {
				return nil, fmt.Errorf("vertex input %s.%s has unsupported type %s", s.name, f.name, f.typeName)
			}
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(f.location),
			})
			offset += vf.size
		}
		layouts = append(layouts, wgpu.VertexBufferLayout{
			ArrayStride: offset,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return layouts, nil
}

func isVertexInput(s wgslStruct) bool {
	located := false
	for _, f := range s.fields {
		if f.builtin {
			return false
		}
		if f.location >= 0 {
			located = true
		}
	}
	return located
}

func parseBindings(source string, structs []wgslStruct, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	sizes := structLayouts(structs)
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindingPattern.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		typeName := strings.TrimSpace(m[5])

		entry := bindingEntry(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := resolveLayout(typeName, sizes); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], entry)
		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = strings.TrimSpace(m[4])
	}

	groups := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, e := range entries {
		sort.Slice(e, func(i, j int) bool { return e[i].Binding < e[j].Binding })
		groups[g] = wgpu.BindGroupLayoutDescriptor{Entries: e}
	}
	return groups, names
}

func bindingEntry(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}
	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case strings.HasPrefix(typeName, "texture_"):
		base, param, _ := strings.Cut(typeName, "<")
		entry.Texture.ViewDimension = textureDimensions[base]
		entry.Texture.SampleType = sampleTypes[strings.TrimSuffix(param, ">")]
	}
	return entry
}

// stripComments removes line comments and nested block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case i+1 < len(source) && source[i] == '/' && source[i+1] == '*':
			depth++
			i++
		case i+1 < len(source) && source[i] == '*' && source[i+1] == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
		case i+1 < len(source) && source[i] == '/' && source[i+1] == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// splitTopLevel splits at commas outside angle brackets, so array<T, N> stays whole.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
