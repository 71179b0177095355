package shader

import (
	"strconv"
	"strings"
)

// typeLayout is the size and alignment of a WGSL type in host-shareable memory.
type typeLayout struct {
	size  uint64
	align uint64
}

// primitiveLayouts covers the scalar, vector and matrix types used by buffer bindings.
// See https://www.w3.org/TR/WGSL/#alignment-and-size
var primitiveLayouts = map[string]typeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2<i32>":   {8, 8},
	"vec2<u32>":   {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3<i32>":   {12, 16},
	"vec3<u32>":   {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4<i32>":   {16, 16},
	"vec4<u32>":   {16, 16},
	"vec2f":       {8, 8},
	"vec4f":       {16, 16},
	"vec4i":       {16, 16},
	"vec4u":       {16, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
	"atomic<u32>": {4, 4},
	"atomic<i32>": {4, 4},
}

func alignUp(align, v uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// resolveLayout resolves primitives, known structs and arrays. A runtime-sized array resolves to one element stride.
func resolveLayout(typeName string, known map[string]typeLayout) (typeLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := known[typeName]; ok {
		return l, true
	}
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return typeLayout{}, false
	}
	parts := splitTopLevel(strings.TrimSuffix(inner, ">"))
	elem, ok := resolveLayout(strings.TrimSpace(parts[0]), known)
	if !ok {
		return typeLayout{}, false
	}
	stride := alignUp(elem.align, elem.size)
	if len(parts) == 1 {
		return typeLayout{stride, elem.align}, true
	}
	n, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return typeLayout{}, false
	}
	return typeLayout{n * stride, elem.align}, true
}

func isRuntimeArray(typeName string) bool {
	inner, ok := strings.CutPrefix(typeName, "array<")
	return ok && len(splitTopLevel(strings.TrimSuffix(inner, ">"))) == 1
}

// structLayout lays out a struct's fields. A trailing runtime-sized array contributes its element stride.
func structLayout(s wgslStruct, known map[string]typeLayout) (typeLayout, bool) {
	var offset uint64
	maxAlign := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		l, ok := resolveLayout(f.typeName, known)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignUp(l.align, offset) + l.size
		maxAlign = max(maxAlign, l.align)
		if isRuntimeArray(f.typeName) {
			break
		}
	}
	return typeLayout{alignUp(maxAlign, offset), maxAlign}, true
}

// structLayouts resolves every struct, iterating until nested struct references settle.
func structLayouts(structs []wgslStruct) map[string]typeLayout {
	known := make(map[string]typeLayout, len(structs))
	pending := append([]wgslStruct(nil), structs...)
	for len(pending) > 0 {
		next := pending[:0]
		for _, s := range pending {
			if l, ok := structLayout(s, known); ok {
				known[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}
