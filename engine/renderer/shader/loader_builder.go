package shader

import "path"

// LoaderBuilderOption is a functional option for configuring a Loader.
type LoaderBuilderOption func(*loader)

// WithDefine sets a default define applied to every Load call.
//
// Parameters:
//   - name: the define name
//   - value: the substituted value, empty for a flag used only by #ifdef
//
// Returns:
//   - LoaderBuilderOption: a function that applies the define
func WithDefine(name, value string) LoaderBuilderOption {
	return func(l *loader) {
		l.defines[name] = value
	}
}

// WithSource registers an in-memory source at construction time.
//
// Parameters:
//   - name: the name used by Load and #include
//   - source: the WGSL source text
//
// Returns:
//   - LoaderBuilderOption: a function that registers the source
func WithSource(name, source string) LoaderBuilderOption {
	return func(l *loader) {
		l.sources[path.Clean(name)] = source
	}
}
