// loader.go implements the WGSL source loader. WGSL has no preprocessor, so the
// loader provides a small line-based one on top of an fs.FS:
//
//   - #include "file"   splices another source in place, at most once per Load
//   - #define NAME value  defines NAME; caller supplied defines take precedence
//   - #undef NAME
//   - #ifdef / #ifndef / #else / #endif  conditional blocks, balanced per file
//
// Defined names with a non-empty value are substituted as whole identifier tokens
// in every emitted line.
package shader

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"
)

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// maxIncludeDepth bounds nested includes.
const maxIncludeDepth = 32

type loader struct {
	mu      sync.RWMutex
	fsys    fs.FS
	sources map[string]string
	defines map[string]string
}

// Loader resolves named WGSL sources into preprocessed WGSL text.
type Loader interface {
	// Load reads the named source, resolves its includes and conditionals, and substitutes defines.
	//
	// Parameters:
	//   - name: the source name, looked up in registered sources first and then in the file system
	//   - defines: per-call defines, overriding both loader defaults and in-source #define values
	//
	// Returns:
	//   - string: the preprocessed WGSL source
	//   - error: ErrResourceNotFound or ErrMalformedDirective wrapped with the offending file name
	Load(name string, defines map[string]string) (string, error)

	// Register stores an in-memory source under name. Registered sources shadow file system entries.
	//
	// Parameters:
	//   - name: the name used by Load and #include
	//   - source: the WGSL source text
	Register(name, source string)
}

var _ Loader = &loader{}

// NewLoader creates a Loader reading from fsys. fsys may be nil when every source is registered in memory.
//
// Parameters:
//   - fsys: the file system holding WGSL sources
//   - options: functional options applied to the loader
//
// Returns:
//   - Loader: the configured loader
func NewLoader(fsys fs.FS, options ...LoaderBuilderOption) Loader {
	l := &loader{
		fsys:    fsys,
		sources: make(map[string]string),
		defines: make(map[string]string),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *loader) Register(name, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources[path.Clean(name)] = source
}

// loadState is the per-call preprocessor state.
type loadState struct {
	defines  map[string]string
	pinned   map[string]bool
	included map[string]bool
	out      []string
}

func (l *loader) Load(name string, defines map[string]string) (string, error) {
	st := &loadState{
		defines:  make(map[string]string, len(l.defines)+len(defines)),
		pinned:   make(map[string]bool, len(defines)),
		included: make(map[string]bool),
	}
	l.mu.RLock()
	for k, v := range l.defines {
		st.defines[k] = v
	}
	l.mu.RUnlock()
	for k, v := range defines {
		st.defines[k] = v
		st.pinned[k] = true
	}

	if err := l.process(st, path.Clean(name), 0); err != nil {
		return "", err
	}
	return strings.Join(st.out, "\n"), nil
}

// read resolves name to source text, registered sources first.
func (l *loader) read(name string) (string, error) {
	l.mu.RLock()
	src, ok := l.sources[name]
	l.mu.RUnlock()
	if ok {
		return src, nil
	}
	if l.fsys == nil {
		return "", fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrResourceNotFound, name)
	}
	return string(data), nil
}

// resolve finds an include relative to the including file, falling back to the root.
func (l *loader) resolve(includer, name string) (string, string, error) {
	if dir := path.Dir(includer); dir != "." {
		rel := path.Join(dir, name)
		if src, err := l.read(rel); err == nil {
			return rel, src, nil
		}
	}
	clean := path.Clean(name)
	src, err := l.read(clean)
	return clean, src, err
}

// condFrame is one level of #ifdef nesting.
type condFrame struct {
	taken  bool
	parent bool
	inElse bool
	line   int
}

func (l *loader) process(st *loadState, name string, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("%w: %s: include depth exceeds %d", ErrMalformedDirective, name, maxIncludeDepth)
	}
	src, err := l.read(name)
	if err != nil {
		return err
	}
	st.included[name] = true

	var stack []condFrame
	active := func() bool {
		if len(stack) == 0 {
			return true
		}
		top := stack[len(stack)-1]
		return top.parent && top.taken
	}

	for i, line := range strings.Split(src, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				st.out = append(st.out, st.substitute(line))
			}
			continue
		}

		directive, arg, _ := strings.Cut(strings.TrimPrefix(trimmed, "#"), " ")
		arg = strings.TrimSpace(arg)
		switch directive {
		case "ifdef", "ifndef":
			if arg == "" {
				return malformed(name, lineNo, "#%s without a name", directive)
			}
			_, defined := st.defines[arg]
			stack = append(stack, condFrame{
				taken:  defined == (directive == "ifdef"),
				parent: active(),
				line:   lineNo,
			})
		case "else":
			if len(stack) == 0 {
				return malformed(name, lineNo, "#else without #ifdef")
			}
			top := &stack[len(stack)-1]
			if top.inElse {
				return malformed(name, lineNo, "duplicate #else")
			}
			top.inElse = true
			top.taken = !top.taken
		case "endif":
			if len(stack) == 0 {
				return malformed(name, lineNo, "#endif without #ifdef")
			}
			stack = stack[:len(stack)-1]
		case "define":
			if !active() {
				continue
			}
			key, value, _ := strings.Cut(arg, " ")
			if key == "" {
				return malformed(name, lineNo, "#define without a name")
			}
			if !st.pinned[key] {
				st.defines[key] = strings.TrimSpace(value)
			}
		case "undef":
			if !active() {
				continue
			}
			if arg == "" {
				return malformed(name, lineNo, "#undef without a name")
			}
			if !st.pinned[arg] {
				delete(st.defines, arg)
			}
		case "include":
			if !active() {
				continue
			}
			inc, ok := quoted(arg)
			if !ok {
				return malformed(name, lineNo, "#include expects a quoted file name")
			}
			resolved, _, err := l.resolve(name, inc)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", name, lineNo, err)
			}
			if st.included[resolved] {
				continue
			}
			if err := l.process(st, resolved, depth+1); err != nil {
				return err
			}
		default:
			return malformed(name, lineNo, "unknown directive #%s", directive)
		}
	}

	if len(stack) > 0 {
		return malformed(name, stack[len(stack)-1].line, "unterminated conditional")
	}
	return nil
}

func (st *loadState) substitute(line string) string {
	if len(st.defines) == 0 {
		return line
	}
	return identifierPattern.ReplaceAllStringFunc(line, func(tok string) string {
		if v, ok := st.defines[tok]; ok && v != "" {
			return v
		}
		return tok
	})
}

func quoted(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
		return "", false
	}
	inner := arg[1 : len(arg)-1]
	return inner, inner != ""
}

func malformed(name string, line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w: %s", name, line, ErrMalformedDirective, fmt.Sprintf(format, args...))
}
