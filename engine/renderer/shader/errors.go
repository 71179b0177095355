package shader

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceNotFound is returned by the Loader when a shader or an included file cannot be resolved.
	ErrResourceNotFound = errors.New("shader: resource not found")

	// ErrMalformedDirective is returned by the Loader for an unknown or unbalanced preprocessor directive.
	ErrMalformedDirective = errors.New("shader: malformed directive")
)

// BuildErrorKind classifies the step of program construction that failed.
type BuildErrorKind int

const (
	// CompileFailed indicates the driver rejected a shader module.
	CompileFailed BuildErrorKind = iota

	// LinkFailed indicates pipeline or pipeline layout creation failed.
	LinkFailed

	// ValidateFailed indicates the reflected shader interface is unusable.
	ValidateFailed
)

func (k BuildErrorKind) String() string {
	switch k {
	case CompileFailed:
		return "compile"
	case LinkFailed:
		return "link"
	case ValidateFailed:
		return "validate"
	default:
		return fmt.Sprintf("BuildErrorKind(%d)", int(k))
	}
}

// BuildError describes a failure to turn shader source into a usable GPU program.
// It is always fatal to the renderer.
type BuildError struct {
	Kind  BuildErrorKind
	Stage ShaderType
	Key   string
	Log   string
	Err   error
}

// NewBuildError creates a BuildError for the shader identified by key.
//
// Parameters:
//   - kind: the failed build step
//   - stage: the shader stage being built
//   - key: the shader or pipeline key
//   - log: a human readable description of the failure
//   - err: the underlying driver error, may be nil
//
// Returns:
//   - *BuildError: the constructed error
func NewBuildError(kind BuildErrorKind, stage ShaderType, key, log string, err error) *BuildError {
	return &BuildError{Kind: kind, Stage: stage, Key: key, Log: log, Err: err}
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("shader %s: %s %s failed: %s", e.Key, e.Stage, e.Kind, e.Log)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}
