package engine

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-gpu/engine/classifier"
	"github.com/Carmen-Shannon/oxy-gpu/engine/config"
	"github.com/Carmen-Shannon/oxy-gpu/engine/profiler"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithBackend sets the GPU backend the engine drives. Required.
//
// Parameters:
//   - b: the backend, usually NewGPUBackend(window)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b Backend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithWindow sets the window whose surface identity and size the engine follows.
//
// Parameters:
//   - s: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(s Surface) EngineBuilderOption {
	return func(e *engine) {
		e.surface = s
	}
}

// WithConfig sets where the user options are read from once per frame.
// Defaults to config.Default().
//
// Parameters:
//   - src: the option source, such as a config.Watcher
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(src config.Source) EngineBuilderOption {
	return func(e *engine) {
		if src != nil {
			e.config = src
		}
	}
}

// WithLogger sets the logger for state changes and frame errors.
//
// Parameters:
//   - logger: the logger, slog.Default() when nil
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithMaxTriangles lowers the number of triangles drawn for one model below classifier.MaxTriangles.
// Triangles past the cap are dropped.
//
// Parameters:
//   - n: the per-model triangle cap
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMaxTriangles(n int) EngineBuilderOption {
	return func(e *engine) {
		e.classifierOptions = append(e.classifierOptions, classifier.WithMaxTriangles(n))
	}
}
