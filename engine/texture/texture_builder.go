package texture

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

const defaultIdleTimeout = 1 * time.Second

// defaultWorkers leaves one core for the render goroutine.
func defaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// ManagerBuilderOption is a functional option for configuring a texture Manager.
type ManagerBuilderOption func(*managerImpl)

// WithWorkerPool shares an existing worker pool for pixel conversion. The manager does not stop a shared pool.
//
// Parameters:
//   - pool: the pool to submit conversion tasks to
//
// Returns:
//   - ManagerBuilderOption: a function that sets the worker pool
func WithWorkerPool(pool worker.DynamicWorkerPool) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.pool = pool
	}
}

// WithTextureSize sets the edge length of an array layer. Source textures must divide it evenly.
//
// Parameters:
//   - size: the layer size in pixels
//
// Returns:
//   - ManagerBuilderOption: a function that sets the layer size
func WithTextureSize(size int) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.size = size
	}
}

// WithLogger sets the logger for skipped textures.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ManagerBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.logger = logger
	}
}
