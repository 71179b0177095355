package config

import "log/slog"

// WatcherBuilderOption is a functional option for configuring a Watcher.
type WatcherBuilderOption func(*watcherImpl)

// WithLogger sets the logger used for reload messages.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - WatcherBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) WatcherBuilderOption {
	return func(w *watcherImpl) {
		w.logger = logger
	}
}

// WithOnChange registers a callback invoked after each successful reload that changed the options.
// The callback runs on the watcher goroutine.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - WatcherBuilderOption: a function that sets the callback
func WithOnChange(fn func(Config)) WatcherBuilderOption {
	return func(w *watcherImpl) {
		w.onChange = fn
	}
}
