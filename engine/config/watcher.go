package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

type watcherImpl struct {
	path     string
	logger   *slog.Logger
	onChange func(Config)

	current atomic.Pointer[Config]
	fs      *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// Watcher is a Source that follows a config file, reloading it whenever it is written or replaced.
// A file that fails to decode is logged and the previous options are kept.
type Watcher interface {
	Source

	// Reload reads the file immediately. A missing file yields the defaults, an empty file is ignored.
	//
	// Returns:
	//   - error: the read or decode error, in which case the current options are unchanged
	Reload() error

	// Close stops watching the file.
	//
	// Returns:
	//   - error: an error if the underlying watcher fails to close
	Close() error
}

var _ Watcher = &watcherImpl{}

// NewWatcher loads path and starts watching it for changes.
// The containing directory is watched so that editors which replace the file are followed.
//
// Parameters:
//   - path: the config file to follow
//   - options: functional options to configure the watcher
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if the directory cannot be watched
func NewWatcher(path string, options ...WatcherBuilderOption) (Watcher, error) {
	w := &watcherImpl{
		path:   filepath.Clean(path),
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}

	initial := Default()
	w.current.Store(&initial)
	if err := w.Reload(); err != nil {
		w.logger.Warn("config load failed, using defaults", "path", w.path, "error", err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(w.path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fs = fs

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcherImpl) run() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.Reload(); err != nil {
				w.logger.Warn("config reload failed, keeping previous options", "path", w.path, "error", err)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "path", w.path, "error", err)
		case <-w.done:
			return
		}
	}
}

func (w *watcherImpl) Current() Config {
	return *w.current.Load()
}

func (w *watcherImpl) Reload() error {
	data, err := os.ReadFile(w.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = nil
	case err != nil:
		return fmt.Errorf("read config %s: %w", w.path, err)
	case len(data) == 0:
		// editors truncate before writing; the next write event carries the contents
		w.logger.Debug("config file empty, keeping current options", "path", w.path)
		return nil
	}
	cfg, err := decode(w.path, data)
	if err != nil {
		return err
	}
	prev := w.current.Swap(&cfg)
	if prev != nil && *prev == cfg {
		return nil
	}
	w.logger.Info("config loaded",
		"path", w.path,
		"draw_distance", cfg.DrawDistance,
		"fog_depth", cfg.FogDepth,
		"anti_aliasing", cfg.AntiAliasing.String(),
		"smooth_banding", cfg.SmoothBanding,
	)
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return nil
}

func (w *watcherImpl) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
