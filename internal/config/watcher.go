package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadHandler is called when a watched file is created or modified.
type ReloadHandler func(path string) error

// Watcher hot-reloads data tables (routing.yaml, models.yaml) without a
// process restart. Handlers are keyed by base filename.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	mu       sync.RWMutex
	handlers map[string]ReloadHandler
	stopCh   chan struct{}
	started  bool
}

// NewWatcher creates a watcher over the given config directory.
func NewWatcher(configDir string, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fw.Add(configDir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", configDir, err)
	}
	return &Watcher{
		watcher:  fw,
		logger:   logger,
		handlers: make(map[string]ReloadHandler),
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a handler for a base filename, e.g. "routing.yaml".
func (w *Watcher) OnChange(file string, handler ReloadHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[file] = handler
}

// Start begins dispatching file events. Idempotent.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go w.loop()
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	close(w.stopCh)
	_ = w.watcher.Close()
	w.started = false
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.dispatch(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) dispatch(path string) {
	base := filepath.Base(path)
	w.mu.RLock()
	handler, ok := w.handlers[base]
	w.mu.RUnlock()
	if !ok {
		return
	}
	if err := handler(path); err != nil {
		w.logger.Warn("config reload failed",
			zap.String("file", base),
			zap.Error(err),
		)
		return
	}
	w.logger.Info("config reloaded", zap.String("file", base))
}
