package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// FileWatcher follows the configuration file and pushes valid changes into the Manager.
// Editors often replace the file instead of writing it in place, so the parent directory
// is watched and events are filtered by name.
type FileWatcher struct {
	watcher       *fsnotify.Watcher
	manager       *Manager
	path          string
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewFileWatcher creates a watcher for the configuration file at path.
func NewFileWatcher(path string, manager *Manager) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &FileWatcher{
		watcher:  watcher,
		manager:  manager,
		path:     abs,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching the configuration file.
func (w *FileWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	slog.Info("Watching configuration file", "path", w.path)
	go w.watchLoop(ctx)
	return nil
}

// Stop stops the configuration watcher
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.debounceMutex.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
			w.debounceTimer = nil
		}
		w.debounceMutex.Unlock()
		w.watcher.Close()
	})
}

func (w *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			w.Stop()
			return
		}
	}
}

func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(reloadDebounce, w.reload)
}

// reload re-reads the file. Invalid content is logged and the running configuration kept.
func (w *FileWatcher) reload() {
	cfg, err := ReadFile(w.path)
	if err != nil {
		slog.Error("Ignoring invalid configuration change", "path", w.path, "error", err)
		return
	}
	slog.Info("Configuration file changed, applying", "path", w.path)
	w.manager.Update(cfg)
}
