package regulation

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// OverrideWatcher hot-reloads the profile override file into a Registry
// whenever it changes on disk. Editors save in bursts, so events are
// debounced before a reload; a file that fails to parse leaves the
// previously loaded profiles in effect.
type OverrideWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	registry    *Registry
	path        string
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	reloads     int
}

// NewOverrideWatcher creates a watcher for the given override file. The
// file does not have to exist yet; its directory is watched so a later
// create is picked up.
func NewOverrideWatcher(path string, registry *Registry, logger *zap.Logger) (*OverrideWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &OverrideWatcher{
		watcher:     watcher,
		registry:    registry,
		path:        filepath.Clean(path),
		logger:      logger.Named("profile-watcher"),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start loads the file once if present, then begins watching. Non-blocking.
func (w *OverrideWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if _, err := os.Stat(w.path); err == nil {
		if err := w.registry.LoadOverrides(w.path); err != nil {
			w.logger.Warn("initial override load failed, using builtins", zap.Error(err))
		} else {
			w.bumpReloads()
		}
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("watch failed, overrides will not hot-reload",
			zap.String("dir", dir), zap.Error(err))
	} else {
		w.logger.Info("watching profile overrides", zap.String("path", w.path))
	}

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the loop to exit.
func (w *OverrideWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("closing watcher", zap.Error(err))
	}
}

func (w *OverrideWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))
		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

func (w *OverrideWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}
	w.mu.Lock()
	w.debounceMap[w.path] = time.Now()
	w.mu.Unlock()
}

func (w *OverrideWatcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	ready := false
	if t, ok := w.debounceMap[w.path]; ok && now.Sub(t) >= w.debounceDur {
		delete(w.debounceMap, w.path)
		ready = true
	}
	w.mu.Unlock()

	if !ready {
		return
	}
	if _, err := os.Stat(w.path); err != nil {
		// Removed or replaced mid-write; keep current profiles.
		return
	}
	if err := w.registry.LoadOverrides(w.path); err != nil {
		w.logger.Warn("override reload failed, keeping previous profiles", zap.Error(err))
		return
	}
	w.bumpReloads()
	w.logger.Info("profile overrides reloaded", zap.String("path", w.path))
}

func (w *OverrideWatcher) bumpReloads() {
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
}

// Reloads returns how many times the override file has been applied.
func (w *OverrideWatcher) Reloads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reloads
}
