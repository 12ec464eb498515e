package extensions

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher optionally re-runs Load whenever a watched extension directory's
// manifest.json changes, for live-reload during development. It is
// additive: nothing in the registry requires it, and it only runs once
// Start is called explicitly.
type Watcher struct {
	registry *Registry
	watcher  *fsnotify.Watcher
	dirToID  map[string]string
}

// NewWatcher creates a Watcher bound to registry. Call Start to begin
// watching, and Close to release the underlying inotify/kqueue handle.
func NewWatcher(registry *Registry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{registry: registry, watcher: fw, dirToID: map[string]string{}}, nil
}

// Watch loads dir once via the registry and then adds it to the set of
// extension directories monitored for manifest changes.
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	id, err := w.registry.Load(abs)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(abs); err != nil {
		return err
	}
	w.dirToID[abs] = id
	return nil
}

// Start runs the watch loop until ctx is cancelled. Any write or create
// event for manifest.json under a watched directory triggers a reload of
// that extension; a remove event unloads it.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != manifestFilename {
					continue
				}
				dir := filepath.Dir(ev.Name)
				switch {
				case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
					if id, err := w.registry.Load(dir); err != nil {
						slog.Warn("extension live-reload failed", "dir", dir, "error", err)
					} else {
						w.dirToID[dir] = id
						slog.Info("extension live-reloaded", "id", id, "dir", dir)
					}
				case ev.Op&fsnotify.Remove != 0:
					if id, ok := w.dirToID[dir]; ok {
						w.registry.Unload(id)
						delete(w.dirToID, dir)
						slog.Info("extension unloaded after manifest removal", "id", id, "dir", dir)
					}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("extension watcher error", "error", err)
			}
		}
	}()
}

// Close releases the watcher's underlying OS resources.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
