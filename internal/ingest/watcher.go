package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// RotationWatcher signals on C when the watched log file is removed,
// renamed, or recreated. The parent directory is watched rather than the
// file itself so a rename does not orphan the watch.
type RotationWatcher struct {
	C chan struct{}

	watcher *fsnotify.Watcher
	path    string
	log     *logrus.Entry
}

// NewRotationWatcher starts watching the log file's directory. Setup errors
// are returned to the caller and are fatal: once the watch cannot be
// established, future rotations would go undetected.
func NewRotationWatcher(path string, log *logrus.Logger) (*RotationWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &RotationWatcher{
		C:       make(chan struct{}, 1),
		watcher: watcher,
		path:    filepath.Clean(path),
		log:     log.WithField("component", "rotation-watcher"),
	}
	go w.loop()
	return w, nil
}

func (w *RotationWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.log.WithField("op", ev.Op.String()).Info("log file rotated")
			select {
			case w.C <- struct{}{}:
			default:
				// A rotation signal is already pending; one is enough.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("watcher error")
		}
	}
}

// Close stops the watcher.
func (w *RotationWatcher) Close() error {
	return w.watcher.Close()
}
