package memory

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher notices external edits to memory files (e.g. a human hand-editing
// a fact in their editor) and logs them. It is optional and off by default;
// nothing in the core loop depends on it, per spec §4.1's note that the
// store itself does not require a running watch to stay correct.
type Watcher struct {
	fsw    *fsnotify.Watcher
	logger *slog.Logger
	done   chan struct{}
}

// WatchExternalEdits starts watching every category directory under the
// store's root for writes made outside this process. Call Close to stop.
func (s *Store) WatchExternalEdits() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, cat := range categoryOrder {
		if err := fsw.Add(s.categoryDir(cat)); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{fsw: fsw, logger: s.logger, done: make(chan struct{})}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.logger.Info("memory: external edit detected", "path", event.Name, "op", event.Op.String())
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("memory: watch error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
