package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called with a document that changed on disk.
type ReloadCallback func(doc Document)

const reloadDebounce = 200 * time.Millisecond

// Watch watches the store's document and calls cb whenever it is changed by
// something other than the store itself, until ctx is cancelled.
//
// The parent directory is watched rather than the file, so editors that save
// by writing a temp file and renaming it into place are seen too.
// Bursts of events are debounced into a single reload.
func Watch(ctx context.Context, store *FileStore, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(store.Path())

	logger.Info("settings watcher: started", slog.String("path", target))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("settings watcher: stopped")
			return nil

		case <-reloadCh:
			doc, changed, loadErr := store.loadChanged()
			if loadErr != nil {
				logger.Warn("settings watcher: reload failed",
					slog.String("path", target),
					slog.String("error", loadErr.Error()))
				continue
			}
			if !changed {
				continue
			}
			logger.Info("settings watcher: document changed", slog.String("path", target))
			if cb != nil {
				cb(doc)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("settings watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
