package mediasync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/folio/internal/storage"
)

// settle is how long the watcher waits after the last event for a file
// before registering it, so partially written uploads are not read.
const settle = 150 * time.Millisecond

// reconcileDelay debounces the full pass that follows renames.
const reconcileDelay = 200 * time.Millisecond

// Watch watches the media directory and applies changes to reg until ctx
// is cancelled.
//
// New directories are added to the watch list as they appear. Renames fire
// on the old path only, so they trigger a debounced Sync that picks up the
// new name.
func Watch(ctx context.Context, reg Registry, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	root := store.Root()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("mediasync: watching", slog.String("root", root))

	pending := make(map[string]time.Time)
	tick := time.NewTicker(settle / 3)
	defer tick.Stop()

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}
	defer func() {
		if reconcileTimer != nil {
			reconcileTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("mediasync: stopped")
			return nil

		case <-reconcileCh:
			if err := Sync(ctx, reg, store, logger, cb); err != nil {
				logger.Warn("mediasync: reconcile failed", slog.String("error", err.Error()))
			}

		case now := <-tick.C:
			for name, at := range pending {
				if now.Sub(at) < settle {
					continue
				}
				delete(pending, name)
				if store.Exists(name) {
					register(ctx, reg, name, logger, cb)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("mediasync: add dir failed", slog.String("path", ev.Name), slog.String("error", addErr.Error()))
					}
					scheduleReconcile()
					continue
				}
			}

			base := filepath.Base(ev.Name)
			if strings.HasPrefix(base, ".") || !storage.IsMediaFile(base) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			name := filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[name] = time.Now()
			case ev.Op&fsnotify.Remove != 0:
				delete(pending, name)
				forget(ctx, reg, name, logger, cb)
			case ev.Op&fsnotify.Rename != 0:
				delete(pending, name)
				forget(ctx, reg, name, logger, cb)
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("mediasync: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
