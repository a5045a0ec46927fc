// Package mediasync keeps media documents in step with the files in the
// media directory.
package mediasync

import (
	"context"
	"errors"
	"log/slog"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// Registry records media files as documents.
type Registry interface {
	RegisterFile(ctx context.Context, name string) (*content.Media, string, error)
	ForgetFile(ctx context.Context, name string) error
	LocalFiles(ctx context.Context) (map[string]struct{}, error)
}

// EventCallback is called after each change applied to the registry.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, name string)

// Sync walks the media directory and brings the registry up to date:
//   - files without a document get one
//   - changed files get their size and dimensions refreshed
//   - documents whose file is gone are deleted
func Sync(ctx context.Context, reg Registry, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	files, err := store.List("")
	if err != nil {
		return err
	}
	known, err := reg.LocalFiles(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Name] = struct{}{}
		register(ctx, reg, f.Name, logger, cb)
	}

	for name := range known {
		if _, ok := disk[name]; ok {
			continue
		}
		forget(ctx, reg, name, logger, cb)
	}
	return nil
}

func register(ctx context.Context, reg Registry, name string, logger *slog.Logger, cb EventCallback) {
	_, kind, err := reg.RegisterFile(ctx, name)
	if err != nil {
		logger.Warn("mediasync: register failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}
	if kind == "" {
		return
	}
	logger.Debug("mediasync: registered", slog.String("file", name), slog.String("op", kind))
	if cb != nil {
		cb(kind, name)
	}
}

func forget(ctx context.Context, reg Registry, name string, logger *slog.Logger, cb EventCallback) {
	err := reg.ForgetFile(ctx, name)
	if errors.Is(err, apperr.ErrNotFound) {
		return
	}
	if err != nil {
		logger.Warn("mediasync: forget failed", slog.String("file", name), slog.String("error", err.Error()))
		return
	}
	logger.Debug("mediasync: removed stale", slog.String("file", name))
	if cb != nil {
		cb(sse.Deleted, name)
	}
}
