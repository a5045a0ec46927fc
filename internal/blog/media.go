package blog

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// ErrNoStorage is returned by upload operations when no media directory is
// configured.
var ErrNoStorage = errors.New("blog: media storage not configured")

// Upload is a file to store as media.
type Upload struct {
	Filename string
	Data     []byte
	Alt      string
	Caption  string
}

// MediaURL returns the public URL of a stored file.
func (s *Service) MediaURL(name string) string {
	return strings.TrimSuffix(s.mediaURL, "/") + "/" + strings.TrimPrefix(path.Clean("/"+name), "/")
}

func detectMime(name string, data []byte) string {
	if mt := storage.MimeType(name); mt != "" {
		return mt
	}
	return http.DetectContentType(data)
}

// UploadMedia stores a file under a unique name and creates its media
// document.
func (s *Service) UploadMedia(ctx context.Context, up Upload) (*content.Media, error) {
	if s.files == nil {
		return nil, ErrNoStorage
	}
	if len(up.Data) == 0 {
		return nil, invalid(validation.Errors{"file": validation.NewError("validation_file_empty", "file is empty")})
	}

	name := storage.SanitizeName(up.Filename)
	if !storage.IsMediaFile(name) {
		ext := storage.ExtFor(http.DetectContentType(up.Data))
		if ext == "" {
			return nil, invalid(validation.Errors{"file": validation.NewError("validation_file_type", "must be an image")})
		}
		name = strings.TrimSuffix(name, path.Ext(name)) + ext
	}
	name = storage.UniqueName(s.files, name)

	// The document goes in first so the media watcher finds it when the
	// file appears.
	m := s.mediaFor(name, up.Data)
	m.Alt = up.Alt
	m.Caption = up.Caption
	if _, err := s.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := s.files.Write(name, up.Data); err != nil {
		if delErr := s.db.Delete(ctx, content.CollectionMedia, m.ID); delErr != nil {
			s.logger.Warn("rollback media document", slog.String("id", m.ID), slog.String("error", delErr.Error()))
		}
		return nil, err
	}
	s.hooks.AfterReadMedia(m)
	return m, nil
}

func (s *Service) mediaFor(name string, data []byte) *content.Media {
	m := &content.Media{
		Filename: name,
		MimeType: detectMime(name, data),
		Filesize: int64(len(data)),
		URL:      s.MediaURL(name),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		m.Width, m.Height = cfg.Width, cfg.Height
	}
	return m
}

// RegisterFile makes sure a file already in the media directory has a
// media document. It returns sse.Created for a new document, sse.Updated
// when the stored size or dimensions changed and "" otherwise.
func (s *Service) RegisterFile(ctx context.Context, name string) (*content.Media, string, error) {
	if s.files == nil {
		return nil, "", ErrNoStorage
	}
	data, err := s.files.Read(name)
	if err != nil {
		return nil, "", err
	}
	fresh := s.mediaFor(name, data)

	existing, _, err := GetByHandle[content.Media](ctx, s, name, 0)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if _, err := s.Create(ctx, fresh); err != nil {
			return nil, "", err
		}
		s.hooks.AfterReadMedia(fresh)
		return fresh, sse.Created, nil
	case err != nil:
		return nil, "", err
	}

	if existing.Filesize == fresh.Filesize && existing.Width == fresh.Width && existing.Height == fresh.Height {
		return existing, "", nil
	}
	updated, _, err := Patch[content.Media](ctx, s, existing.ID, map[string]any{
		"filesize": fresh.Filesize,
		"width":    fresh.Width,
		"height":   fresh.Height,
		"mimeType": fresh.MimeType,
	}, "", 0)
	if err != nil {
		return nil, "", err
	}
	return updated, sse.Updated, nil
}

// ForgetFile deletes the media document of a file removed from disk.
func (s *Service) ForgetFile(ctx context.Context, name string) error {
	m, _, err := GetByHandle[content.Media](ctx, s, name, 0)
	if err != nil {
		return err
	}
	return s.Delete(ctx, content.CollectionMedia, m.ID)
}

// LocalFiles returns the filenames of media documents served from the
// media directory. Documents pointing at external URLs are skipped.
func (s *Service) LocalFiles(ctx context.Context) (map[string]struct{}, error) {
	handles, err := s.db.Handles(ctx, content.CollectionMedia)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(handles))
	for _, id := range handles {
		ids = append(ids, id)
	}
	docs, err := fetch[content.Media](ctx, s, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(docs))
	for _, m := range docs {
		if m.URL == s.MediaURL(m.Filename) {
			out[m.Filename] = struct{}{}
		}
	}
	return out, nil
}

func (s *Service) removeFile(name string) {
	if s.files == nil || name == "" || !s.files.Exists(name) {
		return
	}
	if err := s.files.Delete(name); err != nil {
		s.logger.Warn("remove media file", slog.String("file", name), slog.String("error", err.Error()))
	}
}
