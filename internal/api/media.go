package api

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/storage"
)

const defaultMaxUpload = 50 << 20 // 50 MB

// formFile reads the "file" field of a multipart request. ok is false when
// the response has already been written.
func (h *Handler) formFile(w http.ResponseWriter, r *http.Request) (name, mime string, data []byte, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return "", "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No file provided"))
		return "", "", nil, false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return "", "", nil, false
	}
	return header.Filename, header.Header.Get("Content-Type"), data, true
}

// UploadMedia handles POST /api/media (multipart/form-data, fields "file",
// "alt" and "caption").
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	name, _, data, ok := h.formFile(w, r)
	if !ok {
		return
	}
	m, err := h.svc.UploadMedia(r.Context(), blog.Upload{
		Filename: name,
		Data:     data,
		Alt:      r.FormValue("alt"),
		Caption:  r.FormValue("caption"),
	})
	if err != nil {
		writeError(w, r, "upload media", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// MediaFiles serves stored media under root at GET /media/*.
func MediaFiles(root string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+chi.URLParam(r, "*")), "/")
		if name == "" || !storage.IsMediaFile(name) || hiddenPath(name) {
			http.NotFound(w, r)
			return
		}
		abs := filepath.Join(root, filepath.FromSlash(name))
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeFile(w, r, abs)
	}
}

func hiddenPath(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
