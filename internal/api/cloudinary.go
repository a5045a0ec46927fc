package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/folio/internal/cloudinary"
)

const notConfiguredMessage = "Cloudinary not configured. Please set environment variables."

func (h *Handler) upstreamFailed(r *http.Request, err error) {
	slog.Error("cloudinary request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	if h.onUpstream != nil {
		h.onUpstream("cloudinary")
	}
}

func upstreamDetails(err error) string {
	var ue *cloudinary.UpstreamError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}

// CloudinaryUpload handles POST /api/cloudinary-upload. The file is
// forwarded to the image host and its JSON answer returned verbatim.
func (h *Handler) CloudinaryUpload(w http.ResponseWriter, r *http.Request) {
	if h.cloud == nil || !h.cloud.Configured() {
		slog.Error("cloudinary credentials are not configured")
		writeJSON(w, http.StatusInternalServerError, errorBody(notConfiguredMessage))
		return
	}
	name, mime, data, ok := h.formFile(w, r)
	if !ok {
		return
	}
	slog.Info("uploading to cloudinary",
		slog.String("filename", name),
		slog.Int("size", len(data)),
		slog.String("type", mime))

	raw, err := h.cloud.Upload(r.Context(), name, bytes.NewReader(data))
	if err != nil {
		h.upstreamFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "Upload failed", Details: upstreamDetails(err)})
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// CloudinaryTest handles GET /api/cloudinary-test: it pings the image host
// with the configured credentials.
func (h *Handler) CloudinaryTest(w http.ResponseWriter, r *http.Request) {
	env := newEnvCheck(h.cloud)
	if h.cloud == nil || !h.cloud.Configured() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":    "ERROR",
			"message":   "Cloudinary API connection failed",
			"error":     notConfiguredMessage,
			"env_check": env,
		})
		return
	}
	raw, err := h.cloud.Ping(r.Context())
	if err != nil {
		h.upstreamFailed(r, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":    "ERROR",
			"message":   "Cloudinary API connection failed",
			"error":     upstreamDetails(err),
			"env_check": env,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "SUCCESS",
		"message":         "Cloudinary API is connected and working",
		"cloudinary_ping": raw,
		"env_check":       env,
	})
}

// TestUploadStatus handles GET /api/test-upload.
func (h *Handler) TestUploadStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Upload API is working",
		"env":     newEnvCheck(h.cloud),
	})
}

// TestUpload handles POST /api/test-upload: it echoes what it received.
func (h *Handler) TestUpload(w http.ResponseWriter, r *http.Request) {
	name, mime, data, ok := h.formFile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, uploadEcho{
		Message:  "File received successfully",
		Filename: name,
		Size:     int64(len(data)),
		Type:     mime,
	})
}
