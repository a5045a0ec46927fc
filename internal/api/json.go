package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/blog"
)

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// readJSON decodes a capped request body into v.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid JSON body", Details: err.Error()})
		return false
	}
	return true
}

// writeError maps service errors to a status and a JSON body. Unknown
// errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verrs validation.Errors
	switch {
	case errors.Is(err, apperr.ErrInvalid):
		body := errResponse{Error: "validation failed"}
		if errors.As(err, &verrs) {
			body.Details = verrs
		} else {
			body.Details = err.Error()
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("checksum mismatch"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, blog.ErrNoStorage):
		writeJSON(w, http.StatusInternalServerError, errorBody("media storage not configured"))
	default:
		slog.Error(op+" failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error", Details: err.Error()})
	}
}
