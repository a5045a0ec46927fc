package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/content"
)

// docPtr is satisfied by pointers to collection models.
type docPtr[T any] interface {
	*T
	content.Document
}

// collectionRoutes mounts list, get, patch and delete for one collection
// under prefix, plus create when withCreate is set.
func collectionRoutes[T any, P docPtr[T]](h *Handler, r chi.Router, auth func(http.Handler) http.Handler, prefix string, withCreate bool) {
	coll := P(new(T)).CollectionName()
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", listDocuments[T, P](h))
		if withCreate {
			r.With(auth).Post("/", createDocument[T, P](h))
		}
		r.Get("/{id}", getDocument[T, P](h))
		r.With(auth).Patch("/{id}", patchDocument[T, P](h))
		r.With(auth).Delete("/{id}", h.deleteDocument(coll))
	})
}

func listDocuments[T any, P docPtr[T]](h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := blog.List[T, P](r.Context(), h.svc, listParams(r, 1))
		if err != nil {
			writeError(w, r, "list", err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func getDocument[T any, P docPtr[T]](h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, sum, err := blog.Get[T, P](r.Context(), h.svc, chi.URLParam(r, "id"), depthParam(r, 1))
		if err != nil {
			writeError(w, r, "get", err)
			return
		}
		setETag(w, sum)
		writeJSON(w, http.StatusOK, doc)
	}
}

func createDocument[T any, P docPtr[T]](h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc := P(new(T))
		if !readJSON(w, r, doc) {
			return
		}
		sum, err := h.svc.Create(r.Context(), doc)
		if err != nil {
			writeError(w, r, "create", err)
			return
		}
		setETag(w, sum)
		writeJSON(w, http.StatusCreated, doc)
	}
}

func patchDocument[T any, P docPtr[T]](h *Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch map[string]any
		if !readJSON(w, r, &patch) {
			return
		}
		ifMatch := checksum.ParseETag(r.Header.Get("If-Match"))
		doc, sum, err := blog.Patch[T, P](r.Context(), h.svc, chi.URLParam(r, "id"), patch, ifMatch, 1)
		if err != nil {
			writeError(w, r, "patch", err)
			return
		}
		setETag(w, sum)
		writeJSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) deleteDocument(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.Delete(r.Context(), collection, chi.URLParam(r, "id")); err != nil {
			writeError(w, r, "delete "+collection, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}
