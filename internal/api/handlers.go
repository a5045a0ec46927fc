package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/cloudinary"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/richtext"
)

// maxDepth caps the ?depth= parameter.
const maxDepth = 10

// Handler holds API route handlers.
type Handler struct {
	svc            *blog.Service
	cloud          *cloudinary.Client
	maxUploadBytes int64
	sanitize       bool
	onUpstream     func(kind string)
}

// NewHandler creates a new Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		svc:            cfg.Service,
		cloud:          cfg.Cloudinary,
		maxUploadBytes: cfg.MaxUploadBytes,
		sanitize:       cfg.Sanitize,
		onUpstream:     cfg.OnUpstreamError,
	}
	if h.maxUploadBytes <= 0 {
		h.maxUploadBytes = defaultMaxUpload
	}
	return h
}

func intParam(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func depthParam(r *http.Request, def int) int {
	d := intParam(r, "depth", def)
	if d < 0 {
		return 0
	}
	return min(d, maxDepth)
}

func listParams(r *http.Request, defDepth int) blog.ListParams {
	q := r.URL.Query()
	return blog.ListParams{
		Status: q.Get("status"),
		Sort:   q.Get("sort"),
		Limit:  intParam(r, "limit", 0),
		Page:   intParam(r, "page", 1),
		Depth:  depthParam(r, defDepth),
	}
}

func setETag(w http.ResponseWriter, sum string) {
	if sum != "" {
		w.Header().Set("ETag", checksum.ETag(sum))
	}
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Posts(r.Context(), listParams(r, 1))
	if err != nil {
		writeError(w, r, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// PublicPosts handles GET /api/public-posts: published posts, newest
// first, fully populated.
func (h *Handler) PublicPosts(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.PublicPosts(r.Context(), intParam(r, "limit", blog.DefaultLimit), intParam(r, "page", 1))
	if err != nil {
		writeError(w, r, "public posts", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, sum, err := h.svc.Post(r.Context(), chi.URLParam(r, "id"), depthParam(r, blog.DefaultPostDepth))
	if err != nil {
		writeError(w, r, "get post", err)
		return
	}
	setETag(w, sum)
	writeJSON(w, http.StatusOK, p)
}

// GetPostBySlug handles GET /api/posts/slug/{slug}.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	p, sum, err := h.svc.PostBySlug(r.Context(), chi.URLParam(r, "slug"), depthParam(r, blog.DefaultPostDepth))
	if err != nil {
		writeError(w, r, "get post by slug", err)
		return
	}
	setETag(w, sum)
	writeJSON(w, http.StatusOK, p)
}

// CreatePost handles POST /api/posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var p content.Post
	if !readJSON(w, r, &p) {
		return
	}
	sum, err := h.svc.Create(r.Context(), &p)
	if err != nil {
		writeError(w, r, "create post", err)
		return
	}
	setETag(w, sum)
	writeJSON(w, http.StatusCreated, &p)
}

// PatchPost handles PATCH /api/posts/{id}. The body is shallow-merged into
// the stored post; If-Match guards against lost updates.
func (h *Handler) PatchPost(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if !readJSON(w, r, &patch) {
		return
	}
	ifMatch := checksum.ParseETag(r.Header.Get("If-Match"))
	p, sum, err := h.svc.PatchPost(r.Context(), chi.URLParam(r, "id"), patch, ifMatch)
	if err != nil {
		writeError(w, r, "patch post", err)
		return
	}
	setETag(w, sum)
	writeJSON(w, http.StatusOK, p)
}

// renderResponse is returned by GET /api/posts/{id}/html.
type renderResponse struct {
	ID          string               `json:"id"`
	HTML        string               `json:"html"`
	Failed      bool                 `json:"failed"`
	Diagnostics richtext.Diagnostics `json:"diagnostics"`
}

// RenderPost handles GET /api/posts/{id}/html.
func (h *Handler) RenderPost(w http.ResponseWriter, r *http.Request) {
	p, _, err := h.svc.Post(r.Context(), chi.URLParam(r, "id"), blog.DefaultPostDepth)
	if err != nil {
		writeError(w, r, "render post", err)
		return
	}
	res := h.svc.RenderPost(p)
	out := res.HTML()
	if h.sanitize {
		out = richtext.Sanitize(out)
	}
	diags := res.Diagnostics
	if diags == nil {
		diags = richtext.Diagnostics{}
	}
	writeJSON(w, http.StatusOK, renderResponse{ID: p.ID, HTML: out, Failed: res.Failed, Diagnostics: diags})
}

type fixContentRequest struct {
	Action string `json:"action"`
}

// FixContent handles POST /api/posts/{id}/content with action
// "reset-content" or "get-content".
func (h *Handler) FixContent(w http.ResponseWriter, r *http.Request) {
	var req fixContentRequest
	if !readJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	switch req.Action {
	case "reset-content":
		if err := h.svc.ResetPostContent(r.Context(), id); err != nil {
			writeError(w, r, "reset content", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Content reset successfully"})
	case "get-content":
		c, err := h.svc.PostContent(r.Context(), id)
		if err != nil {
			writeError(w, r, "get content", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "content": c})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid action"})
	}
}

// ResetAllPosts handles POST /api/reset-all-posts.
func (h *Handler) ResetAllPosts(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.ResetAllContent(r.Context())
	if err != nil {
		writeError(w, r, "reset all posts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Reset %d posts successfully", n),
	})
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results, err := h.svc.Search(r.Context(), q, intParam(r, "limit", 0))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, searchResult{ID: res.ID, Title: res.Title, Snippet: res.Snippet})
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

// Debug handles GET /api/debug.
func (h *Handler) Debug(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.DebugSnapshot(r.Context())
	if err != nil {
		writeError(w, r, "debug", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
