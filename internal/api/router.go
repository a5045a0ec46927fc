package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/cloudinary"
	"github.com/starford/folio/internal/content"
)

// Config wires the router to its dependencies.
type Config struct {
	Service    *blog.Service
	Cloudinary *cloudinary.Client // nil behaves as not configured
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler

	AuthEnabled bool
	Token       string

	// MaxUploadBytes caps multipart uploads; 0 means 50 MB.
	MaxUploadBytes int64
	// Sanitize runs rendered HTML through the content policy.
	Sanitize bool
	// OnUpstreamError is called with "cloudinary" when the image host fails.
	OnUpstreamError func(kind string)
}

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; mutations sit behind the Bearer token check.
func NewRouter(cfg Config) chi.Router {
	h := NewHandler(cfg)
	auth := AuthMiddleware(cfg.AuthEnabled, cfg.Token)

	r := chi.NewRouter()

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.ListPosts)
		r.With(auth).Post("/", h.CreatePost)
		r.Get("/slug/{slug}", h.GetPostBySlug)
		r.Get("/{id}", h.GetPost)
		r.With(auth).Patch("/{id}", h.PatchPost)
		r.With(auth).Delete("/{id}", h.deleteDocument(content.CollectionPosts))
		r.Get("/{id}/html", h.RenderPost)
		r.With(auth).Post("/{id}/content", h.FixContent)
	})
	r.Get("/public-posts", h.PublicPosts)
	r.With(auth).Post("/reset-all-posts", h.ResetAllPosts)

	collectionRoutes[content.Category](h, r, auth, "/categories", true)
	collectionRoutes[content.Tag](h, r, auth, "/tags", true)
	collectionRoutes[content.User](h, r, auth, "/users", true)
	collectionRoutes[content.Media](h, r, auth, "/media", false)
	r.With(auth).Post("/media", h.UploadMedia)

	r.Get("/search", h.Search)
	r.Get("/debug", h.Debug)

	r.With(auth).Post("/cloudinary-upload", h.CloudinaryUpload)
	r.Get("/cloudinary-test", h.CloudinaryTest)
	r.Get("/test-upload", h.TestUploadStatus)
	r.Post("/test-upload", h.TestUpload)

	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
