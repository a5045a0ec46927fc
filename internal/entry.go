// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/blog"
	"github.com/starford/folio/internal/cloudinary"
	"github.com/starford/folio/internal/docstore"
	"github.com/starford/folio/internal/mediasync"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/richtext"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
)

// feedThrottle bounds how often feed.updated is pushed to SSE clients.
const feedThrottle = 2 * time.Second

// NewLogger builds the JSON logger used by every entry point and makes it
// the default.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// RenderOptions returns the renderer options selected by the config.
func RenderOptions(cfg RenderConfig) []richtext.Option {
	var opts []richtext.Option
	if cfg.ClassName != "" {
		opts = append(opts, richtext.WithClassName(cfg.ClassName))
	}
	if cfg.HeadingFallback != "" {
		opts = append(opts, richtext.WithHeadingFallback(cfg.HeadingFallback))
	}
	return opts
}

// Stores holds the opened persistence layers.
type Stores struct {
	DB    *docstore.DB
	Files *storage.FS
}

// Close releases the database.
func (s *Stores) Close() error {
	return s.DB.Close()
}

// OpenStores creates the media and database directories if needed and
// opens both.
func OpenStores(cfg *Config) (*Stores, error) {
	if err := os.MkdirAll(cfg.Media.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	files, err := storage.NewFS(cfg.Media.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := docstore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init docstore: %w", err)
	}
	return &Stores{DB: db, Files: files}, nil
}

// NewService builds the blog service over st with the configured media
// prefix and render options.
func NewService(cfg *Config, st *Stores, logger *slog.Logger, opts ...blog.Option) *blog.Service {
	base := []blog.Option{
		blog.WithLogger(logger),
		blog.WithMediaURLPrefix(cfg.Media.URLPrefix),
		blog.WithRenderOptions(RenderOptions(cfg.Render)...),
	}
	return blog.New(st.DB, st.Files, append(base, opts...)...)
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := NewLogger(os.Stdout, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("media_dir", cfg.Media.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("cloudinary_configured", cfg.Cloudinary.Client().Configured()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := OpenStores(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	collector := metrics.New()

	// SSE broker.
	broker := sse.NewBroker(feedThrottle)
	defer broker.Close()

	svc := NewService(cfg, st, logger,
		blog.WithEvents(eventCounter{broker: broker, m: collector}),
		blog.WithRenderObserver(collector.ObserveRender),
	)

	onMediaChange := func(kind, name string) {
		collector.MediaSync.WithLabelValues(kind).Inc()
		logger.Info("media file synced", slog.String("op", kind), slog.String("file", name))
	}

	// Run initial sync.
	if err := mediasync.Sync(ctx, svc, st.Files, logger, onMediaChange); err != nil {
		logger.Warn("initial media sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(api.Config{
		Service:        svc,
		Cloudinary:     cloudinary.New(cfg.Cloudinary.Client()),
		Events:         broker,
		AuthEnabled:    cfg.Auth.AuthEnabled(),
		Token:          cfg.Auth.Token,
		MaxUploadBytes: cfg.Media.MaxUploadBytes(),
		Sanitize:       cfg.Render.Sanitize,
		OnUpstreamError: func(kind string) {
			collector.UpstreamErrors.WithLabelValues(kind).Inc()
		},
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(collector.Middleware)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := svc.Ping(); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			writeStatus(w, http.StatusServiceUnavailable, `{"status":"unavailable"}`)
			return
		}
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})
	r.Method(http.MethodGet, "/metrics", collector.Handler())
	r.Get(cfg.Media.URLPrefix+"/*", api.MediaFiles(st.Files.Root()))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	// Keep media docs in step with files dropped into the media dir.
	if cfg.Media.Watch {
		g.Go(func() error {
			if err := mediasync.Watch(gCtx, svc, st.Files, logger, onMediaChange); err != nil {
				logger.Error("media watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		var err error
		if app.listener != nil {
			logger.Info("Starting HTTP server", slog.String("address", app.listener.Addr().String()))
			err = httpServer.Serve(app.listener)
		} else {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stop()
		// SSE streams only end when their channel closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// eventCounter forwards document events to the broker and counts them.
type eventCounter struct {
	broker *sse.Broker
	m      *metrics.Collector
}

func (e eventCounter) PublishDocument(ev sse.DocumentEvent) {
	e.m.DocumentEvents.WithLabelValues(ev.Collection, ev.Kind).Inc()
	e.broker.PublishDocument(ev)
}
