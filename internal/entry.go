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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/casefolio/internal/api"
	"github.com/starford/casefolio/internal/assets"
	"github.com/starford/casefolio/internal/caseservice"
	"github.com/starford/casefolio/internal/index"
	"github.com/starford/casefolio/internal/mcpserver"
	"github.com/starford/casefolio/internal/render"
	"github.com/starford/casefolio/internal/sse"
	"github.com/starford/casefolio/internal/storage"
	"github.com/starford/casefolio/internal/tui"
)

const heartbeatInterval = 30 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) openStore() (*storage.FS, error) {
	cfg := a.config.Content
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Dir, cfg.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// openIndex opens the SQLite index and brings it in line with the content dir.
func (a *application) openIndex(store storage.Provider, logger *slog.Logger) (*index.DB, error) {
	db, err := index.Open(a.config.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, a.config.Content.NormalizeOptions(), logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return db, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("public_dir", cfg.Assets.PublicDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := app.openStore()
	if err != nil {
		return err
	}
	db, err := app.openIndex(store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	lib, err := assets.NewLibrary(cfg.Assets.PublicDir, logger)
	if err != nil {
		return fmt.Errorf("init assets: %w", err)
	}
	palette, err := cfg.Theme.Resolve()
	if err != nil {
		return err
	}

	broker := sse.NewBroker(cfg.App.HTTP.ListingThrottle, heartbeatInterval)
	defer broker.Close()

	svc := caseservice.NewService(store, db, cfg.Content.NormalizeOptions(), logger)
	apiRouter := api.NewRouter(api.Deps{
		Service:     svc,
		Renderer:    render.New(),
		Library:     lib,
		Theme:       palette,
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	api.MountAssets(r, lib)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher feeds the index and the SSE broker.
	g.Go(func() error {
		err := index.Watch(gCtx, db, store, cfg.Content.NormalizeOptions(), logger, broker.PublishCaseEvent)
		if err != nil && gCtx.Err() == nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the case library to an MCP client over stdio. The index
// is kept current by a watcher for as long as the session lasts.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	store, err := app.openStore()
	if err != nil {
		return err
	}
	db, err := app.openIndex(store, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	lib, err := assets.NewLibrary(cfg.Assets.PublicDir, logger)
	if err != nil {
		return fmt.Errorf("init assets: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := index.Watch(watchCtx, db, store, cfg.Content.NormalizeOptions(), logger, nil); err != nil && watchCtx.Err() == nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	svc := caseservice.NewService(store, db, cfg.Content.NormalizeOptions(), logger)
	logger.Info("MCP server starting on stdio", slog.String("content_dir", cfg.Content.Dir))
	return mcpserver.New(svc, lib, app.version).ServeStdio()
}

// RunBrowse opens the terminal browser. It reads the content dir directly
// and takes image sizes from the manifest file.
func RunBrowse(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(io.Discard)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	store, err := storage.NewFS(cfg.Content.Dir, cfg.Content.Extensions...)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	manifest, err := assets.Load(cfg.Assets.ManifestPath)
	if err != nil {
		logger.Warn("image manifest unreadable", slog.String("error", err.Error()))
		manifest = assets.Manifest{}
	}
	palette, err := cfg.Theme.Resolve()
	if err != nil {
		return err
	}

	svc := caseservice.NewService(store, nil, cfg.Content.NormalizeOptions(), logger)
	return tui.Run(ctx, svc, tui.Options{
		Theme:           palette,
		Sizes:           manifest,
		Interval:        cfg.Carousel.Interval,
		TransitionDelay: cfg.Carousel.TransitionDelay,
	})
}

// BuildManifest measures every image under the public dir and writes the
// manifest file.
func BuildManifest(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	m, err := assets.Scan(cfg.Assets.PublicDir, logger)
	if err != nil {
		return fmt.Errorf("scan %s: %w", cfg.Assets.PublicDir, err)
	}
	if err := m.Save(cfg.Assets.ManifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	logger.Info("Image manifest written",
		slog.String("path", cfg.Assets.ManifestPath),
		slog.Int("images", len(m)))
	return nil
}
