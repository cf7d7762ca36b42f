// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/presets"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/templates"
)

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

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("templates_root", cfg.Templates.Root),
		slog.String("templates_folder", cfg.Templates.Folder),
		slog.String("presets_path", cfg.Presets.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure the root directory exists.
	if err := os.MkdirAll(cfg.Templates.Root, 0o755); err != nil {
		return fmt.Errorf("create templates root: %w", err)
	}

	// Initialize the file-system provider and notifier.
	fsys, err := storage.NewFS(cfg.Templates.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	notifier := storage.NewFSNotifier(fsys, logger)

	// Initialize the preset store.
	store, err := presets.Open(cfg.Presets.Path)
	if err != nil {
		return fmt.Errorf("init preset store: %w", err)
	}
	defer store.Close()

	// Template index with initial load.
	index := templates.New(fsys, notifier, templates.Config{
		Folder:     cfg.Templates.Folder,
		Extensions: cfg.Templates.Extensions,
		Debounce:   cfg.Templates.Debounce(),
	}, logger)

	snap := index.Load(ctx)
	if snap.Status == templates.StatusError {
		logger.Warn("initial template load failed", slog.String("message", snap.Message))
	}

	// SSE broker with index change bridge.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	index.OnChange(func(kind, folder string) {
		broker.PublishIndexEvent(kind, folder)
	})

	// Build API handler and router.
	h := api.NewHandler(index, store, cfg.Matcher.Options())
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the folder watcher.
	if err := index.StartWatching(gCtx); err != nil {
		logger.Warn("watcher could not start", slog.String("error", err.Error()))
	}
	defer index.Dispose()

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio instead of HTTP. The watcher is
// not started; templates are loaded once at startup.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Stdout carries the MCP transport; log to stderr.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	fsys, err := storage.NewFS(cfg.Templates.Root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	store, err := presets.Open(cfg.Presets.Path)
	if err != nil {
		return fmt.Errorf("init preset store: %w", err)
	}
	defer store.Close()

	index := templates.New(fsys, nil, templates.Config{
		Folder:     cfg.Templates.Folder,
		Extensions: cfg.Templates.Extensions,
	}, logger)
	index.Load(ctx)

	srv := mcpserver.New(index, store, cfg.Matcher.Options())
	return srv.ServeStdio()
}
