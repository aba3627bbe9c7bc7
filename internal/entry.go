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
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"

	"github.com/starford/komaokuri/internal/api"
	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/frameexport"
	"github.com/starford/komaokuri/internal/mcpserver"
	"github.com/starford/komaokuri/internal/player"
	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/settings"
	"github.com/starford/komaokuri/internal/sse"
)

const sessionUpdateThrottle = 100 * time.Millisecond

// NewLogger returns a text logger when out is a terminal and a JSON logger
// otherwise.
func NewLogger(out *os.File, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

// services is the wired review stack shared by the HTTP and MCP surfaces.
type services struct {
	broker *sse.Broker
	remote *player.Remote
	store  *settings.FileStore
	ctrl   *session.Controller
}

func newServices(cfg *Config, logger *slog.Logger) (*services, error) {
	exporter, err := frameexport.New(cfg.Export.Dir, cfg.Export.MaxWidth, logger)
	if err != nil {
		return nil, fmt.Errorf("init frame export: %w", err)
	}

	store, err := settings.NewFileStore(cfg.Settings.Path)
	if err != nil {
		return nil, fmt.Errorf("init settings store: %w", err)
	}

	broker := sse.NewBroker(sessionUpdateThrottle)
	remote := player.NewRemote(broker, exporter, logger)

	var ctrl *session.Controller
	ctrl, err = session.New(cfg.SessionConfig(), remote,
		session.WithFrameExporter(remote),
		session.WithSettingsSink(store),
		session.WithLogger(logger),
		session.WithListener(func(kind string) {
			logger.Debug("session changed", slog.String("kind", kind))
			broker.PublishSessionUpdate(ctrl.Snapshot())
		}),
	)
	if err != nil {
		broker.Close()
		return nil, fmt.Errorf("init session: %w", err)
	}

	return &services{broker: broker, remote: remote, store: store, ctrl: ctrl}, nil
}

// routes builds the root router: health checks, the REST API under /api and
// the player link at /player/ws.
func (s *services) routes(cfg *Config) http.Handler {
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
		_, _ = fmt.Fprintf(w, `{"status":"ok","session":%q}`, s.ctrl.State())
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(s.ctrl, s.remote, cfg.Auth.AuthEnabled(), cfg.Auth.Token, s.broker))

	// Player link.
	r.With(api.AuthMiddleware(cfg.Auth.AuthEnabled(), cfg.Auth.Token)).
		Get("/player/ws", s.remote.Handler(s.ctrl))

	return r
}

// importChanged applies a settings document edited on disk.
func (s *services) importChanged(logger *slog.Logger) settings.ReloadCallback {
	return func(doc settings.Document) {
		err := s.ctrl.Import(doc)
		switch {
		case err == nil:
			logger.Info("settings imported from file", slog.String("path", s.store.Path()))
		case errors.Is(err, apperr.ErrNoVideo):
			logger.Info("settings change ignored: no video loaded")
		default:
			logger.Warn("settings import failed", slog.String("error", err.Error()))
		}
	}
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

	// stdout carries the MCP protocol when it is enabled.
	logOut := os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}
	logger := NewLogger(logOut, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("settings_path", cfg.Settings.Path),
		slog.String("export_dir", cfg.Export.Dir),
		slog.Bool("mcp", app.mcp),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.broker.Close()

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: svc.routes(cfg),
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Start settings file watcher.
	if cfg.Settings.Watch {
		g.Go(func() error {
			if err := settings.Watch(gCtx, svc.store, logger, svc.importChanged(logger)); err != nil {
				logger.Error("settings watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Serve MCP on stdio; closing stdin shuts the application down.
	if app.mcp {
		g.Go(func() error {
			defer cancel()
			logger.Info("Starting MCP server on stdio")
			if err := mcpserver.New(svc.ctrl).ServeStdio(); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}
		cancel()

		logger.Info("Shutting down server...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
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
