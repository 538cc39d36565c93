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

	"github.com/starford/recall/internal/ai"
	"github.com/starford/recall/internal/api"
	"github.com/starford/recall/internal/engine"
	"github.com/starford/recall/internal/itemservice"
	"github.com/starford/recall/internal/mcpserver"
	"github.com/starford/recall/internal/models"
	"github.com/starford/recall/internal/sse"
	"github.com/starford/recall/internal/storage"
	"github.com/starford/recall/internal/store"
	"github.com/starford/recall/internal/vault"
)

// runtime holds the components shared by every command.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	db     *store.DB
	svc    *itemservice.Service
}

func newRuntime(opts []Option, onEvent itemservice.EventFunc) (*runtime, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("ai_provider", cfg.AI.Provider),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	provider, err := ai.New(cfg.AI.Config, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init ai provider: %w", err)
	}

	eng := engine.New(db, provider, engine.WithLogger(logger))
	return &runtime{
		cfg:    cfg,
		logger: logger,
		db:     db,
		svc:    itemservice.NewService(db, eng, provider, onEvent),
	}, nil
}

func (rt *runtime) importer(dir string, scope models.OwnerScope) (*vault.Importer, error) {
	if owner, ok := scope.Owner(); ok && owner == "" {
		return nil, fmt.Errorf("init vault: no owner for imported items (set vault.owner or auth.owner)")
	}
	files, err := storage.NewFS(dir)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}
	return vault.NewImporter(files, rt.db, rt.svc, scope, rt.logger), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := newRuntime(opts, func(kind string, it *models.Item) {
		owner := ""
		if it.OwnerID != nil {
			owner = *it.OwnerID
		}
		broker.PublishItemEvent(kind, it.ID, owner)
	})
	if err != nil {
		return err
	}
	defer rt.db.Close()
	cfg, logger := rt.cfg, rt.logger

	var imp *vault.Importer
	if cfg.Vault.Path != "" {
		imp, err = rt.importer(cfg.Vault.Path, cfg.Vault.Scope(cfg.Auth.Owner))
		if err != nil {
			return err
		}
		st, err := imp.Sync(ctx)
		if err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("Vault synced",
				slog.Int("created", st.Created),
				slog.Int("updated", st.Updated),
				slog.Int("unchanged", st.Unchanged),
				slog.Int("failed", st.Failed))
		}
	}

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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(req.Context()); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(rt.svc, cfg.Auth.API(), cfg.Public.APIKey, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if imp != nil && cfg.Vault.Watch {
		g.Go(func() error {
			return imp.Watch(gCtx)
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

		logger.Info("Shutting down server...")

		// SSE streams end when their channels close.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	rt, err := newRuntime(opts, nil)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	scope := "public items"
	if rt.cfg.MCP.Owner != "" {
		scope = "owner " + rt.cfg.MCP.Owner
	}
	rt.logger.Info("Starting MCP server on stdio", slog.String("scope", scope))
	return mcpserver.New(rt.svc, rt.cfg.MCP.Owner).ServeStdio()
}

// ImportOptions selects the directory and scope of a one-off import.
type ImportOptions struct {
	Dir    string
	Owner  string
	Public bool
}

// RunImport imports every Markdown file under in.Dir once and reports counts.
func RunImport(ctx context.Context, in ImportOptions, opts ...Option) (vault.Stats, error) {
	rt, err := newRuntime(opts, nil)
	if err != nil {
		return vault.Stats{}, err
	}
	defer rt.db.Close()

	vc := VaultConfig{Owner: in.Owner, Public: in.Public}
	if err := vc.Validate(); err != nil {
		return vault.Stats{}, err
	}
	imp, err := rt.importer(in.Dir, vc.Scope(rt.cfg.Auth.Owner))
	if err != nil {
		return vault.Stats{}, err
	}
	st, err := imp.Sync(ctx)
	if err != nil {
		return st, fmt.Errorf("import %s: %w", in.Dir, err)
	}
	rt.logger.Info("Import finished",
		slog.String("dir", in.Dir),
		slog.Int("created", st.Created),
		slog.Int("updated", st.Updated),
		slog.Int("unchanged", st.Unchanged),
		slog.Int("failed", st.Failed))
	return st, nil
}
