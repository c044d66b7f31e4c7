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
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/hunlearn/internal/analytics"
	"github.com/starford/hunlearn/internal/api"
	"github.com/starford/hunlearn/internal/assessment"
	"github.com/starford/hunlearn/internal/auth"
	"github.com/starford/hunlearn/internal/content"
	"github.com/starford/hunlearn/internal/curriculum"
	"github.com/starford/hunlearn/internal/fsrs"
	"github.com/starford/hunlearn/internal/gamification"
	"github.com/starford/hunlearn/internal/llm"
	"github.com/starford/hunlearn/internal/mcpserver"
	"github.com/starford/hunlearn/internal/sermon"
	"github.com/starford/hunlearn/internal/sse"
	"github.com/starford/hunlearn/internal/storage"
	"github.com/starford/hunlearn/internal/store"
	"github.com/starford/hunlearn/internal/terms"
	"github.com/starford/hunlearn/internal/tutor"
	"github.com/starford/hunlearn/internal/vocabulary"
)

const shutdownTimeout = 10 * time.Second

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// components is the wired object graph shared by every command.
type components struct {
	db       *store.DB
	content  *content.Manager
	services api.Services
}

// openStore opens the database and loads content into it.
func (a *application) openStore(logger *slog.Logger) (*store.DB, *content.Manager, content.Report, error) {
	cfg := a.config
	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, content.Report{}, fmt.Errorf("init store: %w", err)
	}

	sources := []content.Source{{Name: "defaults", Provider: storage.NewEmbedded(content.Defaults())}}
	if cfg.Content.Dir != "" {
		dir, err := storage.NewFS(cfg.Content.Dir)
		if err != nil {
			db.Close()
			return nil, nil, content.Report{}, fmt.Errorf("init content dir: %w", err)
		}
		sources = append(sources, content.Source{Name: "local", Provider: dir})
	}

	mgr := content.NewManager(db, content.NewCatalog(), logger, sources...)
	rep, err := mgr.Reload()
	if err != nil {
		db.Close()
		return nil, nil, rep, fmt.Errorf("load content: %w", err)
	}
	return db, mgr, rep, nil
}

func (a *application) build(ctx context.Context, logger *slog.Logger, pub gamification.Publisher) (*components, error) {
	cfg := a.config

	db, mgr, _, err := a.openStore(logger)
	if err != nil {
		return nil, err
	}

	sched, err := fsrs.New(cfg.FSRS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	provider, err := llm.New(ctx, cfg.Tutor, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init tutor provider: %w", err)
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	catalog := mgr.Catalog()
	game := gamification.NewService(db, pub, logger)
	vocab := vocabulary.NewService(db, sched, game, logger)
	cur := curriculum.NewService(db, catalog, game, logger)

	return &components{
		db:      db,
		content: mgr,
		services: api.Services{
			Auth:         auth.NewService(db, tokens, cfg.Auth.BcryptCost, logger),
			Vocabulary:   vocab,
			Sermon:       sermon.NewService(db, catalog, game, logger),
			Terms:        terms.NewService(db, game, logger),
			Curriculum:   cur,
			Assessment:   assessment.NewService(db, catalog, game, logger),
			Gamification: game,
			Analytics:    analytics.NewService(db, vocab, cur, game, logger),
			Tutor:        tutor.NewService(provider, cfg.Tutor.Provider, cfg.Tutor.Timeout, logger),
		},
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("content_dir", cfg.Content.Dir),
		slog.String("tutor_provider", cfg.Tutor.Provider),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.Events.LeaderboardThrottle)
	defer broker.Close()

	c, err := app.build(ctx, logger, broker)
	if err != nil {
		return err
	}
	defer c.db.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "If-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(c.services, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Dir != "" && cfg.Content.Watch {
		g.Go(func() error {
			err := c.content.Watch(gCtx, cfg.Content.Dir, func(rep content.Report) {
				logger.Info("content reloaded",
					slog.Int("updated", rep.Updated),
					slog.Int("removed", rep.Removed))
			})
			if err != nil {
				logger.Warn("content watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Open SSE streams would otherwise hold Shutdown until the timeout.
		broker.Close()
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

// errShutdown cancels the errgroup context so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// Seed loads the content sources into the database and exits.
func Seed(_ context.Context, opts ...Option) (content.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return content.Report{}, err
	}
	logger := app.logger()

	db, mgr, rep, err := app.openStore(logger)
	if err != nil {
		return rep, err
	}
	defer db.Close()

	lessons, questions, templates := mgr.Catalog().Counts()
	logger.Info("seed complete",
		slog.Int("lessons", lessons),
		slog.Int("questions", questions),
		slog.Int("templates", templates),
		slog.Int("updated", rep.Updated),
		slog.Int("skipped", rep.Skipped),
		slog.Int("removed", rep.Removed))
	return rep, nil
}

// MCP serves the learning tools over stdio until the client disconnects.
func MCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	c, err := app.build(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer c.db.Close()

	logger.Info("MCP server starting", slog.String("version", app.version))
	srv := mcpserver.New(c.db, c.services.Vocabulary, c.services.Terms, c.services.Curriculum, app.version)
	return srv.ServeStdio()
}

// InitContent writes the embedded content files into dir so they can be
// edited and served through content.dir.
func InitContent(dir string, overwrite bool) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create content dir: %w", err)
	}
	fsys, err := storage.NewFS(dir)
	if err != nil {
		return 0, err
	}
	return content.WriteDefaults(fsys, overwrite)
}
