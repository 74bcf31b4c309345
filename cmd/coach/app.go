package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fluentwork/coach/internal/api"
	"github.com/fluentwork/coach/internal/catalog"
	"github.com/fluentwork/coach/internal/config"
	"github.com/fluentwork/coach/internal/events"
	"github.com/fluentwork/coach/internal/generation"
	"github.com/fluentwork/coach/internal/platform/gemini"
	"github.com/fluentwork/coach/internal/platform/localstore"
	"github.com/fluentwork/coach/internal/platform/postgres"
	"github.com/fluentwork/coach/internal/reconcile"
	"github.com/fluentwork/coach/internal/service"
	"github.com/fluentwork/coach/internal/service/auth"
	"github.com/fluentwork/coach/internal/store"
)

// application holds the shared dependencies and releases them on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	backend store.Backend
	feed    store.ChangeFeed
	closers []io.Closer

	jwtService auth.JWTService
	coach      *service.CoachService
	reconciler *reconcile.Reconciler
}

// newApplication selects the storage backend once and wires the services
// over it.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: log}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	if err := app.setupBackend(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	var (
		planner generation.PlanGenerator
		judge   generation.AttemptJudge
	)
	if cfg.LLM.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, log.With(slog.String("component", "gemini")), cfg.LLM)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		planner, judge = client, client
		log.Info("generative oracle enabled", slog.String("model", cfg.LLM.ModelName))
	} else {
		log.Info("no Gemini API key configured, using built-in plans and degraded judgements")
	}

	app.coach, err = service.NewCoachService(app.backend, planner, judge, log)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create coach service: %w", err)
	}

	// Local mode has no push channel; outcomes are fed back from the service.
	if app.feed == nil {
		feed := events.NewProgressFeed(log)
		app.coach.Events().RegisterHandler(feed)
		app.feed = feed
	}
	app.reconciler = reconcile.NewReconciler(app.feed, app.backend, app.backend, log)

	log.Info("application initialized")
	return app, nil
}

func (app *application) setupBackend(ctx context.Context) error {
	cfg := app.config
	if cfg.IsRemote() {
		if cfg.Database.URL == "" {
			return errors.New("remote storage requires database.url")
		}
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.closers = append(app.closers, db)
		app.backend = postgres.NewBackend(db, app.logger)
		app.feed = postgres.NewChangeFeed(cfg.Database.URL, app.logger)
		app.logger.Info("remote storage selected")
		return nil
	}

	medium, err := localstore.OpenSQLiteMedium(cfg.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	app.closers = append(app.closers, medium)
	app.backend = localstore.New(medium, app.logger)
	app.logger.Info("local storage selected", slog.String("path", cfg.Storage.LocalPath))
	return nil
}

// Run serves the HTTP API until ctx is done.
func (app *application) Run(ctx context.Context) error {
	router := api.NewRouter(api.RouterDeps{
		Coach:      app.coach,
		Streamer:   app.reconciler,
		JWTService: app.jwtService,
		Logger:     app.logger,
	})
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// importCatalog loads the workbook at path into userID's vocabulary.
func (app *application) importCatalog(ctx context.Context, userID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	importer := catalog.NewImporter(app.coach, catalog.DefaultOptions(), app.logger)
	result, err := importer.Import(ctx, userID, f)
	if err != nil {
		return err
	}
	app.logger.Info("catalog import finished",
		slog.String("user_id", userID),
		slog.Int("imported", len(result.Items)),
		slog.Int("skipped", len(result.Skipped)))
	return nil
}

// cleanup releases storage in reverse order of acquisition.
func (app *application) cleanup() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error("failed to close resource", slog.String("error", err.Error()))
		}
	}
	app.closers = nil
}

func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("migrations require database.url")
	}
	db, err := postgres.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", slog.String("error", err.Error()))
		}
	}(db)
	return postgres.Migrate(ctx, db, command, log)
}
