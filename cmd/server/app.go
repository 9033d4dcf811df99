package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/fairtrack/fairtrack-api/internal/config"
	"github.com/fairtrack/fairtrack-api/internal/export"
	"github.com/fairtrack/fairtrack-api/internal/extract"
	"github.com/fairtrack/fairtrack-api/internal/jobs"
	"github.com/fairtrack/fairtrack-api/internal/platform/postgres"
	"github.com/fairtrack/fairtrack-api/internal/realtime"
	"github.com/fairtrack/fairtrack-api/internal/service"
	"github.com/fairtrack/fairtrack-api/internal/service/auth"
	"github.com/fairtrack/fairtrack-api/internal/storage"
	regsync "github.com/fairtrack/fairtrack-api/internal/sync"
)

// application holds the wired dependency graph. Everything is
// constructed once here and passed by reference; no package-level
// singletons.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	engine     *jobs.Engine
	hub        *realtime.Hub
	exports    *export.Service
	visits     *service.VisitService
	jwtService auth.JWTService
}

// newApplication connects the database, applies migrations, and wires
// every service. Any failure here aborts startup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Stores.
	jobStore := postgres.NewJobStore(db)
	participantStore := postgres.NewParticipantStore(db)
	visitStore := postgres.NewVisitStore(db)
	staffStore := postgres.NewStaffStore(db)

	// Object storage for uploaded resumes.
	fileStore, err := storage.NewDiskStore(afero.NewOsFs(), cfg.Storage.Root)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open file store: %w", err)
	}

	// Realtime fan-out.
	hub := realtime.NewHub(staffStore, logger)

	// Job engine and the job sets that populate it.
	engine := jobs.NewEngine(jobStore, jobs.EngineConfig{
		PollInterval: cfg.Jobs.PollInterval,
		LockTTL:      cfg.Jobs.LockTTL,
	}, logger)

	extractSvc := extract.NewService(fileStore, logger)
	extract.NewJobSet(extractSvc, participantStore, logger).Register(engine)

	exports, err := export.NewService(participantStore, fileStore, jobStore, hub, cfg.Export.ArtifactDir, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	exports.Register(engine)

	if cfg.Sync.SourceURL != "" {
		source := regsync.NewHTTPSource(cfg.Sync.SourceURL)
		regsync.NewSyncer(source, participantStore, logger).Register(engine)

		if cfg.Sync.Schedule != "" {
			if err := engine.Every(cfg.Sync.Schedule, regsync.JobSyncRegistrations); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	}

	// Hourly sweep re-enqueueing extraction for participants whose text
	// is still missing, which doubles as the retry path for failed
	// parses.
	if err := engine.Every("@hourly", extract.JobFindMissingText); err != nil {
		_ = db.Close()
		return nil, err
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		engine:     engine,
		hub:        hub,
		exports:    exports,
		visits:     service.NewVisitService(participantStore, visitStore, hub, logger),
		jwtService: jwtService,
	}, nil
}

// cleanup releases application resources during shutdown.
func (app *application) cleanup() {
	app.engine.Stop()
	app.hub.CloseAll()
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
