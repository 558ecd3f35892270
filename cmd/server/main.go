// Package main implements the entry point for the entity API server, a
// bearer-token-secured CRUD service over a single business entity backed
// by PostgreSQL.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quix-it/entity-api/internal/config"
	"github.com/quix-it/entity-api/internal/platform/logger"
	"github.com/quix-it/entity-api/internal/platform/postgres"
	"github.com/quix-it/entity-api/internal/service"
	"github.com/quix-it/entity-api/internal/service/auth"
)

// application holds the wired dependencies of the running server.
type application struct {
	config        *config.Config
	logger        *slog.Logger
	db            *sql.DB
	entityService service.EntityLifecycle
	tokenService  auth.TokenService
}

func main() {
	migrate := flag.Bool("migrate", true, "apply pending database migrations at startup")
	migrationsDir := flag.String("migrations-dir", "migrations", "directory containing goose migrations")
	flag.Parse()

	app, cleanup, err := initializeApp(*migrate, *migrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer cleanup()

	if err := app.run(); err != nil {
		app.logger.Error("server terminated with error", "error", err.Error())
		os.Exit(1)
	}
}

// initializeApp loads configuration and wires application components.
// Returns the application, a cleanup function and any initialization error.
func initializeApp(migrate bool, migrationsDir string) (*application, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up database: %w", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			appLogger.Error("failed to close database", "error", err.Error())
		}
	}

	if migrate {
		if err := runMigrations(db, migrationsDir, appLogger); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	tokenService, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to set up token service: %w", err)
	}

	entityStore := postgres.NewPostgresEntityStore(db, appLogger)
	entityService := service.NewEntityService(db, entityStore, appLogger)

	return &application{
		config:        cfg,
		logger:        appLogger,
		db:            db,
		entityService: entityService,
		tokenService:  tokenService,
	}, cleanup, nil
}

// run starts the HTTP server and blocks until shutdown, draining in-flight
// requests on SIGINT/SIGTERM.
func (app *application) run() error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		app.logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	app.logger.Info("server stopped")
	return nil
}
