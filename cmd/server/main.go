/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing allocation engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment)
  2. Initialize SQLite store
  3. Build the calendar named by BASELINE_MODE
  4. Create API handler and conflict scanner
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the conflict scanner
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # File database, hourly conflict scans
  DATABASE_PATH=./data/staffing.db ./server

  # In-memory database with demo data
  DATABASE_PATH=":memory:" DEV_MODE=true ./server

  # Business-day baseline instead of a flat 160h month
  BASELINE_MODE=businessdays ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/staffing-engine/api"
	"github.com/warp/staffing-engine/config"
	"github.com/warp/staffing-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := zerolog.New(os.Stderr).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()
	if cfg.DevMode {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to initialize database")
	}
	defer store.Close()

	calendar := cfg.Calendar()
	handler := api.NewHandler(store, calendar, logger)

	if cfg.DevMode {
		if err := api.Seed(context.Background(), store, calendar, logger); err != nil {
			logger.Warn().Err(err).Msg("demo seed failed")
		}
	}

	scanner := api.NewConflictScanner(store, handler.Portfolio, logger)
	if err := scanner.Start(cfg.ScanSchedule); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.ScanSchedule).Msg("invalid scan schedule")
	}
	handler.Scanner = scanner

	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Port).
			Str("db", cfg.DatabasePath).
			Str("baseline", cfg.BaselineMode).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	scanner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("forced shutdown")
	}
	logger.Info().Msg("server stopped")
}
