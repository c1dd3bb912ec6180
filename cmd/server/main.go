/*
main.go - HTTP server entry point

PURPOSE:
  Starts the labor compliance API. Handles configuration, dependency
  injection, background holiday seeding, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env + environment), then flags
  2. Load reference data (labor code + leave catalog)
  3. Initialize SQLite store
  4. Start the holiday scheduler
  5. Configure HTTP router and start server

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (APP_PORT, default: 8080)
  -db      SQLite database path (DB_PATH, default: labor.db)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/labor-engine/api"
	"github.com/warp/labor-engine/config"
	"github.com/warp/labor-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	port := flag.Int("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	logger := cfg.App.NewLogger(os.Stdout, "labor-engine")
	slog.SetDefault(logger)
	level, _ := cfg.App.Level()

	ref, err := cfg.Reference()
	if err != nil {
		return fmt.Errorf("reference data: %w", err)
	}
	logger.Info("reference data loaded",
		"code", ref.Code.Name, "leave_types", len(ref.Catalog.Types()), "holidays", len(ref.Holidays))

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	scheduler := api.NewHolidayScheduler(store, ref.Holidays, logger)
	scheduler.CheckInterval = cfg.Holidays.SeedInterval
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(store, ref, cfg.App.Timezone, logger)
	router := api.NewRouter(handler, api.RouterOptions{LogLevel: level})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", *dbPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
