package main

//
//  @title           fxpulse API
//  @version         1.0
//  @description     FX trader-sentiment collection and read API.
//  @termsOfService  https://github.com/guttosm/fxpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/fxpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        sentiment
//  @tag.description Latest long/short positioning per pair
//
//  @tag.name        status
//  @tag.description Dataset size and recent runs
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/fxpulse/config"
	_ "github.com/guttosm/fxpulse/docs" // swagger docs
	"github.com/guttosm/fxpulse/internal/app"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/ingestion"
	"github.com/guttosm/fxpulse/internal/logger"
	"github.com/guttosm/fxpulse/internal/runlock"
)

// errMarketClosed marks a run skipped by --skip-closed.
var errMarketClosed = errors.New("market closed")

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// runOnce performs a single scrape-merge-persist cycle.
//
// Behavior:
//   - With skipClosed, returns errMarketClosed without touching the store
//     while the FX market is closed at now.
//   - Takes the run lock when RUN_LOCK_FILE is set; runlock.ErrHeld means
//     another run is in progress.
//   - Interrupts cancel the run between instruments; the store is never left
//     half-written.
func runOnce(ctx context.Context, cfg config.Config, skipClosed bool, now time.Time) (models.RunResult, error) {
	if skipClosed && !ingestion.MarketOpen(now) {
		logger.L().Info().
			Time("now", now.UTC()).
			Time("next_open", ingestion.NextMarketOpen(now)).
			Msg("market closed, skipping run")
		return models.RunResult{}, errMarketClosed
	}

	if cfg.RunLock.Path != "" {
		lock, err := runlock.Acquire(cfg.RunLock.Path, cfg.RunLock.TTL)
		if err != nil {
			return models.RunResult{}, err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.L().Warn().Err(err).Str("path", lock.Path()).Msg("release run lock")
			}
		}()
	}

	coord, cleanup, err := app.NewRunner(cfg)
	if err != nil {
		return models.RunResult{}, fmt.Errorf("runner init: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return coord.Run(ctx)
}

// main is the entry point of the fxpulse application.
//
// Modes (selected via --mode flag):
//   - run: Scrapes the configured instruments once and merges them into the remote dataset.
//   - api: Starts the REST API over the dataset and the run log.
//
// Flags:
//   - --mode: Execution mode ("run" or "api"). Default: "run".
//   - --skip-closed: In run mode, exit successfully without scraping while the FX market is closed.
//   - --port: Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Initialize JSON logger
	logger.Init()

	// Load configuration from environment or .env file
	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal().Err(err).Msg("config error")
	}

	mode := flag.String("mode", "run", "Mode: run or api")
	skipClosed := flag.Bool("skip-closed", false, "Skip the run while the FX market is closed")
	port := flag.String("port", cfg.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "run":
		res, err := runOnce(ctx, cfg, *skipClosed, time.Now())
		switch {
		case errors.Is(err, errMarketClosed):
			return
		case errors.Is(err, runlock.ErrHeld):
			logger.L().Fatal().Err(err).Msg("another run is in progress")
		case err != nil:
			logger.L().Fatal().Err(err).Str("run_id", res.RunID).Str("state", string(res.State)).Msg("run failed")
		}
		logger.L().Info().
			Str("run_id", res.RunID).
			Int("persisted", res.Persisted).
			Int("rows", res.DatasetRows).
			Msg("run completed successfully")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp(ctx, cfg)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
