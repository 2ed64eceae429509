package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fxpulse/config"
	"github.com/guttosm/fxpulse/internal/api"
	"github.com/guttosm/fxpulse/internal/service"
	"github.com/guttosm/fxpulse/internal/storage"
)

// InitializeApp sets up all API dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL when the run log or the postgres backend needs it.
//   - Builds the dataset store for the configured backend.
//   - Creates the read service and the HTTP handler layer.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp(ctx context.Context, cfg config.Config) (*gin.Engine, func(), error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	store, err := storeOpener(ctx, cfg, db)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to initialize dataset store: %w", err)
	}

	var history service.RunHistory
	if db != nil {
		history = storage.NewRunLog(db)
	}

	svc := service.NewSentimentService(store, history)
	handler := api.NewHandler(svc)
	router := api.NewRouter(handler)

	api.NewHealthHandler(readinessChecks(store, db)).Register(router)

	return router, closeDB, nil
}

// readinessChecks lists the dataset object through the store and pings the
// database when one is configured.
func readinessChecks(store *storage.DatasetStore, db *sql.DB) map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{
		"store": func(ctx context.Context) error {
			_, err := store.Objects(ctx)
			return err
		},
	}
	if db != nil {
		checks["database"] = db.PingContext
	}
	return checks
}
