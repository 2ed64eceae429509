package app

import (
	"database/sql"
	"fmt"

	"github.com/guttosm/fxpulse/config"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres initializes a PostgreSQL connection using the provided configuration.
//
// Parameters:
//   - cfg (config.PostgresConfig): connection settings; the DSN comes from cfg.DSN().
//
// Behavior:
//   - Opens a database handle with sql.Open.
//   - Immediately pings the database to validate connectivity.
//   - Returns the live connection if successful.
//
// Returns:
//   - *sql.DB: an open database connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
func InitPostgres(cfg config.PostgresConfig) (*sql.DB, error) {
	// Initialize database handle (does not establish a real connection yet)
	db, err := sqlOpener("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	// Verify connectivity by pinging the database
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// postgresOpener is an indirection used by InitializeApp and NewRunner; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres

// openDatabase connects only when the configuration needs Postgres; a nil
// handle means no run log and no postgres backend.
func openDatabase(cfg config.Config) (*sql.DB, error) {
	if !cfg.Postgres.Enabled {
		return nil, nil
	}
	db, err := postgresOpener(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	return db, nil
}
