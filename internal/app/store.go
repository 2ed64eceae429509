package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/guttosm/fxpulse/config"
	"github.com/guttosm/fxpulse/internal/auth"
	"github.com/guttosm/fxpulse/internal/storage"
)

// errNoDatabase is returned when the postgres backend is selected without a connection.
var errNoDatabase = errors.New("postgres backend requires a database connection")

// credentialsFor picks the Drive credential strategy.
func credentialsFor(cfg config.DriveConfig) auth.CredentialProvider {
	if cfg.Auth == config.AuthServiceAccount {
		return auth.NewServiceAccountProvider(cfg.CredentialsFile)
	}
	return auth.NewOAuthTokenProvider(cfg.CredentialsFile, cfg.TokenFile)
}

// openBlobStore builds the configured backend. Drive credentials are resolved
// here, so an expired token surfaces as a store acquisition failure.
func openBlobStore(ctx context.Context, cfg config.Config, db *sql.DB) (storage.BlobStore, error) {
	switch cfg.Store.Backend {
	case config.BackendLocal:
		s, err := storage.NewLocalStore(cfg.Store.LocalDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		if db == nil {
			return nil, errNoDatabase
		}
		return storage.NewPostgresStore(db), nil
	case config.BackendDrive:
		client, err := credentialsFor(cfg.Drive).HTTPClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("drive credentials: %w", err)
		}
		s, err := storage.NewDriveStore(ctx, client)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// openDatasetStore binds the dataset identity to a freshly built backend.
func openDatasetStore(ctx context.Context, cfg config.Config, db *sql.DB) (*storage.DatasetStore, error) {
	blobs, err := openBlobStore(ctx, cfg, db)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return storage.NewDatasetStore(blobs, cfg.Dataset.Name, cfg.Dataset.Parent), nil
}

// storeOpener is an indirection for unit testing; defaults to openDatasetStore.
var storeOpener = openDatasetStore
