package app

import (
	"context"
	"fmt"

	"github.com/guttosm/fxpulse/config"
	"github.com/guttosm/fxpulse/internal/broker"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/fetch"
	"github.com/guttosm/fxpulse/internal/ingestion"
	"github.com/guttosm/fxpulse/internal/logger"
	"github.com/guttosm/fxpulse/internal/storage"
)

// fetcherCtor is an indirection for unit testing; defaults to the resty fetcher.
var fetcherCtor = func(opts fetch.Options) fetch.Fetcher { return fetch.NewHTTPFetcher(opts) }

// publisherDialer is an indirection for unit testing; defaults to broker.Dial.
var publisherDialer = func(url, exchange string) (publisher, error) { return broker.Dial(url, exchange) }

type publisher interface {
	ingestion.Notifier
	Close()
}

// NewRunner wires one scrape-merge-persist cycle.
//
// Behavior:
//   - Opens Postgres when enabled and records every run in the run log.
//   - Dials RabbitMQ when RABBITMQ_URL is set; a dial failure disables
//     publishing for this run and is logged.
//   - Defers store acquisition to the coordinator, so credential and backend
//     failures are reported as ingestion.ErrStoreUnavailable.
//
// Returns the coordinator and a cleanup function releasing the connections.
func NewRunner(cfg config.Config) (*ingestion.Coordinator, func(), error) {
	log := logger.With("runner")

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	var (
		opts []ingestion.Option
		pub  publisher
	)
	if db != nil {
		opts = append(opts, ingestion.WithRecorder(storage.NewRunLog(db)))
	}
	if cfg.RabbitMQ.URL != "" {
		pub, err = publisherDialer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warn().Err(err).Str("exchange", cfg.RabbitMQ.Exchange).Msg("publisher disabled")
			pub = nil
		} else {
			opts = append(opts, ingestion.WithNotifier(pub))
		}
	}

	fetcher := fetcherCtor(fetch.Options{
		BaseURL:           cfg.Scrape.BaseURL,
		UserAgent:         cfg.Scrape.UserAgent,
		RequestsPerSecond: cfg.Scrape.RequestsPerSec,
		CloudflareBypass:  cfg.Scrape.CloudflareBypass,
	})
	scraper := ingestion.NewScraper(fetcher, cfg.Scrape.BaseURL, cfg.Scrape.Timeout)

	open := func(ctx context.Context) (ingestion.DatasetStore, error) {
		s, err := storeOpener(ctx, cfg, db)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	coord := ingestion.NewCoordinator(ingestion.Settings{Instruments: instrumentIDs(cfg.Scrape.Instruments)}, open, scraper, opts...)
	log.Info().
		Str("store", describe(cfg)).
		Int("instruments", len(cfg.Scrape.Instruments)).
		Bool("run_log", db != nil).
		Bool("publisher", pub != nil).
		Msg("runner ready")

	cleanup := func() {
		if pub != nil {
			pub.Close()
		}
		if db != nil {
			_ = db.Close()
		}
	}
	return coord, cleanup, nil
}

func instrumentIDs(in []string) []models.InstrumentID {
	out := make([]models.InstrumentID, 0, len(in))
	for _, s := range in {
		out = append(out, models.InstrumentID(s))
	}
	return out
}

// describe is used in log lines and errors naming the active backend.
func describe(cfg config.Config) string {
	return fmt.Sprintf("%s:%s/%s", cfg.Store.Backend, cfg.Dataset.Parent, cfg.Dataset.Name)
}
