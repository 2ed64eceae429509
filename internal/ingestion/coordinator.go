package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/fxpulse/internal/dataset"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/logger"
)

var (
	// ErrStoreUnavailable means the dataset could not be opened or read; nothing was scraped.
	ErrStoreUnavailable = errors.New("dataset store unavailable")

	// ErrPersistFailure means the merged dataset could not be written back.
	ErrPersistFailure = errors.New("dataset persist failed")
)

// recordTimeout bounds the run-log write issued after the run has ended.
const recordTimeout = 5 * time.Second

// DatasetStore reads and replaces the remote dataset.
type DatasetStore interface {
	Fetch(ctx context.Context) (dataset.Dataset, error)
	Replace(ctx context.Context, ds dataset.Dataset) (string, error)
}

// StoreOpener acquires a store handle (credentials, client) for one run.
type StoreOpener func(ctx context.Context) (DatasetStore, error)

// BatchScraper produces sentiment records for a list of instruments.
type BatchScraper interface {
	Run(ctx context.Context, instruments []models.InstrumentID) ([]models.SentimentRecord, []models.InstrumentFailure, error)
}

// Notifier announces a persisted batch to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, runID string, capturedAt time.Time, records []models.SentimentRecord) error
}

// RunRecorder keeps a history of run outcomes.
type RunRecorder interface {
	Record(ctx context.Context, res models.RunResult) error
}

// Settings is the fixed input of a coordinator.
type Settings struct {
	Instruments []models.InstrumentID
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithNotifier publishes every persisted batch through n.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithRecorder offers every finished run to r.
func WithRecorder(r RunRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// Coordinator runs one fetch, scrape, merge and persist cycle at a time.
type Coordinator struct {
	settings  Settings
	openStore StoreOpener
	scraper   BatchScraper
	notifier  Notifier
	recorder  RunRecorder
	now       func() time.Time
	newID     func() string
}

// NewCoordinator builds a Coordinator. The instrument list is copied.
func NewCoordinator(settings Settings, open StoreOpener, scraper BatchScraper, opts ...Option) *Coordinator {
	settings.Instruments = append([]models.InstrumentID(nil), settings.Instruments...)
	c := &Coordinator{
		settings:  settings,
		openStore: open,
		scraper:   scraper,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run executes one cycle.
//
// Behavior:
//   - init → fetching → scraping → merging → persisting → done; any failing
//     step moves the run to failed.
//   - The dataset must be read successfully before anything is scraped.
//   - When no instrument yields a complete record the store is not written.
//   - Replace failures are not retried.
//
// Returns:
//   - models.RunResult: always populated, also on failure.
//   - error: ErrStoreUnavailable, ErrPersistFailure or a scrape-level error.
func (c *Coordinator) Run(ctx context.Context) (models.RunResult, error) {
	res := models.RunResult{
		RunID:     c.newID(),
		StartedAt: c.now(),
		State:     models.RunInit,
		Attempted: len(c.settings.Instruments),
	}
	l := logger.With("coordinator").With().Str("run_id", res.RunID).Logger()
	l.Info().Int("instruments", res.Attempted).Msg("run start")

	err := c.run(ctx, &res, &l)
	res.FinishedAt = c.now()
	if err != nil {
		res.Error = err.Error()
		c.transition(&res, &l, models.RunFailed)
		l.Error().Err(err).Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).Msg("run failed")
	} else {
		l.Info().
			Int("extracted", res.Extracted).
			Int("persisted", res.Persisted).
			Int("failures", len(res.Failures)).
			Int("rows", res.DatasetRows).
			Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
			Msg("run done")
	}

	c.record(ctx, res, &l)
	return res, err
}

func (c *Coordinator) run(ctx context.Context, res *models.RunResult, l *zerolog.Logger) error {
	c.transition(res, l, models.RunFetching)
	store, err := c.openStore(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrStoreUnavailable, err)
	}
	existing, err := store.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: fetch: %w", ErrStoreUnavailable, err)
	}
	res.DatasetRows = existing.RecordCount()
	l.Info().Int("rows", res.DatasetRows).Bool("absent", existing.IsEmpty()).Msg("dataset fetched")

	c.transition(res, l, models.RunScraping)
	records, failures, err := c.scraper.Run(ctx, c.settings.Instruments)
	res.Extracted = len(records)
	res.Failures = failures
	if err != nil {
		return fmt.Errorf("scrape: %w", err)
	}

	c.transition(res, l, models.RunMerging)
	merged := dataset.Merge(existing, records)
	added := merged.RecordCount() - existing.RecordCount()
	if added == 0 {
		l.Warn().Int("failures", len(failures)).Msg("no new records, dataset left untouched")
		c.transition(res, l, models.RunDone)
		return nil
	}

	c.transition(res, l, models.RunPersisting)
	objectID, err := store.Replace(ctx, merged)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistFailure, err)
	}
	res.ObjectID = objectID
	res.Persisted = added
	res.DatasetRows = merged.RecordCount()
	c.transition(res, l, models.RunDone)

	c.notify(ctx, res, records, l)
	return nil
}

func (c *Coordinator) transition(res *models.RunResult, l *zerolog.Logger, to models.RunState) {
	l.Debug().Str("from", string(res.State)).Str("state", string(to)).Msg("run state")
	res.State = to
}

func (c *Coordinator) notify(ctx context.Context, res *models.RunResult, records []models.SentimentRecord, l *zerolog.Logger) {
	if c.notifier == nil {
		return
	}
	var persisted []models.SentimentRecord
	for _, r := range records {
		if r.Complete() {
			persisted = append(persisted, r)
		}
	}
	if err := c.notifier.Publish(ctx, res.RunID, persisted[0].Timestamp, persisted); err != nil {
		l.Warn().Err(err).Msg("publish batch failed")
	}
}

func (c *Coordinator) record(ctx context.Context, res models.RunResult, l *zerolog.Logger) {
	if c.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.recorder.Record(rctx, res); err != nil {
		l.Warn().Err(err).Msg("record run failed")
	}
}
