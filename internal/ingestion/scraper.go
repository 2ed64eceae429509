package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/extract"
	"github.com/guttosm/fxpulse/internal/fetch"
	"github.com/guttosm/fxpulse/internal/logger"
)

// Scraper fetches and extracts the outlook page of each instrument in one session.
type Scraper struct {
	fetcher fetch.Fetcher
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewScraper builds a Scraper.
//
// Parameters:
//   - f: opens the single fetch session used per batch.
//   - baseURL: site root, e.g. https://www.myfxbook.com.
//   - timeout: per-instrument budget for loading one page.
func NewScraper(f fetch.Fetcher, baseURL string, timeout time.Duration) *Scraper {
	return &Scraper{fetcher: f, baseURL: baseURL, timeout: timeout, now: time.Now}
}

// Run scrapes instruments sequentially and returns the complete records.
//
// Behavior:
//   - Exactly one session is opened and it is closed on every exit path.
//   - All records share one capture timestamp taken at batch start.
//   - A failed instrument is logged, reported in the failures slice, and the
//     batch moves on.
//
// Returns:
//   - error: only when the session cannot be opened or ctx is canceled.
func (s *Scraper) Run(ctx context.Context, instruments []models.InstrumentID) ([]models.SentimentRecord, []models.InstrumentFailure, error) {
	l := logger.With("scraper")

	sess, err := s.fetcher.Open(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open fetch session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			l.Warn().Err(cerr).Msg("close fetch session")
		}
	}()

	captured := s.now()
	records := make([]models.SentimentRecord, 0, len(instruments))
	var failures []models.InstrumentFailure

	for i, id := range instruments {
		if err := ctx.Err(); err != nil {
			return records, failures, err
		}
		start := time.Now()

		rec, kind, err := s.scrapeOne(ctx, sess, id, captured)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return records, failures, cerr
			}
			failures = append(failures, models.InstrumentFailure{Instrument: id, Kind: kind, Reason: err.Error()})
			l.Warn().
				Str("pair", string(id)).
				Str("kind", string(kind)).
				Int("idx", i+1).
				Int("total", len(instruments)).
				Dur("elapsed", time.Since(start)).
				Err(err).
				Msg("instrument skipped")
			continue
		}

		records = append(records, rec)
		l.Info().
			Str("pair", string(id)).
			Int("idx", i+1).
			Int("total", len(instruments)).
			Str("long", rec.LongPercent).
			Str("short", rec.ShortPercent).
			Dur("elapsed", time.Since(start)).
			Msg("instrument scraped")
	}
	return records, failures, nil
}

func (s *Scraper) scrapeOne(ctx context.Context, sess fetch.Session, id models.InstrumentID, captured time.Time) (models.SentimentRecord, models.FailureKind, error) {
	page, err := sess.FetchPage(ctx, fetch.OutlookURL(s.baseURL, id), s.timeout)
	if err != nil {
		return models.SentimentRecord{}, models.FailureFetch, err
	}

	fields, err := extract.Extract(bytes.NewReader(page), id)
	if err != nil {
		if errors.Is(err, extract.ErrIncomplete) {
			return models.SentimentRecord{}, models.FailureIncomplete, err
		}
		return models.SentimentRecord{}, models.FailureFetch, err
	}

	return fields.Record(models.SentimentRecord{Timestamp: captured, Instrument: id}), "", nil
}
