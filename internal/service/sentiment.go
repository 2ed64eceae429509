package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/fxpulse/internal/dataset"
	"github.com/guttosm/fxpulse/internal/domain/models"
)

// ErrNoData is returned when the dataset has no record for the requested pair.
var ErrNoData = errors.New("no data")

// DatasetReader loads the current dataset.
type DatasetReader interface {
	Fetch(ctx context.Context) (dataset.Dataset, error)
}

// RunHistory lists recent runs.
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]models.RunResult, error)
}

// Status summarizes the dataset and recent runs.
type Status struct {
	DatasetRows  int
	Instruments  []models.InstrumentID
	LastCaptured *models.SentimentRecord
	RecentRuns   []models.RunResult
	RunLog       bool
}

// SentimentService answers read queries over the dataset.
type SentimentService interface {
	Latest(ctx context.Context, pair models.InstrumentID, limit int) ([]models.SentimentRecord, error)
	Status(ctx context.Context, runs int) (Status, error)
}

type sentimentService struct {
	reader  DatasetReader
	history RunHistory
}

// NewSentimentService builds the read service. history may be nil when no run log is configured.
func NewSentimentService(reader DatasetReader, history RunHistory) SentimentService {
	return &sentimentService{reader: reader, history: history}
}

// Latest returns up to limit records for pair, newest first. Rows keep file
// order, so the newest record is the last one appended.
func (s *sentimentService) Latest(ctx context.Context, pair models.InstrumentID, limit int) ([]models.SentimentRecord, error) {
	ds, err := s.reader.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	all := ds.Records()

	var out []models.SentimentRecord
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].Instrument == pair {
			out = append(out, all[i])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", pair, ErrNoData)
	}
	return out, nil
}

// Status loads the dataset and the run log concurrently.
func (s *sentimentService) Status(ctx context.Context, runs int) (Status, error) {
	var (
		st Status
		ds dataset.Dataset
	)
	st.RunLog = s.history != nil

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = s.reader.Fetch(gctx)
		if err != nil {
			return fmt.Errorf("fetch dataset: %w", err)
		}
		return nil
	})
	if s.history != nil {
		g.Go(func() error {
			var err error
			st.RecentRuns, err = s.history.Recent(gctx, runs)
			if err != nil {
				return fmt.Errorf("recent runs: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Status{}, err
	}

	records := ds.Records()
	st.DatasetRows = ds.RecordCount()
	seen := map[models.InstrumentID]struct{}{}
	for _, r := range records {
		seen[r.Instrument] = struct{}{}
	}
	for id := range seen {
		st.Instruments = append(st.Instruments, id)
	}
	sort.Slice(st.Instruments, func(i, j int) bool { return st.Instruments[i] < st.Instruments[j] })
	if n := len(records); n > 0 {
		last := records[n-1]
		st.LastCaptured = &last
	}
	return st, nil
}
