package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guttosm/fxpulse/internal/dataset"
	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/storage"
)

var errBoom = errors.New("boom")

// failingBlobs wraps a BlobStore and fails selected operations.
type failingBlobs struct {
	storage.BlobStore
	uploadErr error
	listErr   error
}

func (f *failingBlobs) List(ctx context.Context, name, parent string) ([]storage.ObjectRef, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.BlobStore.List(ctx, name, parent)
}

func (f *failingBlobs) Upload(ctx context.Context, name, parent string, data []byte, mimeType string) (storage.ObjectRef, error) {
	if f.uploadErr != nil {
		return storage.ObjectRef{}, f.uploadErr
	}
	return f.BlobStore.Upload(ctx, name, parent, data, mimeType)
}

// countingStore counts Replace calls on top of a real DatasetStore.
type countingStore struct {
	*storage.DatasetStore
	replaces int
}

func (c *countingStore) Replace(ctx context.Context, ds dataset.Dataset) (string, error) {
	c.replaces++
	return c.DatasetStore.Replace(ctx, ds)
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]models.SentimentRecord
	err     error
}

func (n *fakeNotifier) Publish(_ context.Context, _ string, _ time.Time, records []models.SentimentRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, records)
	return n.err
}

type fakeRecorder struct {
	runs []models.RunResult
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, res models.RunResult) error {
	r.runs = append(r.runs, res)
	return r.err
}

type harness struct {
	blobs   *failingBlobs
	store   *countingStore
	fetcher *fakeFetcher
	clock   time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	local, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	blobs := &failingBlobs{BlobStore: local}
	return &harness{
		blobs:   blobs,
		store:   &countingStore{DatasetStore: storage.NewDatasetStore(blobs, "myfxbook_data.csv", "folder")},
		fetcher: &fakeFetcher{pages: map[models.InstrumentID]pageResult{}},
		clock:   time.Date(2025, 9, 17, 10, 0, 0, 0, time.Local),
	}
}

func (h *harness) coordinator(instruments []models.InstrumentID, opts ...Option) *Coordinator {
	h.clock = h.clock.Add(time.Hour)
	captured := h.clock
	scraper := NewScraper(h.fetcher, testBaseURL, 50*time.Millisecond)
	scraper.now = func() time.Time { return captured }
	open := func(context.Context) (DatasetStore, error) { return h.store, nil }
	return NewCoordinator(Settings{Instruments: instruments}, open, scraper, opts...)
}

func (h *harness) content(t *testing.T) []byte {
	t.Helper()
	ds, err := h.store.Fetch(context.Background())
	require.NoError(t, err)
	return ds.Encode()
}

func TestCoordinatorRun_AbsentDatasetGetsHeaderAndBatch(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	h.fetcher.pages["GBPUSD"] = pageResult{body: outlookPage("45 %", "55 %")}

	res, err := h.coordinator(ids("EURUSD", "GBPUSD")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.RunDone, res.State)
	require.Equal(t, 2, res.Persisted)
	require.Equal(t, 2, res.DatasetRows)
	require.NotEmpty(t, res.ObjectID)

	lines := strings.Split(strings.TrimRight(string(h.content(t)), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, strings.Join(dataset.Header, ","), lines[0])
	require.Equal(t, "2025-09-17 11:00:00,EURUSD,61 %,39 %,1250,980,3210,2001", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "2025-09-17 11:00:00,GBPUSD,"))
}

func TestCoordinatorRun_MonotonicGrowthWithFailures(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	h.fetcher.pages["USDJPY"] = pageResult{delay: time.Second}
	h.fetcher.pages["NZDCAD"] = pageResult{body: outlookPage("52 %", "")}

	var prev []byte
	for run := 1; run <= 3; run++ {
		res, err := h.coordinator(ids("EURUSD", "USDJPY", "NZDCAD")).Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, models.RunDone, res.State)
		require.Equal(t, 1, res.Persisted)
		require.Len(t, res.Failures, 2)
		require.Equal(t, run, res.DatasetRows)

		cur := h.content(t)
		require.True(t, len(cur) > len(prev))
		require.Equal(t, string(prev), string(cur[:len(prev)]), "earlier bytes must be preserved")
		require.NotContains(t, string(cur), "NZDCAD")
		prev = cur
	}

	refs, err := h.store.Objects(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 1)
}

func TestCoordinatorRun_NoSuccessSkipsReplace(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	_, err := h.coordinator(ids("EURUSD")).Run(context.Background())
	require.NoError(t, err)
	before := h.content(t)
	require.Equal(t, 1, h.store.replaces)

	h.fetcher.pages["EURUSD"] = pageResult{body: "<html></html>"}
	res, err := h.coordinator(ids("EURUSD", "GBPUSD")).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.RunDone, res.State)
	require.Equal(t, 0, res.Persisted)
	require.Equal(t, 1, h.store.replaces, "replace must not be called without new rows")
	require.Equal(t, before, h.content(t))
}

func TestCoordinatorRun_UploadFailureKeepsPrior(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	_, err := h.coordinator(ids("EURUSD")).Run(context.Background())
	require.NoError(t, err)
	prior := h.content(t)

	h.blobs.uploadErr = errBoom
	res, err := h.coordinator(ids("EURUSD")).Run(context.Background())
	require.ErrorIs(t, err, ErrPersistFailure)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, models.RunFailed, res.State)
	require.Equal(t, 0, res.Persisted)

	h.blobs.uploadErr = nil
	require.Equal(t, prior, h.content(t))
}

func TestCoordinatorRun_StoreUnavailable(t *testing.T) {
	cases := []struct {
		name  string
		setup func(h *harness) StoreOpener
	}{
		{
			name: "open fails",
			setup: func(h *harness) StoreOpener {
				return func(context.Context) (DatasetStore, error) { return nil, errBoom }
			},
		},
		{
			name: "list fails",
			setup: func(h *harness) StoreOpener {
				h.blobs.listErr = errBoom
				return func(context.Context) (DatasetStore, error) { return h.store, nil }
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
			rec := &fakeRecorder{}
			scraper := NewScraper(h.fetcher, testBaseURL, time.Second)

			res, err := NewCoordinator(Settings{Instruments: ids("EURUSD")}, tc.setup(h), scraper, WithRecorder(rec)).
				Run(context.Background())
			require.ErrorIs(t, err, ErrStoreUnavailable)
			require.ErrorIs(t, err, errBoom)
			require.Equal(t, models.RunFailed, res.State)
			require.Zero(t, h.fetcher.opened, "nothing may be scraped before the dataset is read")
			require.Len(t, rec.runs, 1)
			require.Equal(t, models.RunFailed, rec.runs[0].State)
			require.NotEmpty(t, rec.runs[0].Error)
		})
	}
}

func TestCoordinatorRun_ScrapeSessionFailure(t *testing.T) {
	h := newHarness(t)
	h.fetcher.openErr = errBoom
	res, err := h.coordinator(ids("EURUSD")).Run(context.Background())
	require.ErrorIs(t, err, errBoom)
	require.NotErrorIs(t, err, ErrStoreUnavailable)
	require.Equal(t, models.RunFailed, res.State)
	require.Zero(t, h.store.replaces)
}

func TestCoordinatorRun_NotifierAndRecorder(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	h.fetcher.pages["GBPUSD"] = pageResult{body: outlookPage("45 %", "")}
	n := &fakeNotifier{err: errBoom}
	rec := &fakeRecorder{err: errBoom}

	res, err := h.coordinator(ids("EURUSD", "GBPUSD"), WithNotifier(n), WithRecorder(rec)).Run(context.Background())
	require.NoError(t, err, "notifier and recorder failures are not run failures")
	require.Equal(t, models.RunDone, res.State)

	require.Len(t, n.batches, 1)
	require.Len(t, n.batches[0], 1)
	require.Equal(t, models.InstrumentID("EURUSD"), n.batches[0][0].Instrument)

	require.Len(t, rec.runs, 1)
	require.Equal(t, res.RunID, rec.runs[0].RunID)
	require.Equal(t, 1, rec.runs[0].Persisted)
}

func TestCoordinatorRun_NotifierSkippedWithoutNewRows(t *testing.T) {
	h := newHarness(t)
	n := &fakeNotifier{}
	_, err := h.coordinator(ids("EURUSD"), WithNotifier(n)).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, n.batches)
}

func TestNewCoordinator_CopiesInstruments(t *testing.T) {
	h := newHarness(t)
	h.fetcher.pages["EURUSD"] = pageResult{body: outlookPage("61 %", "39 %")}
	list := ids("EURUSD")
	c := h.coordinator(list)
	list[0] = "XXXXXX"

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, res.Persisted)
	require.Equal(t, []models.InstrumentID{"EURUSD"}, h.fetcher.visited)
}
