package ingestion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guttosm/fxpulse/internal/domain/models"
	"github.com/guttosm/fxpulse/internal/fetch"
)

const testBaseURL = "https://fx.test"

// outlookPage renders a minimal outlook page. Empty short values drop the Short row.
func outlookPage(longPct, shortPct string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table id="currentMetricsTable"><tr><th>Action</th><th>%</th><th>Lots</th><th>Positions</th></tr>`)
	b.WriteString(fmt.Sprintf(`<tr><td>Long</td><td>%s</td><td>1,250.5 lots</td><td>3,210</td></tr>`, longPct))
	if shortPct != "" {
		b.WriteString(fmt.Sprintf(`<tr><td>Short</td><td>%s</td><td>980 lots</td><td>2,001</td></tr>`, shortPct))
	}
	b.WriteString(`</table></body></html>`)
	return b.String()
}

type pageResult struct {
	body  string
	err   error
	delay time.Duration
}

// fakeFetcher serves canned pages keyed by instrument and tracks session lifecycle.
type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[models.InstrumentID]pageResult
	openErr error
	opened  int
	closed  int
	visited []models.InstrumentID
}

func (f *fakeFetcher) Open(ctx context.Context) (fetch.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeSession{f: f}, nil
}

type fakeSession struct {
	f *fakeFetcher
}

func (s *fakeSession) FetchPage(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error) {
	id := models.InstrumentID(strings.TrimPrefix(pageURL, testBaseURL+"/community/outlook/"))
	s.f.mu.Lock()
	s.f.visited = append(s.f.visited, id)
	p, ok := s.f.pages[id]
	s.f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", id, fetch.ErrStatus)
	}
	if p.delay > 0 {
		tctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		select {
		case <-time.After(p.delay):
		case <-tctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s: %w", id, fetch.ErrTimeout)
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return []byte(p.body), nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.closed++
	return nil
}

func ids(names ...string) []models.InstrumentID {
	out := make([]models.InstrumentID, len(names))
	for i, n := range names {
		out[i] = models.InstrumentID(n)
	}
	return out
}
