package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/guttosm/fxpulse/internal/domain/models"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var (
	// ErrTimeout is returned when a page did not load within its budget.
	ErrTimeout = errors.New("fetch timeout")

	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected http status")
)

// Session drives one page navigation at a time. It is not safe for
// concurrent use and must be closed by whoever opened it.
type Session interface {
	FetchPage(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error)
	Close() error
}

// Fetcher opens sessions.
type Fetcher interface {
	Open(ctx context.Context) (Session, error)
}

// Options configures the HTTP fetcher.
//
// Fields:
//   - BaseURL: site root; redirects off this host are refused.
//   - UserAgent: sent on every request (desktop Chrome when empty).
//   - RequestsPerSecond: request rate cap; 0 disables the limiter.
//   - CloudflareBypass: wrap the transport with cloudflare-bp-go.
//   - Transport: optional base transport, used by tests.
type Options struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	CloudflareBypass  bool
	Transport         http.RoundTripper
}

// HTTPFetcher opens resty-backed sessions with their own cookie jar.
type HTTPFetcher struct {
	opts Options
}

// NewHTTPFetcher returns a Fetcher for the given options.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &HTTPFetcher{opts: opts}
}

// Open creates a new session. Each session has a fresh cookie jar, so cookies
// set by the site persist across the instruments of one run only.
func (f *HTTPFetcher) Open(ctx context.Context) (Session, error) {
	base, err := url.Parse(f.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Hostname() == "" {
		return nil, fmt.Errorf("base url %q has no host", f.opts.BaseURL)
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	client.SetCookieJar(jar)
	if f.opts.Transport != nil {
		client.SetTransport(f.opts.Transport)
	}
	if f.opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", f.opts.UserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))

	if f.opts.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &httpSession{client: client}, nil
}

type httpSession struct {
	client *resty.Client
}

// FetchPage GETs pageURL with a per-call deadline. Only this call is bounded by
// timeout; the parent context is left untouched for the next page.
func (s *httpSession) FetchPage(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := s.client.R().SetContext(callCtx).Get(pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s after %s: %w", pageURL, timeout, ErrTimeout)
		}
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s: %w: %d", pageURL, ErrStatus, res.StatusCode())
	}
	return res.Body(), nil
}

// Close releases pooled connections.
func (s *httpSession) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// OutlookURL builds the community outlook page URL for an instrument.
func OutlookURL(baseURL string, instrument models.InstrumentID) string {
	return strings.TrimRight(baseURL, "/") + "/community/outlook/" + url.PathEscape(string(instrument))
}
