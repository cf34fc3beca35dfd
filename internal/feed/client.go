package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/rental-sync-manager/backend/internal/logging"
)

// FetchErrorKind classifies transport-level fetch failures.
type FetchErrorKind string

const (
	FetchErrTimeout        FetchErrorKind = "timeout"
	FetchErrHTTPStatus     FetchErrorKind = "http_status"
	FetchErrNetwork        FetchErrorKind = "network"
	FetchErrInvalidContent FetchErrorKind = "invalid_content"
)

// FetchError is a structured transport-level failure. Malformed calendar
// content past the header check is the parser's concern, not the client's.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrHTTPStatus {
		return fmt.Sprintf("fetching feed: status %d", e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetching feed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("fetching feed: %s", e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// cachedFeed stores conditional-GET metadata and the last successful body
// for one feed URL, so unchanged feeds answer 304 and skip the download.
type cachedFeed struct {
	ETag         string
	LastModified string
	Body         []byte
}

// Client downloads calendar feeds over HTTP with a bounded timeout, limited
// retries on transient errors, and per-process rate limiting.
type Client struct {
	httpClient *http.Client
	retries    int
	baseDelay  time.Duration
	limiter    *rate.Limiter
	cache      *gocache.Cache
}

// NewClient creates a feed client. retries is the number of re-attempts
// after the first try; ratePerSec bounds outgoing requests across all feeds.
func NewClient(timeout time.Duration, retries int, ratePerSec float64, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retries:    retries,
		baseDelay:  time.Second,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
		cache:      gocache.New(cacheTTL, 10*time.Minute),
	}
}

// Fetch downloads the feed at url. It retries transient network and 5xx
// failures with exponential backoff, never 4xx responses. The response must
// begin with a calendar header or the fetch fails with invalid content.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Kind: FetchErrTimeout, URL: url, Err: err}
	}

	var lastErr error
	delay := c.baseDelay

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			logging.Warn("feed fetch retrying", "url", url, "attempt", attempt, "delay", delay.String(), "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &FetchError{Kind: FetchErrTimeout, URL: url, Err: ctx.Err()}
			}
			delay *= 2
		}

		body, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single conditional GET. The second return value
// reports whether the failure is transient and worth retrying.
func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, &FetchError{Kind: FetchErrNetwork, URL: url, Err: err}
	}

	var cached *cachedFeed
	if entry, ok := c.cache.Get(url); ok {
		cached = entry.(*cachedFeed)
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, false, &FetchError{Kind: FetchErrTimeout, URL: url, Err: err}
		}
		return nil, true, &FetchError{Kind: FetchErrNetwork, URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, true, &FetchError{Kind: FetchErrNetwork, URL: url, Err: readErr}
		}

		if !looksLikeCalendar(body) {
			return nil, false, &FetchError{Kind: FetchErrInvalidContent, URL: url}
		}

		c.cache.SetDefault(url, &cachedFeed{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
		})
		return body, false, nil

	case resp.StatusCode == http.StatusNotModified:
		if cached == nil || len(cached.Body) == 0 {
			return nil, false, &FetchError{Kind: FetchErrHTTPStatus, URL: url, StatusCode: resp.StatusCode}
		}
		logging.Debug("feed not modified, using cached body", "url", url)
		return cached.Body, false, nil

	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, &FetchError{Kind: FetchErrHTTPStatus, URL: url, StatusCode: resp.StatusCode}

	default:
		return nil, false, &FetchError{Kind: FetchErrHTTPStatus, URL: url, StatusCode: resp.StatusCode}
	}
}

// looksLikeCalendar checks that the payload starts with an iCalendar header,
// tolerating a UTF-8 BOM and leading whitespace.
func looksLikeCalendar(body []byte) bool {
	body = bytes.TrimPrefix(body, []byte{0xEF, 0xBB, 0xBF})
	body = bytes.TrimLeft(body, " \t\r\n")
	return bytes.HasPrefix(body, []byte("BEGIN:VCALENDAR"))
}
