package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"ringroad/pkg/tracker"
	"ringroad/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("Ringroad POI Tour (ringroad/%s)", version.Version)

// ErrMaxRetries is returned once every attempt hit a retryable failure.
var ErrMaxRetries = errors.New("max retries exceeded")

// StatusError reports a non-retryable HTTP status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: %s returned status %d", e.URL, e.StatusCode)
}

// Response is the body of a successful fetch and its declared content type.
type Response struct {
	Body        []byte
	ContentType string
}

// Options tunes retry behaviour. Zero values fall back to defaults.
type Options struct {
	Retries   int
	Timeout   time.Duration
	BaseDelay time.Duration
}

// Client performs GET requests with retries, per-host backoff and tracking.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	backoff    *HostBackoff
	retries    int
	baseDelay  time.Duration
}

// New creates a new Client.
func New(t *tracker.Tracker, opts Options) *Client {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if t == nil {
		t = tracker.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		tracker:    t,
		backoff:    NewHostBackoff(opts.BaseDelay, 30*time.Second),
		retries:    opts.Retries,
		baseDelay:  opts.BaseDelay,
	}
}

// Get fetches u. Headers override the defaults, including User-Agent.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string) (*Response, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	host := parsedURL.Host

	if err := c.backoff.Wait(ctx, host); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.executeWithBackoff(req)
	if err != nil {
		c.tracker.TrackFailure(host)
		if ctx.Err() == nil {
			c.backoff.RecordFailure(host)
		}
		return nil, err
	}
	c.tracker.TrackSuccess(host)
	c.backoff.RecordSuccess(host)
	return resp, nil
}

// executeWithBackoff retries network errors, 429 and 5xx with exponential delays.
func (c *Client) executeWithBackoff(req *http.Request) (*Response, error) {
	host := req.URL.Host
	var lastErr error

	for attempt := 0; attempt < c.retries; attempt++ {
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		if attempt > 0 {
			c.tracker.TrackRetry(host)
		}

		slog.Debug("Network Request", "host", host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			slog.Warn("Request failed, retrying", "url", req.URL, "attempt", attempt+1, "error", err)
			lastErr = err
			if err := c.sleep(req.Context(), attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			slog.Warn("API Backoff", "status", resp.StatusCode, "url", req.URL, "attempt", attempt+1)
			lastErr = &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
			if err := c.sleep(req.Context(), attempt); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return &Response{Body: body, ContentType: resp.Header.Get("Content-Type")}, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

func (c *Client) sleep(ctx context.Context, attempt int) error {
	d := time.Duration(math.Pow(2, float64(attempt))) * c.baseDelay
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
