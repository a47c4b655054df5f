// Package wikibase talks to the MediaWiki action API of a Wikibase
// instance (Wikidata by default): bot login, full-text search, entity
// reads and wbeditentity writes.
package wikibase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/velov-sync/internal/observability"
)

// Options configures a Client.
type Options struct {
	APIURL       string
	UserAgent    string
	Timeout      time.Duration
	EditInterval time.Duration // minimum spacing between two edits; 0 disables throttling
	MaxRetries   int
	MaxLag       int // seconds of replication lag tolerated by edits; 0 omits the parameter
	Bot          bool
}

// Client implements the knowledge-base operations of the sync.
type Client struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	maxLag     int
	bot        bool
	logger     *slog.Logger
	metrics    *observability.Metrics

	// retryInterval is the first backoff delay; tests shrink it.
	retryInterval time.Duration
	csrfToken     string
}

// NewClient creates a client with its own cookie jar for the login session.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	limit := rate.Inf
	if opts.EditInterval > 0 {
		limit = rate.Every(opts.EditInterval)
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return &Client{
		apiURL:    opts.APIURL,
		userAgent: opts.UserAgent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
		},
		limiter:       rate.NewLimiter(limit, 1),
		maxRetries:    uint64(retries),
		maxLag:        opts.MaxLag,
		bot:           opts.Bot,
		logger:        logger,
		metrics:       metrics,
		retryInterval: 500 * time.Millisecond,
	}, nil
}

// APIError is an error reported in the body of an API response.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wikibase API error %s: %s", e.Code, e.Info)
}

// retryable reports whether the server refused the request without acting on it.
func (e *APIError) retryable() bool {
	switch e.Code {
	case "maxlag", "ratelimited":
		return true
	default:
		return false
	}
}

// statusError is a non-200 HTTP response.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("wikibase HTTP error: status %d: %s", e.status, e.body)
}

// call performs one API action and decodes the response into out. Reads
// (idempotent) are retried on transport failures and 5xx/429 responses;
// writes only on API errors that guarantee nothing was changed.
func (c *Client) call(ctx context.Context, op, method string, params url.Values, idempotent bool, out any) error {
	params.Set("format", "json")

	attempt := func() error {
		err := c.do(ctx, op, method, params, out)
		if err == nil {
			return nil
		}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if apiErr.retryable() {
				return err
			}
			return backoff.Permanent(err)
		}
		if !idempotent || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		var statusErr *statusError
		if errors.As(err, &statusErr) &&
			statusErr.status < 500 && statusErr.status != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxInterval = 30 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	return backoff.RetryNotify(attempt, policy, func(err error, wait time.Duration) {
		c.metrics.KBRetries.WithLabelValues(op).Inc()
		c.logger.Warn("wikibase request failed, retrying", "operation", op, "error", err, "wait", wait)
	})
}

func (c *Client) do(ctx context.Context, op, method string, params url.Values, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, params, out)
	c.metrics.KBRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.KBRequests.WithLabelValues(op, outcome).Inc()
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, params url.Values, out any) error {
	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.apiURL+"?"+params.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", params.Get("action"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &statusError{status: resp.StatusCode, body: truncate(string(body), 256)}
	}

	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error != nil {
		return envelope.Error
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

