// Package ncbi is the HTTP layer shared by the ESearch and EFetch calls.
//
// One BaseClient is shared by every concurrent fetch worker so that the NCBI
// request budget (3/s anonymous, 10/s with an API key) holds for the whole
// run, not per worker.
package ncbi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultTool    = "get-papers-list"
	DefaultEmail   = "get-papers-list@users.noreply.github.com"

	// NCBI usage policy, requests per second.
	RateWithoutKey = 3
	RateWithKey    = 10

	// DefaultMaxResponseBytes bounds one response body. A 200-record EFetch
	// batch is a few MB.
	DefaultMaxResponseBytes int64 = 50 * 1024 * 1024

	DefaultRetries = 2
	DefaultBackoff = 700 * time.Millisecond
	maxBackoff     = 4 * time.Second
)

// BaseClient issues rate-limited GET requests against E-utilities.
type BaseClient struct {
	BaseURL    string
	APIKey     string
	Tool       string
	Email      string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	MaxBytes   int64
	Retries    int           // extra attempts after a throttled or 5xx response
	Backoff    time.Duration // first wait when the server sends no Retry-After
	Logger     zerolog.Logger
}

// Option configures a BaseClient.
type Option func(*BaseClient)

func WithBaseURL(u string) Option {
	return func(c *BaseClient) { c.BaseURL = u }
}

// WithAPIKey sets the API key and raises the request budget to RateWithKey.
func WithAPIKey(key string) Option {
	return func(c *BaseClient) {
		c.APIKey = key
		if key != "" {
			c.Limiter = rate.NewLimiter(rate.Limit(RateWithKey), 1)
		}
	}
}

func WithTool(tool string) Option {
	return func(c *BaseClient) { c.Tool = tool }
}

func WithEmail(email string) Option {
	return func(c *BaseClient) { c.Email = email }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *BaseClient) { c.HTTPClient = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *BaseClient) { c.Logger = l }
}

func WithMaxResponseBytes(n int64) Option {
	return func(c *BaseClient) { c.MaxBytes = n }
}

// WithRetry sets how many times a retryable response is retried and the
// initial backoff. A negative count disables retries.
func WithRetry(retries int, backoff time.Duration) Option {
	return func(c *BaseClient) {
		c.Retries = max(retries, 0)
		c.Backoff = backoff
	}
}

// NewBaseClient creates a client with the anonymous rate limit unless an API
// key option raises it.
func NewBaseClient(opts ...Option) *BaseClient {
	c := &BaseClient{
		BaseURL:    DefaultBaseURL,
		Tool:       DefaultTool,
		Email:      DefaultEmail,
		MaxBytes:   DefaultMaxResponseBytes,
		Limiter:    rate.NewLimiter(rate.Limit(RateWithoutKey), 1),
		Retries:    DefaultRetries,
		Backoff:    DefaultBackoff,
		Logger:     zerolog.Nop(),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DoGet sends endpoint?params, adding api_key, tool and email. Throttled
// (429) and server-side (5xx) responses are retried; any other non-200
// response, or a retryable one that outlasts the retries, comes back as a
// *StatusError.
func (c *BaseClient) DoGet(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	target, err := c.requestURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	log := c.Logger.With().Str("endpoint", endpoint).Logger()
	for attempt := 1; ; attempt++ {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		log.Debug().Int("attempt", attempt).Msg("ncbi request")

		body, serr, err := c.get(ctx, target)
		if err != nil {
			return nil, err
		}
		if serr == nil {
			return body, nil
		}

		serr.Endpoint = endpoint
		serr.Attempts = attempt
		if !serr.Retryable() || attempt > c.Retries {
			return nil, serr
		}

		wait := serr.RetryAfter
		if wait <= 0 {
			wait = min(c.Backoff<<(attempt-1), maxBackoff)
		}
		log.Warn().
			Int("status", serr.Code).
			Int("attempt", attempt).
			Dur("retry_after", wait).
			Msg("ncbi request failed, retrying")
		if err := sleepWithContext(ctx, wait); err != nil {
			return nil, fmt.Errorf("retry of %s canceled: %w", endpoint, err)
		}
	}
}

func (c *BaseClient) requestURL(endpoint string, params url.Values) (string, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	if c.Tool != "" {
		q.Set("tool", c.Tool)
	}
	if c.Email != "" {
		q.Set("email", c.Email)
	}

	u, err := url.JoinPath(c.BaseURL, endpoint)
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	return u + "?" + q.Encode(), nil
}

// get performs one attempt. A non-200 response yields a *StatusError and a
// nil error; transport and read failures yield an error.
func (c *BaseClient) get(ctx context.Context, target string) ([]byte, *StatusError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{
			Code:       resp.StatusCode,
			RetryAfter: retryAfterDuration(resp.Header.Get("Retry-After")),
		}, nil
	}

	// Read one byte past the limit to tell "exactly MaxBytes" from "too big".
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.MaxBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > c.MaxBytes {
		return nil, nil, fmt.Errorf("response exceeds maximum size of %d bytes", c.MaxBytes)
	}
	return body, nil, nil
}

// StatusError is a non-200 answer from E-utilities.
type StatusError struct {
	Code       int
	Endpoint   string
	Attempts   int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("NCBI returned HTTP %d for %s", e.Code, e.Endpoint)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return msg
}

// Retryable reports whether the same request may succeed later.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Hint suggests what the user can change, or returns "" when nothing helps.
func (e *StatusError) Hint() string {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return "NCBI is throttling requests; set an API key with --api-key or NCBI_API_KEY, or lower --workers"
	case e.Code == http.StatusRequestURITooLong, e.Code == http.StatusBadRequest:
		return "NCBI rejected the request; shorten the query or lower --limit"
	case e.Code >= 500:
		return "NCBI E-utilities is unavailable; try again later"
	default:
		return ""
	}
}

// retryAfterDuration parses a Retry-After header in seconds or HTTP-date form.
func retryAfterDuration(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
