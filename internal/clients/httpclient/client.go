// Package httpclient holds the rate-limited JSON transport shared by the
// market data vendor clients.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockview/internal/common"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	maxErrorBody     = 512
)

// Base performs authenticated, rate-limited GET requests against one vendor.
type Base struct {
	Vendor     string
	BaseURL    string
	APIKey     string
	AuthParam  string // query parameter carrying the API key
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *common.Logger
	extra      url.Values
}

// Option configures a Base
type Option func(*Base)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) Option {
	return func(b *Base) {
		b.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.Logger = logger
		}
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) Option {
	return func(b *Base) {
		if requestsPerSecond > 0 {
			b.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(b *Base) {
		if timeout > 0 {
			b.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(b *Base) {
		if hc != nil {
			b.HTTPClient = hc
		}
	}
}

// WithStaticParam adds a query parameter to every request
func WithStaticParam(key, value string) Option {
	return func(b *Base) {
		b.extra.Set(key, value)
	}
}

// New creates a Base with defaults, then applies opts.
func New(vendor, baseURL, apiKey, authParam string, opts ...Option) *Base {
	b := &Base{
		Vendor:    vendor,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		AuthParam: authParam,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		Limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		Logger:  common.NewSilentLogger(),
		extra:   url.Values{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// APIError represents a non-200 vendor response
type APIError struct {
	Vendor     string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Vendor, e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is a vendor 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// GetJSON performs a rate-limited GET and decodes the body into result.
func (b *Base) GetJSON(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := b.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	q := url.Values{}
	for k, vs := range b.extra {
		q[k] = append([]string(nil), vs...)
	}
	for k, vs := range params {
		q[k] = vs
	}
	if b.AuthParam != "" {
		q.Set(b.AuthParam, b.APIKey)
	}

	reqURL := b.BaseURL + path
	if enc := q.Encode(); enc != "" {
		reqURL += "?" + enc
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := b.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	b.Logger.Debug().
		Str("vendor", b.Vendor).
		Str("url", b.BaseURL+path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Vendor API request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Vendor:     b.Vendor,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
