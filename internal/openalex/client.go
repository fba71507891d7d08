package openalex

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

	"github.com/rs/zerolog"

	"github.com/helixir/openalex-explorer/internal/cache"
	"github.com/helixir/openalex-explorer/internal/domain"
	"github.com/helixir/openalex-explorer/internal/observability"
	"github.com/helixir/openalex-explorer/internal/query"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency bounds parallel lookups in GetWorks.
	DefaultConcurrency = 5

	// maxBodyBytes caps a decoded response body.
	maxBodyBytes = 10 << 20

	// CorrelationHeader carries the page view's correlation ID upstream.
	CorrelationHeader = "X-Correlation-ID"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact address for the polite pool. When set it is sent
	// as the mailto parameter and in the User-Agent.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Email string

	// Timeout is the request timeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	BurstSize int

	// MaxRetries is the number of retries on 429 and 5xx responses. Zero
	// selects the default and a negative value disables retries.
	MaxRetries int

	// RetryDelay is the wait between retries without a Retry-After header.
	RetryDelay time.Duration

	// DetailTTL is how long single records stay cached.
	DetailTTL time.Duration

	// ListTTL is how long list and group-by pages stay cached.
	ListTTL time.Duration

	// Concurrency bounds parallel lookups in GetWorks.
	Concurrency int
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
	if c.DetailTTL == 0 {
		c.DetailTTL = cache.DefaultDetailTTL
	}
	if c.ListTTL == 0 {
		c.ListTTL = cache.DefaultListTTL
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
}

// Client is a typed OpenAlex API client. It is safe for concurrent use.
type Client struct {
	config     Config
	httpClient *HTTPClient
	loader     *cache.Loader
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Option configures optional Client dependencies.
type Option func(*Client)

// WithCache puts a response cache in front of the API.
func WithCache(loader *cache.Loader) Option {
	return func(c *Client) { c.loader = loader }
}

// WithMetrics records upstream request metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for upstream failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger.With().Str("component", "openalex").Logger() }
}

// New creates a new OpenAlex client with the given configuration.
func New(cfg Config, opts ...Option) *Client {
	cfg.applyDefaults()

	userAgent := DefaultUserAgent
	if cfg.Email != "" {
		userAgent += " (mailto:" + cfg.Email + ")"
	}
	httpClient := NewHTTPClient(HTTPClientConfig{
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		UserAgent:  userAgent,
	})

	return NewWithHTTPClient(cfg, httpClient, opts...)
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *HTTPClient, opts ...Option) *Client {
	cfg.applyDefaults()

	c := &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks the response cache, if any. The API itself is not probed so
// readiness does not spend the rate limit.
func (c *Client) Ping(ctx context.Context) error {
	if c.loader == nil {
		return nil
	}
	return c.loader.Ping(ctx)
}

// list fetches one page of kind. Params are validated before any request
// is made, and the configured mailto is added when params carry none.
func list[T any](ctx context.Context, c *Client, kind Kind, params query.Params) (*Page[T], error) {
	if params.Mailto == "" {
		params.Mailto = c.config.Email
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	data, err := c.fetch(ctx, kind, "/"+string(kind), params.Values(), c.config.ListTTL, "")
	if err != nil {
		return nil, err
	}

	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decoding %s list: %w", kind, err)
	}
	return &page, nil
}

// get fetches a single record of kind by any accepted spelling of its ID.
func get[T any](ctx context.Context, c *Client, kind Kind, id string) (*T, error) {
	shortID := NormalizeID(kind, id)
	if shortID == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}

	values := url.Values{}
	if c.config.Email != "" {
		values.Set("mailto", c.config.Email)
	}

	data, err := c.fetch(ctx, kind, "/"+string(kind)+"/"+shortID, values, c.config.DetailTTL, shortID)
	if err != nil {
		return nil, err
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind.Singular(), err)
	}
	return &record, nil
}

// fetch returns the body of a successful GET, going through the cache when
// one is configured. id names the record for not-found errors.
func (c *Client) fetch(ctx context.Context, kind Kind, path string, values url.Values, ttl time.Duration, id string) ([]byte, error) {
	reqURL, err := c.buildURL(path, values)
	if err != nil {
		return nil, fmt.Errorf("building request URL: %w", err)
	}

	do := func(ctx context.Context) ([]byte, error) {
		start := time.Now()
		data, err := c.do(ctx, kind, reqURL, id)
		c.record(kind, path, err, time.Since(start))
		return data, err
	}

	if c.loader == nil {
		return do(ctx)
	}
	data, _, err := c.loader.Load(ctx, reqURL, ttl, do)
	return data, err
}

func (c *Client) do(ctx context.Context, kind Kind, reqURL, id string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cid := observability.CorrelationIDFromContext(ctx); cid != "" {
		req.Header.Set(CorrelationHeader, cid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		if id == "" {
			id = req.URL.Path
		}
		return nil, domain.NewNotFoundError(kind.Singular(), id)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, domain.NewExternalAPIError("OpenAlex", resp.StatusCode, errorMessage(body), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return data, nil
}

func (c *Client) record(kind Kind, path string, err error, elapsed time.Duration) {
	outcome := outcomeOf(err)
	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(string(kind), outcome, elapsed.Seconds())
	}

	logger := observability.WithUpstreamContext(c.logger, string(kind), path)
	switch outcome {
	case observability.OutcomeSuccess:
		logger.Debug().Dur("duration", elapsed).Msg("openalex request")
	case observability.OutcomeNotFound:
		logger.Debug().Msg("openalex record not found")
	default:
		if !errors.Is(err, context.Canceled) {
			logger.Warn().Err(err).Dur("duration", elapsed).Msg("openalex request failed")
		}
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound):
		return observability.OutcomeNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return observability.OutcomeRateLimited
	default:
		return observability.OutcomeError
	}
}

func (c *Client) buildURL(path string, values url.Values) (string, error) {
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// errorMessage extracts the message from an OpenAlex error body, falling
// back to a truncated copy of the raw body.
func errorMessage(body []byte) string {
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
