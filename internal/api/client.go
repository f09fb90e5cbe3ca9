package api

import (
	"log/slog"
	"net/http"
	"time"
)

// Default client settings.
const (
	DefaultDatasource = "tranquility"
	DefaultRetryDelay = 60 * time.Second
)

// Client provides access to the ESI market endpoints.
type Client struct {
	baseURL     string
	datasource  string
	universeURL string
	userAgent   string
	httpClient  *http.Client
	logger      *slog.Logger
	gate        *gate

	maxRetries int
	retryDelay time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new ESI client rooted at baseURL (e.g. https://esi.evetech.net/latest).
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		datasource: DefaultDatasource,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:     slog.Default(),
		gate:       newGate(0),
		maxRetries: 3,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry count and the fixed delay between attempts.
func WithRetries(max int, delay time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryDelay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDatasource sets the ESI datasource query parameter.
func WithDatasource(ds string) ClientOption {
	return func(c *Client) {
		c.datasource = ds
	}
}

// WithUniverseURL sets the location of the universe document.
func WithUniverseURL(u string) ClientOption {
	return func(c *Client) {
		c.universeURL = u
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables pacing.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		c.gate = newGate(rps)
	}
}
