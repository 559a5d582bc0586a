// Package resilience wraps outbound provider HTTP calls with a circuit
// breaker, bounded retries and per-request deadlines. Every source adapter
// talks to its upstream through one of these clients.
package resilience

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned without touching the network when the
// provider's circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ClientConfig holds configuration for a resilient provider client.
type ClientConfig struct {
	// Name identifies the provider for breaker state and health reporting.
	Name string

	// Timeout is the hard deadline for a single HTTP attempt.
	// Default: 30 seconds.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts on transient failures.
	// Default: 2.
	MaxRetries uint64

	// InitialInterval is the first retry backoff interval. Default: 200ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff interval. Default: 5s.
	MaxInterval time.Duration

	// Breaker overrides the circuit breaker settings. Nil uses defaults:
	// trip at a 50% failure rate once 5 requests have been observed,
	// reopen probe after 60s.
	Breaker *BreakerConfig
}

// DefaultClientConfig returns the defaults used by the source adapters.
func DefaultClientConfig(name string) ClientConfig {
	return ClientConfig{
		Name:            name,
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Client is an HTTP client guarded by a per-provider circuit breaker and
// exponential-backoff retry.
type Client struct {
	name    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	config  ClientConfig
}

// NewClient creates a resilient client for one provider.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}

	bc := cfg.Breaker
	if bc == nil {
		def := DefaultBreakerConfig(cfg.Name)
		bc = &def
	}

	return &Client{
		name:    cfg.Name,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: newBreaker[*http.Response](*bc),
		config:  cfg,
	}
}

// Name returns the provider name this client guards.
func (c *Client) Name() string { return c.name }

// Do executes the request through the breaker, retrying transient
// failures (network errors and 5xx responses) with exponential backoff.
// Client errors (4xx) and open-breaker states are returned immediately.
// The caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var final *http.Response

	attempt := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, doErr := c.http.Do(req.Clone(ctx))
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= http.StatusInternalServerError {
				// Surfaced as an error so server failures trip the breaker.
				return r, &UpstreamError{Provider: c.name, StatusCode: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				if resp.Body != nil {
					resp.Body.Close()
				}
			}
			return err
		}

		final = resp
		return nil
	}

	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return final, nil
}

// BreakerState returns the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// BreakerCounts returns the circuit breaker's request statistics.
func (c *Client) BreakerCounts() gobreaker.Counts {
	return c.breaker.Counts()
}

// UpstreamError is a 5xx response from a provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error: %s", e.Provider, http.StatusText(e.StatusCode))
}
