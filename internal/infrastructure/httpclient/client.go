// Package httpclient provides the outbound HTTP client used to poll the port
// directory.
//
// Built on go-resty/resty over a go-retryablehttp pooled transport, with a
// circuit breaker and an optional rate limiter in front of every request.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/tracing"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps resty with rate limiting and a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	mu      sync.RWMutex
}

// Options configures a Client
type Options struct {
	Name       string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	MaxWait    time.Duration
	UserAgent  string
	// TripAfter opens the breaker after this many consecutive failures
	TripAfter     uint32
	BreakerWait   time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

// DefaultOptions suits a short periodic poll: fail fast, retry once
func DefaultOptions() Options {
	return Options{
		Name:        "open-ports",
		Timeout:     5 * time.Second,
		RetryCount:  1,
		RetryWait:   250 * time.Millisecond,
		MaxWait:     2 * time.Second,
		UserAgent:   "LocalBrowser/1.0",
		TripAfter:   3,
		BreakerWait: 30 * time.Second,
	}
}

// New creates a client from options
func New(opts Options) *Client {
	// Borrow the pooled transport from retryablehttp
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.MaxWait).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "application/json")
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	tripAfter := opts.TripAfter
	if tripAfter == 0 {
		tripAfter = 3
	}
	breaker := resilience.New(opts.Name, resilience.Settings{
		MaxRequests: 1,
		Timeout:     opts.BreakerWait,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: opts.OnStateChange,
	})

	return &Client{
		resty:   restyClient,
		limiter: rate.NewLimiter(rate.Inf, 0),
		breaker: breaker,
	}
}

// SetRateLimit caps requests per second; zero or less removes the cap
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// Get fetches url and returns the body of a 2xx response
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	return resilience.Do(c.breaker, func() ([]byte, error) {
		headers := map[string]string{}
		tracing.InjectTraceContext(ctx, headers)

		c.mu.RLock()
		req := c.resty.R().SetContext(ctx).SetHeaders(headers)
		c.mu.RUnlock()

		resp, err := req.Get(url)
		if err != nil {
			return nil, fmt.Errorf("GET %s: %w", url, err)
		}
		if !resp.IsSuccess() {
			return nil, &StatusError{URL: url, Code: resp.StatusCode()}
		}
		return resp.Body(), nil
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.breaker.Counts()
}

// StatusError reports a non-2xx response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// IsCircuitOpen reports whether err came from an open breaker
func IsCircuitOpen(err error) bool {
	return errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests)
}
