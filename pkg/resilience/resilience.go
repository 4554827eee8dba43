// Package resilience wraps outbound HTTP calls with bounded retries,
// exponential backoff and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Doer is satisfied by *http.Client and by OAuth-signing clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Caller executes requests for one remote service. Every attempt runs under
// Timeout; the breaker is shared by all attempts.
type Caller struct {
	Client  Doer
	Backoff BackoffConfig
	Timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

var (
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	ErrNoHTTPClient  = errors.New("http client not configured")
	ErrInvalidConfig = errors.New("invalid backoff configuration")
)

// NewCaller builds a Caller with a breaker named after the remote service.
func NewCaller(name string, client Doer, backoff BackoffConfig, timeout time.Duration) *Caller {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Caller{
		Client:  client,
		Backoff: backoff,
		Timeout: timeout,
		breaker: cb,
	}
}

// Do executes the request built by buildRequest until it returns a 2xx
// response, the retries are exhausted, the breaker opens or ctx is done.
// buildRequest is invoked once per attempt so request bodies can be rebuilt.
// The caller owns the returned response body.
func (c *Caller) Do(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	if c.Client == nil {
		return nil, ErrNoHTTPClient
	}
	if c.Backoff.MaxRetries < 0 || c.Backoff.InitialInterval <= 0 {
		return nil, ErrInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, err := c.attempt(ctx, buildRequest)
		if err == nil {
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}

		if attempt >= c.Backoff.MaxRetries || !retryable(err) {
			return nil, err
		}

		delay := c.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.Backoff.MaxInterval && c.Backoff.MaxInterval > 0 {
			delay = c.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

func (c *Caller) attempt(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if c.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, c.Timeout)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := buildRequest(attemptCtx)
		if err != nil {
			return nil, err
		}

		resp, err := c.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: %d %s", ErrUnexpected, resp.StatusCode, string(body))
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		cancel()
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	// The attempt deadline must outlive Do so the caller can read the body.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}

	return resp, nil
}

// retryable reports whether another attempt could succeed. Client errors
// other than 429 are final.
func retryable(err error) bool {
	return !errors.Is(err, ErrUnexpected)
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	defer b.cancel()
	return b.ReadCloser.Close()
}
