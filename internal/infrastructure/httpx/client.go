package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client wraps an HTTP client with circuit breaker protection for
// outbound service calls (Keycloak, the auth service).
type Client struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// Settings configures the HTTP client and its breaker.
type Settings struct {
	Name             string
	Timeout          time.Duration
	MaxRequests      uint32
	Interval         time.Duration
	OpenTimeout      time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultSettings returns conservative defaults for a named client.
func DefaultSettings(name string) Settings {
	return Settings{
		Name:             name,
		Timeout:          30 * time.Second,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		OpenTimeout:      30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// New creates a circuit-breaker protected HTTP client.
func New(settings Settings, log *zap.Logger) *Client {
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= settings.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("HTTP client circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		client:  &http.Client{Timeout: settings.Timeout},
		breaker: breaker,
		log:     log,
	}
}

// Do executes the request through the breaker. A 5xx answer counts as a
// breaker failure but is still returned to the caller.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, fmt.Errorf("server error: %d", resp.StatusCode)
		}
		return resp, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			c.log.Warn("Circuit breaker open, request blocked",
				zap.String("url", req.URL.String()),
			)
			return nil, err
		}
		// 5xx: hand the response back, the breaker already counted it
		if resp, ok := result.(*http.Response); ok && resp != nil {
			return resp, nil
		}
		return nil, err
	}

	return result.(*http.Response), nil
}

// Get performs a GET request with circuit breaker protection.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// PostForm performs a form-encoded POST with circuit breaker protection.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// DrainAndClose discards and closes a response body so the underlying
// connection can be reused.
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
