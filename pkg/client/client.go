// Package client is the consumer SDK for the reports platform. It
// carries the browser-equivalent session contract: an opaque cookie,
// one session check per process start, and a report fetch whose
// outcome is an explicit sum type.
package client

import (
	"net/http"
	"net/http/cookiejar"
	"sync"
	"sync/atomic"
	"time"
)

// Default service addresses for local development.
const (
	DefaultAuthBaseURL = "http://localhost:8001"
	DefaultAPIBaseURL  = "http://localhost:8000"
)

// Config configures a Client. Zero values fall back to the local
// development defaults.
type Config struct {
	AuthBaseURL string
	APIBaseURL  string

	// HTTPClient lets tests and callers inject a transport. When nil a
	// client with a cookie jar is built; when set without a jar, one is
	// added so the session cookie survives across calls.
	HTTPClient *http.Client
}

// Client holds the session state and performs the authenticated calls.
// State is owned by the instance; two Clients are two sessions.
type Client struct {
	authBaseURL string
	apiBaseURL  string
	http        *http.Client

	mu      sync.RWMutex
	state   SessionState
	loading atomic.Bool
}

// New builds a Client. The session starts in StateLoading until
// CheckSession resolves it.
func New(cfg Config) (*Client, error) {
	if cfg.AuthBaseURL == "" {
		cfg.AuthBaseURL = DefaultAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient.Jar = jar
	}

	return &Client{
		authBaseURL: cfg.AuthBaseURL,
		apiBaseURL:  cfg.APIBaseURL,
		http:        httpClient,
		state:       StateLoading,
	}, nil
}

// State returns the current session state.
func (c *Client) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Loading reports whether a report fetch is in flight.
func (c *Client) Loading() bool {
	return c.loading.Load()
}

func (c *Client) setState(s SessionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
