package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, authURL, apiURL string) *Client {
	t.Helper()
	c, err := New(Config{AuthBaseURL: authURL, APIBaseURL: apiURL})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return c
}

func TestCheckSession_Authenticated(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/session" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"authenticated": true, "session_valid_until": "2026-09-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act
	state := c.CheckSession(context.Background())

	// Assert
	if state != StateAuthenticated {
		t.Errorf("expected authenticated, got %v", state)
	}
	if c.State() != StateAuthenticated {
		t.Errorf("expected stored state authenticated, got %v", c.State())
	}
}

func TestCheckSession_FalsyFlag(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"authenticated": false}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act
	state := c.CheckSession(context.Background())

	// Assert
	if state != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", state)
	}
}

func TestCheckSession_Unauthorized(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"authenticated": false}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act
	state := c.CheckSession(context.Background())

	// Assert
	if state != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", state)
	}
}

func TestCheckSession_ServerError(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act & Assert
	if state := c.CheckSession(context.Background()); state != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", state)
	}
}

func TestCheckSession_TransportError(t *testing.T) {
	// Arrange: a server that is already gone
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act & Assert
	if state := c.CheckSession(context.Background()); state != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", state)
	}
}

func TestCheckSession_MalformedBody(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, srv.URL)

	// Act & Assert
	if state := c.CheckSession(context.Background()); state != StateUnauthenticated {
		t.Errorf("expected unauthenticated, got %v", state)
	}
}

func TestSessionState_StartsLoading(t *testing.T) {
	c := newTestClient(t, "http://localhost:0", "http://localhost:0")

	if c.State() != StateLoading {
		t.Errorf("expected loading before the first check, got %v", c.State())
	}
}

func TestNavigationURLs(t *testing.T) {
	c := newTestClient(t, "http://auth.example", "http://api.example")

	if got := c.LoginURL(); got != "http://auth.example/auth/login" {
		t.Errorf("unexpected login URL: %s", got)
	}
	if got := c.LogoutURL(); got != "http://auth.example/auth/logout" {
		t.Errorf("unexpected logout URL: %s", got)
	}
}
