package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// SessionState is the three-valued session check outcome.
type SessionState int

const (
	// StateLoading means the session check has not resolved yet.
	StateLoading SessionState = iota
	// StateAuthenticated means the auth service confirmed a live session.
	StateAuthenticated
	// StateUnauthenticated covers everything else: no session, a
	// rejected check, or a check that failed outright.
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// CheckSession asks the auth service whether the stored cookie still
// maps to a live session, and settles the session state. Every failure
// mode (transport error, non-2xx answer, malformed body, falsy flag)
// resolves to StateUnauthenticated; the check never returns an error.
func (c *Client) CheckSession(ctx context.Context) SessionState {
	state := c.checkSession(ctx)
	c.setState(state)
	return state
}

func (c *Client) checkSession(ctx context.Context) SessionState {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authBaseURL+"/auth/session", nil)
	if err != nil {
		return StateUnauthenticated
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return StateUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StateUnauthenticated
	}

	var payload sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return StateUnauthenticated
	}
	if !payload.Authenticated {
		return StateUnauthenticated
	}
	return StateAuthenticated
}

// LoginURL is the external navigation target that starts the login
// flow. Navigating there leaves the application; the redirect chain
// ends back at the frontend with a fresh session cookie.
func (c *Client) LoginURL() string {
	return c.authBaseURL + "/auth/login"
}

// LogoutURL is the external navigation target that ends the session.
func (c *Client) LogoutURL() string {
	return c.authBaseURL + "/auth/logout"
}
