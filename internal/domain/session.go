package domain

// SessionData is the server-side session record stored in Redis. Both
// tokens are sealed before storage; the browser only ever sees the
// opaque session ID cookie.
type SessionData struct {
	AccessToken          string `json:"access_token"`
	RefreshToken         string `json:"refresh_token"`
	AccessTokenExpiresAt int64  `json:"access_token_expires_at"`
	CreatedAt            int64  `json:"created_at"`
}

// SessionInfo is the public answer of the session check endpoint.
type SessionInfo struct {
	Authenticated     bool   `json:"authenticated"`
	SessionValidUntil string `json:"session_valid_until,omitempty"`
}
