package ports

import (
	"context"
	"errors"
	"time"

	"github.com/bionicpro/reports-platform/internal/domain"
)

var (
	// ErrNoSession means the cookie is absent, unknown or already expired.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired means the session existed but could not be kept
	// alive (refresh grant rejected); the session record is gone.
	ErrSessionExpired = errors.New("session expired")
	// ErrInvalidState means the PKCE state is unknown or already consumed.
	ErrInvalidState = errors.New("invalid or expired state")
)

// Cache is the key/value store used for sessions and PKCE state.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// SessionService owns the PKCE login flow and the Redis-held sessions.
type SessionService interface {
	// BeginLogin stores the PKCE verifier under the returned state and
	// answers the Keycloak authorization URL to redirect to.
	BeginLogin(ctx context.Context) (authURL string, err error)

	// CompleteLogin consumes the PKCE state, exchanges the code for
	// tokens and creates a session. Returns the new session ID.
	CompleteLogin(ctx context.Context, code, state string) (sessionID string, err error)

	// Resolve returns the decrypted access token for a session,
	// refreshing it first when expired.
	Resolve(ctx context.Context, sessionID string) (accessToken string, err error)

	// ResolveAndRotate validates the session like Resolve, then rotates
	// the session ID. The old ID stops working immediately.
	ResolveAndRotate(ctx context.Context, sessionID string) (newID string, info *domain.SessionInfo, err error)

	// Logout deletes the session and best-effort revokes it upstream.
	Logout(ctx context.Context, sessionID string) error

	CookieName() string
	TTL() time.Duration
}

// ReportService generates or retrieves usage reports for a caller.
type ReportService interface {
	UserReport(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error)
}
