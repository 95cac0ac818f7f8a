package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/keycloak"
	"github.com/bionicpro/reports-platform/internal/mocks"
	"github.com/bionicpro/reports-platform/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestService(cache ports.Cache, idp *mocks.MockIdentityProvider) ports.SessionService {
	sealer, _ := NewSealer("test-encryption-key")
	return NewService(cache, idp, sealer, Config{
		CookieName:     "bionicpro_session",
		TTL:            24 * time.Hour,
		AccessTokenTTL: 5 * time.Minute,
		PKCEStateTTL:   5 * time.Minute,
	}, newTestLogger())
}

func TestBeginLogin_StoresVerifierAndBuildsURL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)

	// Act
	authURL, err := service.BeginLogin(ctx)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(authURL, "state=") || !strings.Contains(authURL, "code_challenge=") {
		t.Errorf("authorization URL missing PKCE parameters: %s", authURL)
	}
}

func TestCompleteLogin_CreatesSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)

	authURL, _ := service.BeginLogin(ctx)
	state := extractQueryParam(t, authURL, "state")

	// Act
	sessionID, err := service.CompleteLogin(ctx, "the-code", state)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if sessionID == "" {
		t.Fatal("expected a session ID")
	}
	if idp.ExchangeCalls != 1 {
		t.Errorf("expected one code exchange, got %d", idp.ExchangeCalls)
	}

	token, err := service.Resolve(ctx, sessionID)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if token != "access-the-code" {
		t.Errorf("unexpected access token: %q", token)
	}
}

func TestCompleteLogin_StateIsSingleUse(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)

	authURL, _ := service.BeginLogin(ctx)
	state := extractQueryParam(t, authURL, "state")

	if _, err := service.CompleteLogin(ctx, "the-code", state); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	// Act
	_, err := service.CompleteLogin(ctx, "the-code", state)

	// Assert
	if !errors.Is(err, ports.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestCompleteLogin_UnknownState(t *testing.T) {
	ctx := context.Background()
	service := newTestService(mocks.NewMockCache(), &mocks.MockIdentityProvider{})

	_, err := service.CompleteLogin(ctx, "the-code", "never-issued")

	if !errors.Is(err, ports.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestResolve_UnknownSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService(mocks.NewMockCache(), &mocks.MockIdentityProvider{})

	_, err := service.Resolve(ctx, "no-such-session")

	if !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestResolve_RefreshesExpiredToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)
	sessionID := seedExpiredSession(t, ctx, service, cache)

	// Act
	token, err := service.Resolve(ctx, sessionID)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token != "refreshed-access" {
		t.Errorf("expected refreshed token, got %q", token)
	}
	if idp.RefreshCalls != 1 {
		t.Errorf("expected one refresh, got %d", idp.RefreshCalls)
	}
}

func TestResolve_RefreshFailureDeletesSession(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*keycloak.TokenSet, error) {
			return nil, errors.New("refresh token revoked")
		},
	}
	service := newTestService(cache, idp)
	sessionID := seedExpiredSession(t, ctx, service, cache)

	// Act
	_, err := service.Resolve(ctx, sessionID)

	// Assert
	if !errors.Is(err, ports.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	// The session record is gone: the next resolve sees no session
	if _, err := service.Resolve(ctx, sessionID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected ErrNoSession after deletion, got %v", err)
	}
}

func TestResolveAndRotate_InvalidatesOldID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)
	sessionID := login(t, service, cache)

	// Act
	newID, info, err := service.ResolveAndRotate(ctx, sessionID)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if newID == sessionID {
		t.Error("expected a fresh session ID")
	}
	if info == nil || !info.Authenticated {
		t.Fatalf("expected authenticated info, got %+v", info)
	}
	if _, err := time.Parse(time.RFC3339, info.SessionValidUntil); err != nil {
		t.Errorf("session_valid_until is not RFC3339: %v", err)
	}

	if _, err := service.Resolve(ctx, sessionID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected old ID invalidated, got %v", err)
	}
	if _, err := service.Resolve(ctx, newID); err != nil {
		t.Errorf("expected new ID to resolve, got %v", err)
	}
}

func TestLogout_DeletesSessionAndRevokesUpstream(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{}
	service := newTestService(cache, idp)
	sessionID := login(t, service, cache)

	// Act
	if err := service.Logout(ctx, sessionID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	// Assert
	if idp.LogoutCalls != 1 {
		t.Errorf("expected one upstream logout, got %d", idp.LogoutCalls)
	}
	if _, err := service.Resolve(ctx, sessionID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected session gone, got %v", err)
	}
}

func TestLogout_UpstreamFailureStillDeletes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	cache := mocks.NewMockCache()
	idp := &mocks.MockIdentityProvider{
		LogoutFunc: func(ctx context.Context, refreshToken string) error {
			return errors.New("keycloak unreachable")
		},
	}
	service := newTestService(cache, idp)
	sessionID := login(t, service, cache)

	// Act
	err := service.Logout(ctx, sessionID)

	// Assert
	if err != nil {
		t.Fatalf("expected best-effort logout to succeed, got %v", err)
	}
	if _, err := service.Resolve(ctx, sessionID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected session gone, got %v", err)
	}
}

// seedExpiredSession logs in, then rewinds the stored access token
// expiry so the next resolve must run the refresh grant.
func seedExpiredSession(t *testing.T, ctx context.Context, service ports.SessionService, cache ports.Cache) string {
	t.Helper()

	sessionID := login(t, service, cache)

	svc, ok := service.(*Service)
	if !ok {
		t.Fatalf("unexpected service type %T", service)
	}
	data, err := svc.load(ctx, sessionID)
	if err != nil {
		t.Fatalf("failed to load seeded session: %v", err)
	}
	data.AccessTokenExpiresAt = time.Now().Add(-time.Minute).Unix()
	if err := svc.store(ctx, sessionID, data); err != nil {
		t.Fatalf("failed to store seeded session: %v", err)
	}
	return sessionID
}

// login runs the full BeginLogin/CompleteLogin flow and returns the
// session ID.
func login(t *testing.T, service ports.SessionService, cache ports.Cache) string {
	t.Helper()
	ctx := context.Background()

	authURL, err := service.BeginLogin(ctx)
	if err != nil {
		t.Fatalf("begin login failed: %v", err)
	}
	state := extractQueryParam(t, authURL, "state")

	sessionID, err := service.CompleteLogin(ctx, "the-code", state)
	if err != nil {
		t.Fatalf("complete login failed: %v", err)
	}
	return sessionID
}

func extractQueryParam(t *testing.T, rawURL, name string) string {
	t.Helper()
	idx := strings.Index(rawURL, name+"=")
	if idx < 0 {
		t.Fatalf("parameter %s not found in %s", name, rawURL)
	}
	value := rawURL[idx+len(name)+1:]
	if amp := strings.Index(value, "&"); amp >= 0 {
		value = value[:amp]
	}
	return value
}
