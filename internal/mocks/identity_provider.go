package mocks

import (
	"context"
	"fmt"

	"github.com/bionicpro/reports-platform/internal/adapter/keycloak"
)

// MockIdentityProvider is a mock of the Keycloak-facing client used by
// the session service.
type MockIdentityProvider struct {
	AuthorizationURLFunc func(state, codeChallenge string) string
	ExchangeCodeFunc     func(ctx context.Context, code, codeVerifier string) (*keycloak.TokenSet, error)
	RefreshFunc          func(ctx context.Context, refreshToken string) (*keycloak.TokenSet, error)
	LogoutFunc           func(ctx context.Context, refreshToken string) error

	ExchangeCalls int
	RefreshCalls  int
	LogoutCalls   int
}

func (m *MockIdentityProvider) AuthorizationURL(state, codeChallenge string) string {
	if m.AuthorizationURLFunc != nil {
		return m.AuthorizationURLFunc(state, codeChallenge)
	}
	return fmt.Sprintf("https://keycloak.example/auth?state=%s&code_challenge=%s", state, codeChallenge)
}

func (m *MockIdentityProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*keycloak.TokenSet, error) {
	m.ExchangeCalls++
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code, codeVerifier)
	}
	return &keycloak.TokenSet{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		ExpiresIn:    300,
	}, nil
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*keycloak.TokenSet, error) {
	m.RefreshCalls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &keycloak.TokenSet{
		AccessToken:  "refreshed-access",
		RefreshToken: "refreshed-refresh",
		ExpiresIn:    300,
	}, nil
}

func (m *MockIdentityProvider) Logout(ctx context.Context, refreshToken string) error {
	m.LogoutCalls++
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}
