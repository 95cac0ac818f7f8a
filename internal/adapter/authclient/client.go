package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/domain"
	"github.com/bionicpro/reports-platform/internal/infrastructure/httpx"
)

// ErrUnauthorized means the auth service rejected the session cookie.
var ErrUnauthorized = errors.New("session not authorized")

// Client resolves caller identities by forwarding the session cookie
// to the auth service's validate endpoint.
type Client struct {
	baseURL string
	http    *httpx.Client
	log     *zap.Logger
}

type validateResponse struct {
	AccessToken string `json:"access_token"`
}

func New(baseURL string, httpClient *httpx.Client, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		log:     log,
	}
}

// ResolveIdentity forwards the raw Cookie header to the auth service
// and decodes the caller's identity from the returned access token.
// The token's signature was already verified upstream by Keycloak and
// the auth service, so the claims are parsed without verification.
func (c *Client) ResolveIdentity(ctx context.Context, cookieHeader string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create validate request: %w", err)
	}
	req.Header.Set("Cookie", cookieHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service validate failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth service answered %d", resp.StatusCode)
	}

	var payload validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode validate response: %w", err)
	}

	identity, err := identityFromToken(payload.AccessToken)
	if err != nil {
		return nil, err
	}

	c.log.Debug("identity resolved",
		zap.String("user_id", identity.UserID),
		zap.String("username", identity.Username),
	)
	return identity, nil
}

func identityFromToken(token string) (*domain.Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}

	id := &domain.Identity{}
	if sub, ok := claims["sub"].(string); ok {
		id.UserID = sub
	}
	if username, ok := claims["preferred_username"].(string); ok {
		id.Username = username
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	if realm, ok := claims["realm_access"].(map[string]interface{}); ok {
		if roles, ok := realm["roles"].([]interface{}); ok {
			for _, r := range roles {
				if role, ok := r.(string); ok {
					id.Roles = append(id.Roles, role)
				}
			}
		}
	}

	if id.UserID == "" {
		return nil, fmt.Errorf("access token has no subject")
	}
	return id, nil
}
