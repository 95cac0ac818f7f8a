package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/infrastructure/httpx"
	"github.com/bionicpro/reports-platform/internal/observability/telemetry"
)

// Config holds the realm and client credentials. BaseURL is the
// server-to-server address; PublicBaseURL is what the user's browser
// can reach and is only used to build the authorization redirect.
type Config struct {
	BaseURL       string
	PublicBaseURL string
	Realm         string
	ClientID      string
	ClientSecret  string
	RedirectURL   string
}

// Client talks to Keycloak's OIDC endpoints for one realm.
type Client struct {
	config Config
	http   *httpx.Client
	log    *zap.Logger
}

// TokenSet is the answer of the token endpoint.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

func New(cfg Config, httpClient *httpx.Client, log *zap.Logger) *Client {
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = cfg.BaseURL
	}

	log.Info("Keycloak client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.String("realm", cfg.Realm),
		zap.String("client_id", cfg.ClientID),
	)

	return &Client{
		config: cfg,
		http:   httpClient,
		log:    log,
	}
}

// AuthorizationURL builds the browser redirect target for the PKCE
// authorization code flow.
func (c *Client) AuthorizationURL(state, codeChallenge string) string {
	params := url.Values{
		"client_id":             {c.config.ClientID},
		"redirect_uri":          {c.config.RedirectURL},
		"response_type":         {"code"},
		"scope":                 {"openid profile email"},
		"state":                 {state},
		"code_challenge":        {codeChallenge},
		"code_challenge_method": {"S256"},
	}
	return c.endpoint(c.config.PublicBaseURL, "auth") + "?" + params.Encode()
}

// ExchangeCode trades an authorization code plus PKCE verifier for a
// token set.
func (c *Client) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.config.RedirectURL},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"code_verifier": {codeVerifier},
	}
	return c.tokenRequest(ctx, data)
}

// Refresh trades a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
	}
	return c.tokenRequest(ctx, data)
}

// Logout revokes the session upstream using the refresh token.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	data := url.Values{
		"refresh_token": {refreshToken},
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
	}

	resp, err := c.http.PostForm(ctx, c.endpoint(c.config.BaseURL, "logout"), data)
	if err != nil {
		return fmt.Errorf("keycloak logout request failed: %w", err)
	}
	defer httpx.DrainAndClose(resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("keycloak logout failed (status %d)", resp.StatusCode)
	}
	return nil
}

func (c *Client) tokenRequest(ctx context.Context, data url.Values) (*TokenSet, error) {
	start := time.Now()
	defer func() {
		telemetry.KeycloakRequestDuration.Observe(time.Since(start).Seconds())
	}()

	resp, err := c.http.PostForm(ctx, c.endpoint(c.config.BaseURL, "token"), data)
	if err != nil {
		return nil, fmt.Errorf("keycloak token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("keycloak token endpoint answered %d: %s", resp.StatusCode, string(body))
	}

	var tokens TokenSet
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("keycloak returned empty access token")
	}
	return &tokens, nil
}

func (c *Client) endpoint(base, name string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/%s", base, c.config.Realm, name)
}
