package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/keycloak"
	"github.com/bionicpro/reports-platform/internal/domain"
	"github.com/bionicpro/reports-platform/internal/observability/telemetry"
	"github.com/bionicpro/reports-platform/internal/ports"
)

const (
	sessionKeyPrefix = "session:"
	pkceKeyPrefix    = "pkce:"
)

// identityProvider is the slice of the Keycloak client the session
// service needs.
type identityProvider interface {
	AuthorizationURL(state, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*keycloak.TokenSet, error)
	Refresh(ctx context.Context, refreshToken string) (*keycloak.TokenSet, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Config holds session lifecycle parameters.
type Config struct {
	CookieName     string
	TTL            time.Duration
	AccessTokenTTL time.Duration
	PKCEStateTTL   time.Duration
}

// Service owns the PKCE login flow and the Redis-held sessions. The
// browser never sees a token; it holds only the opaque session ID.
type Service struct {
	cache  ports.Cache
	idp    identityProvider
	sealer *Sealer
	config Config
	log    *zap.Logger
}

func NewService(cache ports.Cache, idp identityProvider, sealer *Sealer, cfg Config, log *zap.Logger) ports.SessionService {
	if cfg.CookieName == "" {
		cfg.CookieName = "bionicpro_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 5 * time.Minute
	}
	if cfg.PKCEStateTTL <= 0 {
		cfg.PKCEStateTTL = 5 * time.Minute
	}

	return &Service{
		cache:  cache,
		idp:    idp,
		sealer: sealer,
		config: cfg,
		log:    log,
	}
}

func (s *Service) CookieName() string { return s.config.CookieName }
func (s *Service) TTL() time.Duration { return s.config.TTL }

// BeginLogin generates the PKCE verifier and state, stores the
// verifier for the callback, and answers the authorization URL.
func (s *Service) BeginLogin(ctx context.Context) (string, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return "", err
	}
	state, err := GenerateState()
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, pkceKeyPrefix+state, verifier, s.config.PKCEStateTTL); err != nil {
		return "", fmt.Errorf("failed to store pkce state: %w", err)
	}

	s.log.Debug("login flow started", zap.String("state", state))
	return s.idp.AuthorizationURL(state, Challenge(verifier)), nil
}

// CompleteLogin consumes the PKCE state, exchanges the code for tokens
// and creates the session.
func (s *Service) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	verifier, err := s.cache.Get(ctx, pkceKeyPrefix+state)
	if err != nil || verifier == "" {
		return "", ports.ErrInvalidState
	}
	// State is single-use regardless of the exchange outcome
	if err := s.cache.Delete(ctx, pkceKeyPrefix+state); err != nil {
		s.log.Warn("failed to delete pkce state", zap.Error(err))
	}

	tokens, err := s.idp.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	sessionID, err := s.createSession(ctx, tokens)
	if err != nil {
		return "", err
	}

	telemetry.SessionsCreated.Inc()
	s.log.Info("session created")
	return sessionID, nil
}

// Resolve returns the decrypted access token for a session, refreshing
// it first when expired. Refresh failure deletes the session.
func (s *Service) Resolve(ctx context.Context, sessionID string) (string, error) {
	data, err := s.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	data, err = s.refreshIfExpired(ctx, sessionID, data)
	if err != nil {
		return "", err
	}

	return s.sealer.Open(data.AccessToken)
}

// ResolveAndRotate validates the session like Resolve, then moves it
// to a fresh ID. The old cookie stops working immediately.
func (s *Service) ResolveAndRotate(ctx context.Context, sessionID string) (string, *domain.SessionInfo, error) {
	data, err := s.load(ctx, sessionID)
	if err != nil {
		return "", nil, err
	}

	data, err = s.refreshIfExpired(ctx, sessionID, data)
	if err != nil {
		return "", nil, err
	}

	newID, err := GenerateSessionID()
	if err != nil {
		return "", nil, err
	}

	if err := s.store(ctx, newID, data); err != nil {
		return "", nil, err
	}
	if err := s.cache.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
		s.log.Warn("failed to delete rotated session", zap.Error(err))
	}

	telemetry.SessionRotations.Inc()

	validUntil := time.Unix(data.CreatedAt, 0).Add(s.config.TTL).UTC().Format(time.RFC3339)
	return newID, &domain.SessionInfo{
		Authenticated:     true,
		SessionValidUntil: validUntil,
	}, nil
}

// Logout deletes the session and best-effort revokes it at the
// identity provider.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	data, err := s.load(ctx, sessionID)
	if err == nil {
		if refresh, openErr := s.sealer.Open(data.RefreshToken); openErr == nil {
			if logoutErr := s.idp.Logout(ctx, refresh); logoutErr != nil {
				s.log.Warn("upstream logout failed", zap.Error(logoutErr))
			}
		}
	}

	if err := s.cache.Delete(ctx, sessionKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	s.log.Info("session deleted")
	return nil
}

func (s *Service) createSession(ctx context.Context, tokens *keycloak.TokenSet) (string, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return "", err
	}

	sealedAccess, err := s.sealer.Seal(tokens.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to seal access token: %w", err)
	}
	sealedRefresh, err := s.sealer.Seal(tokens.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to seal refresh token: %w", err)
	}

	now := time.Now()
	expiresIn := time.Duration(tokens.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = s.config.AccessTokenTTL
	}

	data := &domain.SessionData{
		AccessToken:          sealedAccess,
		RefreshToken:         sealedRefresh,
		AccessTokenExpiresAt: now.Add(expiresIn).Unix(),
		CreatedAt:            now.Unix(),
	}

	if err := s.store(ctx, sessionID, data); err != nil {
		return "", err
	}
	return sessionID, nil
}

// refreshIfExpired runs the refresh grant when the access token is
// past its expiry, storing the new tokens under the same session ID.
// A rejected refresh deletes the session.
func (s *Service) refreshIfExpired(ctx context.Context, sessionID string, data *domain.SessionData) (*domain.SessionData, error) {
	if time.Now().Unix() < data.AccessTokenExpiresAt {
		return data, nil
	}

	refresh, err := s.sealer.Open(data.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to open refresh token: %w", err)
	}

	tokens, err := s.idp.Refresh(ctx, refresh)
	if err != nil {
		telemetry.TokenRefreshes.WithLabelValues("failure").Inc()
		s.log.Info("token refresh rejected, deleting session", zap.Error(err))
		if delErr := s.cache.Delete(ctx, sessionKeyPrefix+sessionID); delErr != nil {
			s.log.Warn("failed to delete expired session", zap.Error(delErr))
		}
		return nil, ports.ErrSessionExpired
	}
	telemetry.TokenRefreshes.WithLabelValues("success").Inc()

	sealedAccess, err := s.sealer.Seal(tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to seal access token: %w", err)
	}
	refreshToken := tokens.RefreshToken
	sealedRefresh := data.RefreshToken
	if refreshToken != "" {
		sealedRefresh, err = s.sealer.Seal(refreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to seal refresh token: %w", err)
		}
	}

	expiresIn := time.Duration(tokens.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = s.config.AccessTokenTTL
	}

	updated := &domain.SessionData{
		AccessToken:          sealedAccess,
		RefreshToken:         sealedRefresh,
		AccessTokenExpiresAt: time.Now().Add(expiresIn).Unix(),
		CreatedAt:            data.CreatedAt,
	}

	if err := s.store(ctx, sessionID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) load(ctx context.Context, sessionID string) (*domain.SessionData, error) {
	if sessionID == "" {
		return nil, ports.ErrNoSession
	}

	raw, err := s.cache.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil || raw == "" {
		return nil, ports.ErrNoSession
	}

	var data domain.SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &data, nil
}

func (s *Service) store(ctx context.Context, sessionID string, data *domain.SessionData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+sessionID, string(raw), s.config.TTL); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}
