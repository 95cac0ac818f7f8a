package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/ports"
)

// AuthHandler serves the PKCE login flow and the session endpoints.
type AuthHandler struct {
	service      ports.SessionService
	frontendURL  string
	cookieSecure bool
	log          *zap.Logger
}

func NewAuthHandler(service ports.SessionService, frontendURL string, cookieSecure bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		frontendURL:  frontendURL,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

// RegisterRoutes registers the auth endpoints.
func (h *AuthHandler) RegisterRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Get("/login", h.Login)
	auth.Get("/callback", h.Callback)
	auth.Get("/session", h.Session)
	auth.Get("/validate", h.Validate)
	auth.Get("/logout", h.Logout)
}

// Login starts the PKCE flow and redirects the browser to Keycloak.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	authURL, err := h.service.BeginLogin(c.Context())
	if err != nil {
		h.log.Error("failed to start login flow", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start login"})
	}
	return c.Redirect(authURL, fiber.StatusFound)
}

// Callback completes the code exchange and sets the session cookie.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing code or state"})
	}

	sessionID, err := h.service.CompleteLogin(c.Context(), code, state)
	if err != nil {
		if errors.Is(err, ports.ErrInvalidState) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired state"})
		}
		h.log.Warn("login callback failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token exchange failed"})
	}

	h.setSessionCookie(c, sessionID)
	return c.Redirect(h.frontendURL, fiber.StatusFound)
}

// Session answers whether the caller holds a live session, rotating
// the session ID on every successful check.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sessionID := c.Cookies(h.service.CookieName())
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"authenticated": false})
	}

	newID, info, err := h.service.ResolveAndRotate(c.Context(), sessionID)
	if err != nil {
		h.clearSessionCookie(c)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"authenticated": false})
	}

	h.setSessionCookie(c, newID)
	return c.JSON(info)
}

// Validate is the internal endpoint for the reports API: it answers
// the decrypted access token without rotating the session.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	sessionID := c.Cookies(h.service.CookieName())
	if sessionID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	accessToken, err := h.service.Resolve(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	return c.JSON(fiber.Map{"access_token": accessToken})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sessionID := c.Cookies(h.service.CookieName())
	if sessionID != "" {
		if err := h.service.Logout(c.Context(), sessionID); err != nil {
			h.log.Warn("logout failed", zap.Error(err))
		}
	}

	h.clearSessionCookie(c)
	return c.Redirect(h.frontendURL, fiber.StatusFound)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, sessionID string) {
	c.Cookie(&fiber.Cookie{
		Name:     h.service.CookieName(),
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.service.TTL().Seconds()),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.service.CookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
