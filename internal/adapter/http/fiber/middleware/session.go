package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bionicpro/reports-platform/internal/adapter/authclient"
	"github.com/bionicpro/reports-platform/internal/domain"
)

// IdentityKey is the Locals key carrying the resolved caller identity.
const IdentityKey = "identity"

// IdentityResolver turns a raw Cookie header into a caller identity.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, cookieHeader string) (*domain.Identity, error)
}

// SessionRequired resolves the session cookie through the auth service
// and stores the identity in Locals. Requests without a valid session
// get a 401.
func SessionRequired(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cookieHeader := c.Get("Cookie")
		if cookieHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}

		identity, err := resolver.ResolveIdentity(c.Context(), cookieHeader)
		if err != nil {
			if errors.Is(err, authclient.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Session validation failed"})
		}

		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// IdentityFromCtx reads the identity stored by SessionRequired.
func IdentityFromCtx(c *fiber.Ctx) (*domain.Identity, bool) {
	identity, ok := c.Locals(IdentityKey).(*domain.Identity)
	return identity, ok
}
