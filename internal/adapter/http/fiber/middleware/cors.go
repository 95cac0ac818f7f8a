package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/bionicpro/reports-platform/pkg/config"
)

// NewCORS creates a CORS middleware from application config
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	// Fiber rejects credentials with a wildcard origin, so a credentialed
	// setup without explicit origins pins the local frontend.
	allowedOrigins := "*"
	if cfg.Credentials {
		allowedOrigins = "http://localhost:3000"
	}
	if len(cfg.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.AllowedOrigins, ",")
	}

	allowedMethods := "GET,POST,PUT,PATCH,DELETE,OPTIONS"
	if len(cfg.AllowedMethods) > 0 {
		allowedMethods = strings.Join(cfg.AllowedMethods, ",")
	}

	allowedHeaders := "Origin,Content-Type,Accept,Authorization,X-Request-ID"
	if len(cfg.AllowedHeaders) > 0 {
		allowedHeaders = strings.Join(cfg.AllowedHeaders, ",")
	}

	maxAge := 86400 // 24 hours default
	if cfg.MaxAge > 0 {
		maxAge = cfg.MaxAge
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     allowedMethods,
		AllowHeaders:     allowedHeaders,
		AllowCredentials: cfg.Credentials,
		MaxAge:           maxAge,
	})
}

// DefaultCORS creates a CORS middleware with sensible defaults for
// development. Credentials stay on: the session cookie must survive
// cross-origin requests from the frontend.
func DefaultCORS() fiber.Handler {
	return NewCORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		MaxAge:         int((24 * time.Hour).Seconds()),
		Credentials:    true,
	})
}
