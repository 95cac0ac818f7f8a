package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/cache"
	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/handlers"
	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/middleware"
	"github.com/bionicpro/reports-platform/internal/adapter/keycloak"
	"github.com/bionicpro/reports-platform/internal/adapter/vault"
	"github.com/bionicpro/reports-platform/internal/infrastructure/httpx"
	"github.com/bionicpro/reports-platform/internal/observability/telemetry"
	"github.com/bionicpro/reports-platform/internal/service/health"
	"github.com/bionicpro/reports-platform/internal/service/session"
	"github.com/bionicpro/reports-platform/pkg/config"
)

const (
	serviceName    = "bionicpro-auth"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting auth server",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve secrets (Vault overrides config when enabled)
	encryptionKey := cfg.Session.EncryptionKey
	clientSecret := cfg.Keycloak.ClientSecret
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to connect to Vault", zap.Error(err))
		}
		if key, err := secrets.SessionEncryptionKey(); err == nil {
			encryptionKey = key
		} else {
			logger.Warn("Vault session key unavailable, using config", zap.Error(err))
		}
		if secret, err := secrets.KeycloakClientSecret(); err == nil {
			clientSecret = secret
		} else {
			logger.Warn("Vault client secret unavailable, using config", zap.Error(err))
		}
	}

	// 5. Initialize Redis session store, in-memory fallback for local runs
	sessionStore, err := cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory session store", zap.Error(err))
		sessionStore = cache.NewLocalCache(time.Minute, logger)
	}
	defer sessionStore.Close()

	// 6. Initialize Keycloak client behind the circuit breaker
	breakerClient := httpx.New(httpx.Settings{
		Name:             "keycloak",
		Timeout:          30 * time.Second,
		MaxRequests:      uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:         cfg.CircuitBreaker.Interval,
		OpenTimeout:      cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		MinRequests:      5,
	}, logger)

	idp := keycloak.New(keycloak.Config{
		BaseURL:       cfg.Keycloak.URL,
		PublicBaseURL: cfg.Keycloak.PublicURL,
		Realm:         cfg.Keycloak.Realm,
		ClientID:      cfg.Keycloak.ClientID,
		ClientSecret:  clientSecret,
		RedirectURL:   cfg.Keycloak.RedirectURL,
	}, breakerClient, logger)

	// 7. Initialize Session Service
	sealer, err := session.NewSealer(encryptionKey)
	if err != nil {
		logger.Fatal("Failed to build token sealer", zap.Error(err))
	}

	sessionService := session.NewService(sessionStore, idp, sealer, session.Config{
		CookieName:     cfg.Session.CookieName,
		TTL:            cfg.Session.TTL,
		AccessTokenTTL: cfg.Session.AccessTokenTTL,
		PKCEStateTTL:   cfg.Session.PKCEStateTTL,
	}, logger)

	// 8. Initialize Health Service
	healthService := health.NewService(serviceVersion, logger)
	healthService.RegisterPing("redis", func(ctx context.Context) error {
		return sessionStore.Ping()
	})

	// 9. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	if cfg.Prometheus.Enabled {
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
			handler(c.Context())
			return nil
		})
	}

	authHandler := handlers.NewAuthHandler(sessionService, cfg.HTTP.FrontendURL, cfg.Session.CookieSecure, logger)
	authHandler.RegisterRoutes(app)

	// 10. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}
