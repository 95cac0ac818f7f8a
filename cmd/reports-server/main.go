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

	"github.com/bionicpro/reports-platform/internal/adapter/authclient"
	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/handlers"
	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/middleware"
	"github.com/bionicpro/reports-platform/internal/adapter/queue"
	chstorage "github.com/bionicpro/reports-platform/internal/adapter/storage/clickhouse"
	s3storage "github.com/bionicpro/reports-platform/internal/adapter/storage/s3"
	"github.com/bionicpro/reports-platform/internal/infrastructure/httpx"
	"github.com/bionicpro/reports-platform/internal/observability/telemetry"
	"github.com/bionicpro/reports-platform/internal/service/health"
	"github.com/bionicpro/reports-platform/internal/service/report"
	"github.com/bionicpro/reports-platform/pkg/config"
)

const (
	serviceName    = "bionicpro-reports"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting reports server",
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

	// 4. Initialize ClickHouse Datamart Repository
	datamart, err := chstorage.NewDatamartRepository(chstorage.Config{
		Addr:     cfg.ClickHouse.Addr,
		Database: cfg.ClickHouse.Database,
		Username: cfg.ClickHouse.Username,
		Password: cfg.ClickHouse.Password,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer datamart.Close()

	// 5. Initialize S3 Report Store
	reportStore, err := s3storage.NewReportStore(context.Background(), s3storage.Config{
		EndpointURL:  cfg.S3.EndpointURL,
		Region:       cfg.S3.Region,
		AccessKey:    cfg.S3.AccessKey,
		SecretKey:    cfg.S3.SecretKey,
		Bucket:       cfg.S3.Bucket,
		UsePathStyle: cfg.S3.UsePathStyle,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize report store", zap.Error(err))
	}

	// 6. Initialize Message Queue
	var queueURL string
	switch cfg.Queue.Driver {
	case "rabbitmq":
		queueURL = cfg.RabbitMQ.URL
	default:
		queueURL = cfg.NATS.URL
	}
	messageQueue, err := queue.New(cfg.Queue.Driver, queueURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// 7. Initialize auth service client behind the circuit breaker
	breakerClient := httpx.New(httpx.Settings{
		Name:             "auth-service",
		Timeout:          10 * time.Second,
		MaxRequests:      uint32(cfg.CircuitBreaker.MaxRequests),
		Interval:         cfg.CircuitBreaker.Interval,
		OpenTimeout:      cfg.CircuitBreaker.Timeout,
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		MinRequests:      5,
	}, logger)
	authClient := authclient.New(cfg.AuthService.URL, breakerClient, logger)

	// 8. Initialize Report Service
	reportService := report.NewService(datamart, reportStore, messageQueue, cfg.CDN.BaseURL, logger)

	// 9. Initialize Health Service
	healthService := health.NewService(serviceVersion, logger)
	healthService.RegisterPing("clickhouse", datamart.Ping)
	healthService.RegisterPing("s3", reportStore.Ping)

	// 10. Initialize Fiber HTTP Server
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

	reportsHandler := handlers.NewReportsHandler(reportService, logger)
	reportsHandler.RegisterRoutes(app, middleware.SessionRequired(authClient))

	// 11. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 12. Graceful Shutdown
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
