package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session lifecycle
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bionicpro_sessions_created_total",
		Help: "Total sessions created after a successful login",
	})

	SessionRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bionicpro_session_rotations_total",
		Help: "Total session ID rotations",
	})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bionicpro_token_refreshes_total",
		Help: "Total access token refresh attempts",
	}, []string{"status"})

	// Report generation
	ReportRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bionicpro_reports_requests_total",
		Help: "Total report requests by outcome",
	}, []string{"outcome"})

	ReportGenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bionicpro_report_generation_seconds",
		Help:    "Latency of report generation including the datamart query",
		Buckets: prometheus.DefBuckets,
	})

	KeycloakRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bionicpro_keycloak_request_seconds",
		Help:    "Latency of Keycloak token endpoint calls",
		Buckets: prometheus.DefBuckets,
	})
)
