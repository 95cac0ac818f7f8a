package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/queue"
	"github.com/bionicpro/reports-platform/internal/domain"
	"github.com/bionicpro/reports-platform/internal/observability/telemetry"
	"github.com/bionicpro/reports-platform/internal/ports"
)

const dateLayout = "2006-01-02"

// Service generates usage reports from the datamart, caching the
// rendered JSON in object storage behind the CDN.
type Service struct {
	datamart   ports.DatamartRepository
	store      ports.ReportStore
	mq         queue.MessageQueue
	cdnBaseURL string
	log        *zap.Logger
}

// generatedEvent is published after each fresh report generation.
type generatedEvent struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	ReportDate string `json:"report_date"`
	Key        string `json:"key"`
}

func NewService(datamart ports.DatamartRepository, store ports.ReportStore, mq queue.MessageQueue, cdnBaseURL string, log *zap.Logger) ports.ReportService {
	return &Service{
		datamart:   datamart,
		store:      store,
		mq:         mq,
		cdnBaseURL: cdnBaseURL,
		log:        log,
	}
}

// UserReport answers the report for the identity's own data. A report
// already present in the store short-circuits to its CDN URL; otherwise
// the datamart is queried and the result persisted best-effort.
func (s *Service) UserReport(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error) {
	start := time.Now()
	defer func() {
		telemetry.ReportGenerationDuration.Observe(time.Since(start).Seconds())
	}()

	if endDate == "" {
		endDate = time.Now().Format(dateLayout)
	}
	if startDate == "" {
		startDate = time.Now().AddDate(0, 0, -30).Format(dateLayout)
	}

	key := fmt.Sprintf("reports/%s/%s/report.json", id.UserID, endDate)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		s.log.Warn("report store lookup failed, regenerating",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	if exists {
		telemetry.ReportRequests.WithLabelValues("cache_hit").Inc()
		s.log.Info("report served from cache",
			zap.String("user_id", id.UserID),
			zap.String("key", key),
		)
		return &domain.ReportResponse{
			UserID:     id.UserID,
			Username:   id.Username,
			ReportDate: endDate,
			ReportURL:  s.cdnURL(key),
			Message:    "Report retrieved from cache",
		}, nil
	}

	rows, err := s.datamart.DailyUsage(ctx, id.Username, startDate, endDate)
	if err != nil {
		telemetry.ReportRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("query datamart: %w", err)
	}

	if len(rows) == 0 {
		telemetry.ReportRequests.WithLabelValues("empty").Inc()
		return &domain.ReportResponse{
			UserID:     id.UserID,
			Username:   id.Username,
			ReportDate: endDate,
			Message:    "No data available for the requested period. Data may not have been processed yet by ETL.",
		}, nil
	}

	data := s.buildReport(id, startDate, endDate, rows)

	body, err := json.Marshal(data)
	if err != nil {
		telemetry.ReportRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	// Cache miss on the next request is the only cost of a failed put
	if err := s.store.Put(ctx, key, body); err != nil {
		s.log.Warn("failed to persist report",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	s.publishGenerated(id.UserID, endDate, key)

	telemetry.ReportRequests.WithLabelValues("generated").Inc()
	s.log.Info("report generated",
		zap.String("user_id", id.UserID),
		zap.Int("days", len(rows)),
	)

	return &domain.ReportResponse{
		UserID:     id.UserID,
		Username:   id.Username,
		ReportDate: endDate,
		ReportURL:  s.cdnURL(key),
		Data:       data,
		Message:    "Report generated successfully",
	}, nil
}

func (s *Service) buildReport(id domain.Identity, startDate, endDate string, rows []domain.DatamartRow) *domain.ReportData {
	daily := make([]domain.DailyRecord, 0, len(rows))
	for _, r := range rows {
		daily = append(daily, domain.DailyRecord{
			Date:         r.ReportDate,
			UsageHours:   r.UsageHours,
			BatteryLevel: r.BatteryLevel,
			Movements:    r.Movements,
			Errors:       r.Errors,
		})
	}

	return &domain.ReportData{
		UserID:      id.UserID,
		Username:    id.Username,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Period:      domain.Period{Start: startDate, End: endDate},
		Summary:     domain.Aggregate(rows),
		DailyData:   daily,
	}
}

func (s *Service) publishGenerated(userID, reportDate, key string) {
	if s.mq == nil {
		return
	}

	payload, err := json.Marshal(generatedEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		ReportDate: reportDate,
		Key:        key,
	})
	if err != nil {
		return
	}

	if err := s.mq.Publish(queue.SubjectReportGenerated, payload); err != nil {
		s.log.Warn("failed to publish report event", zap.Error(err))
	}
}

func (s *Service) cdnURL(key string) string {
	return s.cdnBaseURL + "/" + key
}
