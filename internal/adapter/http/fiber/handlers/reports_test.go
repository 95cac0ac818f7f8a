package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/adapter/authclient"
	"github.com/bionicpro/reports-platform/internal/adapter/http/fiber/middleware"
	"github.com/bionicpro/reports-platform/internal/domain"
)

type stubReportService struct {
	UserReportFunc func(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error)
}

func (s *stubReportService) UserReport(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error) {
	if s.UserReportFunc != nil {
		return s.UserReportFunc(ctx, id, startDate, endDate)
	}
	return &domain.ReportResponse{
		UserID:     id.UserID,
		Username:   id.Username,
		ReportDate: endDate,
		Message:    "Report generated successfully",
	}, nil
}

type stubResolver struct {
	identity *domain.Identity
	err      error
}

func (s *stubResolver) ResolveIdentity(ctx context.Context, cookieHeader string) (*domain.Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newReportsApp(service *stubReportService, resolver *stubResolver) *fiber.App {
	app := fiber.New()
	handler := NewReportsHandler(service, newTestLogger())
	handler.RegisterRoutes(app, middleware.SessionRequired(resolver))
	return app
}

func caller() *domain.Identity {
	return &domain.Identity{
		UserID:   "user-1",
		Username: "alice",
		Roles:    []string{"prothetic_user"},
	}
}

func decodeError(t *testing.T, body io.Reader) string {
	t.Helper()
	var payload map[string]string
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return payload["error"]
}

func TestGetReport_OwnReport(t *testing.T) {
	// Arrange
	app := newReportsApp(&stubReportService{}, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/", nil)
	req.Header.Set("Cookie", "bionicpro_session=abc")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var report domain.ReportResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if report.UserID != "user-1" || report.Username != "alice" {
		t.Errorf("unexpected report identity: %+v", report)
	}
}

func TestGetReport_NoCookie(t *testing.T) {
	// Arrange
	app := newReportsApp(&stubReportService{}, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/", nil)

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Not authenticated" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestGetReport_InvalidSession(t *testing.T) {
	// Arrange
	app := newReportsApp(&stubReportService{}, &stubResolver{err: authclient.ErrUnauthorized})

	req := httptest.NewRequest("GET", "/reports/", nil)
	req.Header.Set("Cookie", "bionicpro_session=expired")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGetReportByUser_CrossUserForbidden(t *testing.T) {
	// Arrange
	var serviceCalls int
	service := &stubReportService{
		UserReportFunc: func(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error) {
			serviceCalls++
			return &domain.ReportResponse{}, nil
		},
	}
	app := newReportsApp(service, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/user-2", nil)
	req.Header.Set("Cookie", "bionicpro_session=abc")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Access denied. You can only access your own reports." {
		t.Errorf("unexpected error message: %q", msg)
	}
	if serviceCalls != 0 {
		t.Errorf("expected report service untouched, got %d calls", serviceCalls)
	}
}

func TestGetReportByUser_OwnID(t *testing.T) {
	// Arrange
	app := newReportsApp(&stubReportService{}, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/user-1", nil)
	req.Header.Set("Cookie", "bionicpro_session=abc")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestGetReport_ServiceError(t *testing.T) {
	// Arrange
	service := &stubReportService{
		UserReportFunc: func(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error) {
			return nil, errors.New("query datamart: connection refused")
		},
	}
	app := newReportsApp(service, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/", nil)
	req.Header.Set("Cookie", "bionicpro_session=abc")

	// Act
	resp, err := app.Test(req)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp.Body); msg != "Failed to generate report: query datamart: connection refused" {
		t.Errorf("unexpected error message: %q", msg)
	}
}

func TestGetReport_ForwardsPeriod(t *testing.T) {
	// Arrange
	var gotStart, gotEnd string
	service := &stubReportService{
		UserReportFunc: func(ctx context.Context, id domain.Identity, startDate, endDate string) (*domain.ReportResponse, error) {
			gotStart, gotEnd = startDate, endDate
			return &domain.ReportResponse{}, nil
		},
	}
	app := newReportsApp(service, &stubResolver{identity: caller()})

	req := httptest.NewRequest("GET", "/reports/?start_date=2026-07-01&end_date=2026-08-01", nil)
	req.Header.Set("Cookie", "bionicpro_session=abc")

	// Act
	if _, err := app.Test(req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Assert
	if gotStart != "2026-07-01" || gotEnd != "2026-08-01" {
		t.Errorf("unexpected period: %s..%s", gotStart, gotEnd)
	}
}
