package mocks

import (
	"context"

	"github.com/bionicpro/reports-platform/internal/domain"
)

// MockDatamart is a mock implementation of DatamartRepository
type MockDatamart struct {
	DailyUsageFunc func(ctx context.Context, username, startDate, endDate string) ([]domain.DatamartRow, error)
	PingFunc       func(ctx context.Context) error
	Calls          int
}

func (m *MockDatamart) DailyUsage(ctx context.Context, username, startDate, endDate string) ([]domain.DatamartRow, error) {
	m.Calls++
	if m.DailyUsageFunc != nil {
		return m.DailyUsageFunc(ctx, username, startDate, endDate)
	}
	return nil, nil
}

func (m *MockDatamart) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockDatamart) Close() error {
	return nil
}

// MockReportStore is a mock implementation of ReportStore
type MockReportStore struct {
	ExistsFunc func(ctx context.Context, key string) (bool, error)
	PutFunc    func(ctx context.Context, key string, body []byte) error
	PingFunc   func(ctx context.Context) error
	Puts       map[string][]byte
}

func (m *MockReportStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, key)
	}
	return false, nil
}

func (m *MockReportStore) Put(ctx context.Context, key string, body []byte) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, body)
	}
	if m.Puts == nil {
		m.Puts = make(map[string][]byte)
	}
	m.Puts[key] = body
	return nil
}

func (m *MockReportStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
