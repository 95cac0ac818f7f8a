package ports

import (
	"context"

	"github.com/bionicpro/reports-platform/internal/domain"
)

// DatamartRepository reads the ETL-maintained reports datamart.
type DatamartRepository interface {
	DailyUsage(ctx context.Context, username, startDate, endDate string) ([]domain.DatamartRow, error)
	Ping(ctx context.Context) error
	Close() error
}

// ReportStore persists generated report objects and answers whether a
// report for a given key already exists.
type ReportStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, body []byte) error
	Ping(ctx context.Context) error
}
