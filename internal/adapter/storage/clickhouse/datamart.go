package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/bionicpro/reports-platform/internal/domain"
	"github.com/bionicpro/reports-platform/internal/ports"
)

// Config holds the ClickHouse connection parameters.
type Config struct {
	Addr     string
	Database string
	Username string
	Password string
}

// DatamartRepository reads the ETL-maintained reports datamart. The
// table is populated out of band; this repository never writes.
type DatamartRepository struct {
	conn driver.Conn
	log  *zap.Logger
}

func NewDatamartRepository(cfg Config, log *zap.Logger) (ports.DatamartRepository, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	log.Info("Successfully connected to ClickHouse",
		zap.String("addr", cfg.Addr),
		zap.String("database", cfg.Database),
	)

	return &DatamartRepository{
		conn: conn,
		log:  log,
	}, nil
}

const dailyUsageQuery = `
	SELECT user_id, report_date, total_usage_hours, avg_battery_level,
	       total_movements, error_count, last_sync_date
	FROM reports_datamart
	WHERE username = ? AND report_date BETWEEN ? AND ?
	ORDER BY report_date DESC`

func (r *DatamartRepository) DailyUsage(ctx context.Context, username, startDate, endDate string) ([]domain.DatamartRow, error) {
	rows, err := r.conn.Query(ctx, dailyUsageQuery, username, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("datamart query failed: %w", err)
	}
	defer rows.Close()

	var result []domain.DatamartRow
	for rows.Next() {
		var (
			row          domain.DatamartRow
			reportDate   time.Time
			lastSyncDate time.Time
		)
		if err := rows.Scan(
			&row.UserID,
			&reportDate,
			&row.UsageHours,
			&row.BatteryLevel,
			&row.Movements,
			&row.Errors,
			&lastSyncDate,
		); err != nil {
			return nil, fmt.Errorf("datamart row scan failed: %w", err)
		}
		row.ReportDate = reportDate.Format("2006-01-02")
		row.LastSyncDate = lastSyncDate.Format("2006-01-02")
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datamart rows failed: %w", err)
	}
	return result, nil
}

func (r *DatamartRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}

func (r *DatamartRepository) Close() error {
	return r.conn.Close()
}
