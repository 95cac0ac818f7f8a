package domain

// DatamartRow is one row of the reports datamart, as maintained by the
// external ETL pipeline. Usage, battery, movements and errors are
// independently nullable: a day may have partial telemetry.
type DatamartRow struct {
	UserID       string
	ReportDate   string
	UsageHours   *float64
	BatteryLevel *float64
	Movements    *int64
	Errors       *int64
	LastSyncDate string
}

// Summary aggregates a datamart result set with the fixed contract the
// ETL consumers expect: sums skip nulls, the battery average divides by
// the total day count rather than the non-null count.
type Summary struct {
	TotalDays       int     `json:"total_days"`
	TotalUsageHours float64 `json:"total_usage_hours"`
	AvgBatteryLevel float64 `json:"avg_battery_level"`
	TotalMovements  int64   `json:"total_movements"`
	TotalErrors     int64   `json:"total_errors"`
}

// DailyRecord is one day of the generated report.
type DailyRecord struct {
	Date         string   `json:"date"`
	UsageHours   *float64 `json:"usage_hours"`
	BatteryLevel *float64 `json:"battery_level"`
	Movements    *int64   `json:"movements"`
	Errors       *int64   `json:"errors"`
}

// Period is the inclusive date range a report covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReportData is the full generated report body, persisted to object
// storage and returned inline.
type ReportData struct {
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	GeneratedAt string        `json:"generated_at"`
	Period      Period        `json:"period"`
	Summary     Summary       `json:"summary"`
	DailyData   []DailyRecord `json:"daily_data"`
}

// ReportResponse is the reports endpoint answer. Message, ReportURL and
// Data are independent; any subset may be present.
type ReportResponse struct {
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	ReportDate string      `json:"report_date"`
	ReportURL  string      `json:"report_url,omitempty"`
	Data       *ReportData `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Aggregate computes the report summary from datamart rows.
func Aggregate(rows []DatamartRow) Summary {
	s := Summary{TotalDays: len(rows)}
	var batterySum float64
	for _, r := range rows {
		if r.UsageHours != nil {
			s.TotalUsageHours += *r.UsageHours
		}
		if r.BatteryLevel != nil {
			batterySum += *r.BatteryLevel
		}
		if r.Movements != nil {
			s.TotalMovements += *r.Movements
		}
		if r.Errors != nil {
			s.TotalErrors += *r.Errors
		}
	}
	if len(rows) > 0 {
		s.AvgBatteryLevel = batterySum / float64(len(rows))
	}
	return s
}
