package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// ReportPayload is the reports endpoint answer. Message, ReportURL and
// Data are independent: a cache hit carries no Data, an empty period
// carries only Message, and a fresh generation carries all three.
type ReportPayload struct {
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	ReportDate string      `json:"report_date"`
	ReportURL  string      `json:"report_url,omitempty"`
	Data       *ReportData `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// ReportData is the inline report body.
type ReportData struct {
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	GeneratedAt string        `json:"generated_at"`
	Period      Period        `json:"period"`
	Summary     Summary       `json:"summary"`
	DailyData   []DailyRecord `json:"daily_data"`
}

// Period is the inclusive date range the report covers.
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary aggregates the covered period.
type Summary struct {
	TotalDays       int     `json:"total_days"`
	TotalUsageHours float64 `json:"total_usage_hours"`
	AvgBatteryLevel float64 `json:"avg_battery_level"`
	TotalMovements  int64   `json:"total_movements"`
	TotalErrors     int64   `json:"total_errors"`
}

// DailyRecord is one day of the report. The numeric fields are
// independently nullable; nil means the ETL had no value for that day.
type DailyRecord struct {
	Date         string   `json:"date"`
	UsageHours   *float64 `json:"usage_hours"`
	BatteryLevel *float64 `json:"battery_level"`
	Movements    *int64   `json:"movements"`
	Errors       *int64   `json:"errors"`
}

const genericFetchFailure = "Failed to fetch report"

// FetchReport retrieves the caller's report. An unauthenticated
// session resolves to Denied without touching the network. At most one
// fetch runs per client; a concurrent second call settles as a Failure
// without a request.
func (c *Client) FetchReport(ctx context.Context) ReportResult {
	if c.State() != StateAuthenticated {
		return Denied("not authenticated")
	}

	if !c.loading.CompareAndSwap(false, true) {
		return Failure("report fetch already in progress")
	}
	defer c.loading.Store(false)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/reports", nil)
	if err != nil {
		return failureFromError(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failureFromError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// The session check stays as it was; the next process start
		// re-resolves it
		return Denied("Session expired. Please login again.")
	case resp.StatusCode == http.StatusForbidden:
		return Denied("Access denied. You can only access your own reports.")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Failure("Failed to fetch report: " + statusText(resp))
	}

	var payload ReportPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return failureFromError(err)
	}
	return Success(&payload)
}

func failureFromError(err error) ReportResult {
	if err == nil || err.Error() == "" {
		return Failure(genericFetchFailure)
	}
	return Failure(err.Error())
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
