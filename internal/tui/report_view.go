package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bionicpro/reports-platform/pkg/client"
)

var (
	sectionStyle   = lipgloss.NewStyle().Bold(true)
	linkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7")).Underline(true)
	tableHeadStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8C8C8C"))
	errorRowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// renderReport renders every payload part that is present: the
// free-text message, the CDN link, and the summary plus daily table.
func renderReport(p *client.ReportPayload) string {
	if p == nil {
		return ""
	}

	var b strings.Builder

	if p.Message != "" {
		b.WriteString(p.Message + "\n\n")
	}
	if p.ReportURL != "" {
		b.WriteString("Download: " + linkStyle.Render(p.ReportURL) + "\n\n")
	}
	if p.Data != nil {
		b.WriteString(renderSummary(p.Data.Summary))
		b.WriteString(renderDailyTable(p.Data.DailyData))
	}

	return b.String()
}

func renderSummary(s client.Summary) string {
	total := fmt.Sprintf("%d", s.TotalErrors)
	if s.TotalErrors > 0 {
		total = errorRowStyle.Render(total)
	}

	return sectionStyle.Render("Summary") + "\n" +
		fmt.Sprintf("  Days covered:    %d\n", s.TotalDays) +
		fmt.Sprintf("  Usage hours:     %.1f\n", s.TotalUsageHours) +
		fmt.Sprintf("  Avg battery:     %.1f%%\n", s.AvgBatteryLevel) +
		fmt.Sprintf("  Movements:       %d\n", s.TotalMovements) +
		"  Errors:          " + total + "\n\n"
}

func renderDailyTable(days []client.DailyRecord) string {
	if len(days) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Daily data") + "\n")
	b.WriteString(tableHeadStyle.Render(fmt.Sprintf("  %-12s %8s %9s %11s %8s",
		"Date", "Hours", "Battery", "Movements", "Errors")) + "\n")

	for _, d := range days {
		row := fmt.Sprintf("  %-12s %8s %9s %11s %8s",
			d.Date,
			formatHours(d.UsageHours),
			formatBattery(d.BatteryLevel),
			formatMovements(d.Movements),
			formatErrors(d.Errors),
		)
		if d.Errors != nil && *d.Errors > 0 {
			row = errorRowStyle.Render(row)
		}
		b.WriteString(row + "\n")
	}

	return b.String()
}

func formatHours(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func formatBattery(v *float64) string {
	if v == nil {
		return "-%"
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func formatMovements(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// Missing error counts render as zero: an absent value must not read
// as an incident.
func formatErrors(v *int64) string {
	if v == nil {
		return "0"
	}
	return fmt.Sprintf("%d", *v)
}
