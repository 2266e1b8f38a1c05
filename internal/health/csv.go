package health

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// DeviceCSVColumns is the fixed default column order for device rows.
// Every column is always present; unknown values serialize as empty
// strings.
var DeviceCSVColumns = []string{
	"device_id",
	"hostname",
	"os",
	"device_type",
	"status",
	"uptime_percentage",
	"overall_score",
	"performance_score",
	"disk_score",
	"memory_score",
	"network_score",
	"services_score",
	"security_score",
	"last_seen",
	"last_health_check",
}

// DeviceReportCSV renders a device report as a single-row CSV document
// with a header line. A nil or empty columns slice selects the full
// default column set; an unrecognized column name yields an empty
// field, never an error.
func DeviceReportCSV(report *models.DeviceReport, columns []string) (string, error) {
	if len(columns) == 0 {
		columns = DeviceCSVColumns
	}
	return writeCSV(columns, [][]string{deviceCSVRow(report, columns)})
}

// OrganizationReportCSV renders an organization report with one row per
// device.
func OrganizationReportCSV(report *models.OrganizationReport, columns []string) (string, error) {
	if len(columns) == 0 {
		columns = DeviceCSVColumns
	}
	rows := make([][]string, 0, len(report.Devices))
	for i := range report.Devices {
		rows = append(rows, deviceCSVRow(&report.Devices[i], columns))
	}
	return writeCSV(columns, rows)
}

func deviceCSVRow(report *models.DeviceReport, columns []string) []string {
	h := report.Health
	fields := map[string]string{
		"device_id":         report.Device.ID,
		"hostname":          report.Device.Hostname,
		"os":                report.Device.OS,
		"device_type":       string(report.Device.DeviceType),
		"status":            string(h.Status),
		"uptime_percentage": strconv.Itoa(h.UptimePercentage),
		"overall_score":     strconv.Itoa(h.HealthScore.Overall),
		"performance_score": strconv.Itoa(h.HealthScore.Performance),
		"disk_score":        strconv.Itoa(h.HealthScore.Disk),
		"memory_score":      strconv.Itoa(h.HealthScore.Memory),
		"network_score":     strconv.Itoa(h.HealthScore.Network),
		"services_score":    strconv.Itoa(h.HealthScore.Services),
		"security_score":    strconv.Itoa(h.HealthScore.Security),
		"last_seen":         formatTime(h.LastSeen),
		"last_health_check": formatTime(h.LastHealthCheck),
	}

	row := make([]string, len(columns))
	for i, col := range columns {
		row[i] = fields[col]
	}
	return row
}

func writeCSV(header []string, rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
