package health

import (
	"context"
	"time"

	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// Default history bounds for reports.
const (
	DefaultReportMetricsWindow   = 30 * 24 * time.Hour
	DefaultReportMetricsLimit    = 100
	DefaultReportHeartbeatWindow = 7 * 24 * time.Hour
	DefaultReportHeartbeatLimit  = 50
)

// ReportBounds caps the history windows embedded in reports.
type ReportBounds struct {
	MetricsWindow   time.Duration
	MetricsLimit    int
	HeartbeatWindow time.Duration
	HeartbeatLimit  int
}

// DefaultReportBounds returns the standard history caps.
func DefaultReportBounds() ReportBounds {
	return ReportBounds{
		MetricsWindow:   DefaultReportMetricsWindow,
		MetricsLimit:    DefaultReportMetricsLimit,
		HeartbeatWindow: DefaultReportHeartbeatWindow,
		HeartbeatLimit:  DefaultReportHeartbeatLimit,
	}
}

func (b ReportBounds) normalized() ReportBounds {
	def := DefaultReportBounds()
	if b.MetricsWindow <= 0 {
		b.MetricsWindow = def.MetricsWindow
	}
	if b.MetricsLimit <= 0 {
		b.MetricsLimit = def.MetricsLimit
	}
	if b.HeartbeatWindow <= 0 {
		b.HeartbeatWindow = def.HeartbeatWindow
	}
	if b.HeartbeatLimit <= 0 {
		b.HeartbeatLimit = def.HeartbeatLimit
	}
	return b
}

// BuildDeviceReport combines a device's resolved health with bounded
// recent history.
func (r *Resolver) BuildDeviceReport(ctx context.Context, deviceID string, bounds ReportBounds) (*models.DeviceReport, error) {
	bounds = bounds.normalized()

	device, err := r.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}

	state, err := r.Resolve(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	metrics, err := r.metrics.RecentMetrics(ctx, deviceID, telemetry.MetricFilter{
		Since: now.Add(-bounds.MetricsWindow),
		Limit: bounds.MetricsLimit,
	})
	if err != nil {
		return nil, err
	}
	beats, err := r.metrics.RecentHeartbeats(ctx, deviceID,
		now.Add(-bounds.HeartbeatWindow), bounds.HeartbeatLimit)
	if err != nil {
		return nil, err
	}

	if metrics == nil {
		metrics = []models.HealthScan{}
	}
	if beats == nil {
		beats = []models.Heartbeat{}
	}

	return &models.DeviceReport{
		GeneratedAt:      now,
		Device:           *device,
		Health:           *state,
		RecentMetrics:    metrics,
		RecentHeartbeats: beats,
	}, nil
}

// BuildOrganizationReport assembles the fleet summary plus a report per
// active-license device.
func (r *Resolver) BuildOrganizationReport(ctx context.Context, orgID string, bounds ReportBounds) (*models.OrganizationReport, error) {
	summary, err := r.Summarize(ctx, orgID)
	if err != nil {
		return nil, err
	}

	deviceIDs, err := r.devices.ActiveLicenseDeviceIDs(ctx, orgID, r.now())
	if err != nil {
		return nil, err
	}

	reports := make([]models.DeviceReport, 0, len(deviceIDs))
	for _, deviceID := range deviceIDs {
		report, err := r.BuildDeviceReport(ctx, deviceID, bounds)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}

	return &models.OrganizationReport{
		GeneratedAt:    r.now(),
		OrganizationID: orgID,
		Summary:        *summary,
		Devices:        reports,
	}, nil
}
