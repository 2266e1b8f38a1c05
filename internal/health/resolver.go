package health

import (
	"context"
	"errors"
	"time"

	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// ErrDeviceNotFound is returned when the device row itself is absent.
// Missing telemetry is never an error; it degrades to the all-100
// default instead.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceSource is the fleet-side collaborator the resolver reads from.
type DeviceSource interface {
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ActiveLicenseDeviceIDs(ctx context.Context, orgID string, now time.Time) ([]string, error)
}

// TelemetryReader is the telemetry-side collaborator the resolver
// reads from.
type TelemetryReader interface {
	LatestScan(ctx context.Context, deviceID string, metricType models.MetricType) (*models.HealthScan, error)
	RecentMetrics(ctx context.Context, deviceID string, filter telemetry.MetricFilter) ([]models.HealthScan, error)
	RecentHeartbeats(ctx context.Context, deviceID string, since time.Time, limit int) ([]models.Heartbeat, error)
}

// resolution names the data path that produced a score.
type resolution string

const (
	resolutionScan    resolution = "scan"
	resolutionMetrics resolution = "metrics"
	resolutionDefault resolution = "default"
)

// Resolver computes DeviceHealthState from stored rows. It is
// stateless and performs no writes: resolving twice with unchanged
// data yields identical results.
type Resolver struct {
	devices DeviceSource
	metrics TelemetryReader

	// trustStoredOverall keeps the overall score embedded in a
	// comprehensive scan instead of recomputing it, so dashboards agree
	// with what was computed at ingestion time. Category scores are
	// always recomputed.
	trustStoredOverall bool

	onlineWindow  time.Duration
	warningWindow time.Duration
	now           func() time.Time
}

// NewResolver creates a Resolver over the given collaborators.
func NewResolver(devices DeviceSource, metrics TelemetryReader, opts ResolverOptions) *Resolver {
	if opts.OnlineWindow <= 0 {
		opts.OnlineWindow = DefaultOnlineWindow
	}
	if opts.WarningWindow <= 0 {
		opts.WarningWindow = DefaultWarningWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		devices:            devices,
		metrics:            metrics,
		trustStoredOverall: opts.TrustStoredOverall,
		onlineWindow:       opts.OnlineWindow,
		warningWindow:      opts.WarningWindow,
		now:                opts.Now,
	}
}

// ResolverOptions tunes resolution policy.
type ResolverOptions struct {
	TrustStoredOverall bool
	OnlineWindow       time.Duration
	WarningWindow      time.Duration
	Now                func() time.Time
}

// Resolve computes the current health state of one device. Score
// sources, in priority order: the latest comprehensive health scan,
// the latest non-heartbeat metric record, the all-100 default. Status
// is classified from the device's stored last_seen regardless of which
// branch produced the score.
func (r *Resolver) Resolve(ctx context.Context, deviceID string) (*models.DeviceHealthState, error) {
	state, _, err := r.resolve(ctx, deviceID)
	return state, err
}

func (r *Resolver) resolve(ctx context.Context, deviceID string) (*models.DeviceHealthState, resolution, error) {
	device, err := r.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, "", err
	}
	if device == nil {
		return nil, "", ErrDeviceNotFound
	}

	state := &models.DeviceHealthState{
		DeviceID: deviceID,
		LastSeen: device.LastSeen,
	}

	source := resolutionDefault
	scan, err := r.metrics.LatestScan(ctx, deviceID, models.MetricTypeHealthScan)
	if err != nil {
		return nil, "", err
	}
	switch {
	case scan != nil:
		source = resolutionScan
		state.HealthScore = Score(scan)
		if r.trustStoredOverall && scan.Overall != nil {
			state.HealthScore.Overall = clampScore(float64(*scan.Overall))
		}
		state.LatestHealthScan = scan
		checkedAt := scan.ReportedAt
		state.LastHealthCheck = &checkedAt
	default:
		recent, err := r.metrics.RecentMetrics(ctx, deviceID, telemetry.MetricFilter{Limit: 1})
		if err != nil {
			return nil, "", err
		}
		if len(recent) > 0 {
			source = resolutionMetrics
			latest := recent[0]
			state.HealthScore = Score(&latest)
			state.LatestHealthScan = &latest
			checkedAt := latest.ReportedAt
			state.LastHealthCheck = &checkedAt
		} else {
			state.HealthScore = PerfectScore()
		}
	}

	beats, err := r.metrics.RecentHeartbeats(ctx, deviceID, time.Time{}, 1)
	if err != nil {
		return nil, "", err
	}
	if len(beats) > 0 {
		beatAt := beats[0].ReportedAt
		state.LastHeartbeat = &beatAt
	}

	state.Status, state.UptimePercentage = classifyStatus(
		device.LastSeen, r.now(), r.onlineWindow, r.warningWindow)

	return state, source, nil
}
