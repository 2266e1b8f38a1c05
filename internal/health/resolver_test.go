package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// fakeDevices implements DeviceSource in memory.
type fakeDevices struct {
	devices map[string]*models.Device
	fleet   map[string][]string // orgID -> active device IDs
	err     error
}

func (f *fakeDevices) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices[id], nil
}

func (f *fakeDevices) ActiveLicenseDeviceIDs(ctx context.Context, orgID string, now time.Time) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fleet[orgID], nil
}

// fakeTelemetry implements TelemetryReader in memory.
type fakeTelemetry struct {
	scans      map[string]*models.HealthScan // latest comprehensive scan per device
	metrics    map[string][]models.HealthScan
	heartbeats map[string][]models.Heartbeat
	err        error
}

func (f *fakeTelemetry) LatestScan(ctx context.Context, deviceID string, metricType models.MetricType) (*models.HealthScan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scans[deviceID], nil
}

func (f *fakeTelemetry) RecentMetrics(ctx context.Context, deviceID string, filter telemetry.MetricFilter) ([]models.HealthScan, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.metrics[deviceID]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeTelemetry) RecentHeartbeats(ctx context.Context, deviceID string, since time.Time, limit int) ([]models.Heartbeat, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := f.heartbeats[deviceID]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testResolverAt(now time.Time, devices *fakeDevices, metrics *fakeTelemetry, trust bool) *Resolver {
	return NewResolver(devices, metrics, ResolverOptions{
		TrustStoredOverall: trust,
		Now:                func() time.Time { return now },
	})
}

func onlineDevice(id string, now time.Time) *models.Device {
	seen := now.Add(-time.Minute)
	return &models.Device{ID: id, Hostname: "host-" + id, LastSeen: &seen}
}

func TestResolve_DeviceNotFound(t *testing.T) {
	r := testResolverAt(time.Now(),
		&fakeDevices{devices: map[string]*models.Device{}},
		&fakeTelemetry{}, true)

	_, err := r.Resolve(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestResolve_NoTelemetryIsPerfect(t *testing.T) {
	now := time.Now()
	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{}, true)

	state, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if state.HealthScore.Overall != 100 {
		t.Errorf("Overall = %d, want 100", state.HealthScore.Overall)
	}
	if state.Status != models.DeviceStatusOnline {
		t.Errorf("Status = %q, want online", state.Status)
	}
	if state.LatestHealthScan != nil {
		t.Error("LatestHealthScan should be nil with no telemetry")
	}
}

func TestResolve_PrefersComprehensiveScan(t *testing.T) {
	now := time.Now()
	scan := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHealthScan,
		ReportedAt: now.Add(-10 * time.Minute),
		Performance: &models.PerformanceMetrics{
			CPUUsagePercent: fp(95),
		},
	}
	metric := models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeSystemMetrics,
		ReportedAt: now.Add(-time.Minute),
	}

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{
			scans:   map[string]*models.HealthScan{"dev-1": scan},
			metrics: map[string][]models.HealthScan{"dev-1": {metric}},
		}, false)

	state, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if state.HealthScore.Performance != 5 {
		t.Errorf("Performance = %d, want 5 (scored from scan, not newer metric)", state.HealthScore.Performance)
	}
	if state.LastHealthCheck == nil || !state.LastHealthCheck.Equal(scan.ReportedAt) {
		t.Errorf("LastHealthCheck = %v, want scan time %v", state.LastHealthCheck, scan.ReportedAt)
	}
}

func TestResolve_TrustsStoredOverall(t *testing.T) {
	now := time.Now()
	scan := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHealthScan,
		ReportedAt: now,
		Overall:    ip(42),
	}
	devices := &fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}}
	metrics := &fakeTelemetry{scans: map[string]*models.HealthScan{"dev-1": scan}}

	trusted, err := testResolverAt(now, devices, metrics, true).Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if trusted.HealthScore.Overall != 42 {
		t.Errorf("trusted Overall = %d, want stored 42", trusted.HealthScore.Overall)
	}

	recomputed, err := testResolverAt(now, devices, metrics, false).Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if recomputed.HealthScore.Overall != 100 {
		t.Errorf("recomputed Overall = %d, want 100 (empty categories)", recomputed.HealthScore.Overall)
	}
}

func TestResolve_FallsBackToRecentMetric(t *testing.T) {
	now := time.Now()
	metric := models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeSystemMetrics,
		ReportedAt: now.Add(-time.Hour),
		Memory:     &models.MemoryHealth{UsagePercent: fp(40)},
	}

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{metrics: map[string][]models.HealthScan{"dev-1": {metric}}}, true)

	state, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if state.HealthScore.Memory != 60 {
		t.Errorf("Memory = %d, want 60 (from fallback metric)", state.HealthScore.Memory)
	}
	if state.LatestHealthScan == nil {
		t.Fatal("LatestHealthScan not populated from fallback metric")
	}
}

func TestResolve_StatusIndependentOfScore(t *testing.T) {
	// A device with a terrible score that reported a minute ago is
	// online; a perfect device silent for an hour is offline.
	now := time.Now()
	badScan := &models.HealthScan{
		DeviceID:   "dev-bad",
		ReportedAt: now,
		Services: []models.ServiceHealth{
			{State: models.ServiceStateCritical}, {State: models.ServiceStateCritical},
			{State: models.ServiceStateCritical}, {State: models.ServiceStateCritical},
			{State: models.ServiceStateCritical},
		},
	}
	silentSeen := now.Add(-time.Hour)

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{
			"dev-bad":    onlineDevice("dev-bad", now),
			"dev-silent": {ID: "dev-silent", LastSeen: &silentSeen},
		}},
		&fakeTelemetry{scans: map[string]*models.HealthScan{"dev-bad": badScan}}, false)

	bad, err := r.Resolve(context.Background(), "dev-bad")
	if err != nil {
		t.Fatalf("Resolve dev-bad: %v", err)
	}
	if bad.Status != models.DeviceStatusOnline {
		t.Errorf("degraded but reporting device status = %q, want online", bad.Status)
	}

	silent, err := r.Resolve(context.Background(), "dev-silent")
	if err != nil {
		t.Fatalf("Resolve dev-silent: %v", err)
	}
	if silent.Status != models.DeviceStatusOffline {
		t.Errorf("healthy but silent device status = %q, want offline", silent.Status)
	}
	if silent.HealthScore.Overall != 100 {
		t.Errorf("silent device Overall = %d, want 100", silent.HealthScore.Overall)
	}
}

func TestResolve_Idempotent(t *testing.T) {
	now := time.Now()
	scan := &models.HealthScan{
		DeviceID:   "dev-1",
		ReportedAt: now,
		Disk:       []models.DiskVolume{{UsagePercent: fp(55)}},
	}
	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{scans: map[string]*models.HealthScan{"dev-1": scan}}, true)

	first, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolutions differ:\n%+v\n%+v", first, second)
	}
}

func TestResolve_PropagatesStoreErrors(t *testing.T) {
	now := time.Now()
	storeErr := errors.New("database locked")

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{err: storeErr}, true)

	_, err := r.Resolve(context.Background(), "dev-1")
	if !errors.Is(err, storeErr) {
		t.Errorf("err = %v, want wrapped store error", err)
	}
}

func TestResolve_PopulatesLastHeartbeat(t *testing.T) {
	now := time.Now()
	beat := models.Heartbeat{DeviceID: "dev-1", ReportedAt: now.Add(-2 * time.Minute)}

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{heartbeats: map[string][]models.Heartbeat{"dev-1": {beat}}}, true)

	state, err := r.Resolve(context.Background(), "dev-1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if state.LastHeartbeat == nil || !state.LastHeartbeat.Equal(beat.ReportedAt) {
		t.Errorf("LastHeartbeat = %v, want %v", state.LastHeartbeat, beat.ReportedAt)
	}
}
