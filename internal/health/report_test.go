package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

func TestBuildDeviceReport(t *testing.T) {
	now := time.Now()
	scan := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHealthScan,
		ReportedAt: now.Add(-time.Hour),
	}
	metricHistory := []models.HealthScan{*scan}
	beats := []models.Heartbeat{{DeviceID: "dev-1", ReportedAt: now.Add(-time.Minute)}}

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{
			scans:      map[string]*models.HealthScan{"dev-1": scan},
			metrics:    map[string][]models.HealthScan{"dev-1": metricHistory},
			heartbeats: map[string][]models.Heartbeat{"dev-1": beats},
		}, true)

	report, err := r.BuildDeviceReport(context.Background(), "dev-1", ReportBounds{})
	if err != nil {
		t.Fatalf("BuildDeviceReport: %v", err)
	}
	if report.Device.ID != "dev-1" {
		t.Errorf("Device.ID = %q, want dev-1", report.Device.ID)
	}
	if len(report.RecentMetrics) != 1 {
		t.Errorf("RecentMetrics = %d entries, want 1", len(report.RecentMetrics))
	}
	if len(report.RecentHeartbeats) != 1 {
		t.Errorf("RecentHeartbeats = %d entries, want 1", len(report.RecentHeartbeats))
	}
	if report.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestBuildDeviceReport_NotFound(t *testing.T) {
	r := testResolverAt(time.Now(),
		&fakeDevices{devices: map[string]*models.Device{}},
		&fakeTelemetry{}, true)

	_, err := r.BuildDeviceReport(context.Background(), "missing", ReportBounds{})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestBuildDeviceReport_EmptyHistoryIsEmptySlices(t *testing.T) {
	now := time.Now()
	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{}, true)

	report, err := r.BuildDeviceReport(context.Background(), "dev-1", ReportBounds{})
	if err != nil {
		t.Fatalf("BuildDeviceReport: %v", err)
	}
	if report.RecentMetrics == nil || report.RecentHeartbeats == nil {
		t.Error("history slices must be empty, not nil")
	}
}

func TestBuildDeviceReport_HonorsLimits(t *testing.T) {
	now := time.Now()
	var history []models.HealthScan
	for i := 0; i < 10; i++ {
		history = append(history, models.HealthScan{
			DeviceID:   "dev-1",
			MetricType: models.MetricTypeSystemMetrics,
			ReportedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}

	r := testResolverAt(now,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{metrics: map[string][]models.HealthScan{"dev-1": history}}, true)

	report, err := r.BuildDeviceReport(context.Background(), "dev-1", ReportBounds{MetricsLimit: 3})
	if err != nil {
		t.Fatalf("BuildDeviceReport: %v", err)
	}
	if len(report.RecentMetrics) != 3 {
		t.Errorf("RecentMetrics = %d entries, want 3", len(report.RecentMetrics))
	}
}

func TestBuildOrganizationReport(t *testing.T) {
	now := time.Now()
	devices, metrics := fleetFixture(t, now,
		map[string]int{"dev-a": 90, "dev-b": 50},
		map[string]time.Duration{"dev-a": time.Minute, "dev-b": time.Minute})
	r := testResolverAt(now, devices, metrics, true)

	report, err := r.BuildOrganizationReport(context.Background(), "org-1", ReportBounds{})
	if err != nil {
		t.Fatalf("BuildOrganizationReport: %v", err)
	}
	if report.OrganizationID != "org-1" {
		t.Errorf("OrganizationID = %q, want org-1", report.OrganizationID)
	}
	if len(report.Devices) != 2 {
		t.Fatalf("got %d device reports, want 2", len(report.Devices))
	}
	if report.Summary.TotalDevices != 2 {
		t.Errorf("Summary.TotalDevices = %d, want 2", report.Summary.TotalDevices)
	}
	if report.Summary.CriticalDevices != 1 {
		t.Errorf("Summary.CriticalDevices = %d, want 1", report.Summary.CriticalDevices)
	}
}

func TestBuildOrganizationReport_EmptyFleet(t *testing.T) {
	r := testResolverAt(time.Now(),
		&fakeDevices{fleet: map[string][]string{}},
		&fakeTelemetry{}, true)

	report, err := r.BuildOrganizationReport(context.Background(), "org-empty", ReportBounds{})
	if err != nil {
		t.Fatalf("BuildOrganizationReport: %v", err)
	}
	if len(report.Devices) != 0 {
		t.Errorf("got %d device reports, want 0", len(report.Devices))
	}
	if report.Summary.TotalDevices != 0 {
		t.Errorf("Summary.TotalDevices = %d, want 0", report.Summary.TotalDevices)
	}
}
