package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
	"github.com/Arwindpianist/gridhealth/pkg/plugin/plugintest"
)

func TestConformance(t *testing.T) {
	plugintest.Conform(t, func() plugin.Plugin { return New() })
}

func testHealthModule(t *testing.T, devices *fakeDevices, metrics *fakeTelemetry) *Module {
	t.Helper()
	m := New()
	m.logger = zap.NewNop()
	m.cfg = DefaultConfig()
	m.resolver = testResolverAt(time.Now(), devices, metrics, true)
	return m
}

func healthMux(m *Module) *http.ServeMux {
	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(route.Method+" /api/v1/health"+route.Path, route.Handler)
	}
	return mux
}

func TestHandleDeviceHealth(t *testing.T) {
	now := time.Now()
	m := testHealthModule(t,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{})
	mux := healthMux(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/devices/dev-1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.DeviceHealthState
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want dev-1", got.DeviceID)
	}
	if got.HealthScore.Overall != 100 {
		t.Errorf("Overall = %d, want 100", got.HealthScore.Overall)
	}
}

func TestHandleDeviceHealth_NotFound(t *testing.T) {
	m := testHealthModule(t, &fakeDevices{devices: map[string]*models.Device{}}, &fakeTelemetry{})
	mux := healthMux(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/devices/missing", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want application/problem+json", ct)
	}
}

func TestHandleOrgSummary(t *testing.T) {
	now := time.Now()
	devices, metrics := fleetFixture(t, now,
		map[string]int{"dev-a": 90, "dev-b": 40},
		map[string]time.Duration{"dev-a": time.Minute, "dev-b": time.Minute})
	m := testHealthModule(t, devices, metrics)
	mux := healthMux(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/organizations/org-1/summary", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.OrganizationHealthSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalDevices != 2 || got.CriticalDevices != 1 {
		t.Errorf("summary = %+v, want 2 total / 1 critical", got)
	}
}

func TestHandleDeviceReport_CSV(t *testing.T) {
	now := time.Now()
	m := testHealthModule(t,
		&fakeDevices{devices: map[string]*models.Device{"dev-1": onlineDevice("dev-1", now)}},
		&fakeTelemetry{})
	mux := healthMux(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/devices/dev-1/report?format=csv", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, strings.Join(DeviceCSVColumns, ",")) {
		t.Errorf("body missing CSV header: %q", body)
	}
	if !strings.Contains(body, "dev-1") {
		t.Errorf("body missing device row: %q", body)
	}
}

func TestHandleOrgReport_JSON(t *testing.T) {
	now := time.Now()
	devices, metrics := fleetFixture(t, now,
		map[string]int{"dev-a": 90},
		map[string]time.Duration{"dev-a": time.Minute})
	m := testHealthModule(t, devices, metrics)
	mux := healthMux(m)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/organizations/org-1/report", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got models.OrganizationReport
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Devices) != 1 {
		t.Errorf("got %d device reports, want 1", len(got.Devices))
	}
}
