package telemetry

import (
	"context"
	"sync"
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

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []plugin.Event
}

func (b *recordingBus) Publish(_ context.Context, event plugin.Event) error {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
	return nil
}

func (b *recordingBus) PublishAsync(ctx context.Context, event plugin.Event) {
	_ = b.Publish(ctx, event)
}

func (b *recordingBus) Subscribe(string, plugin.EventHandler) func() { return func() {} }
func (b *recordingBus) SubscribeAll(plugin.EventHandler) func()      { return func() {} }

func TestRecord_ScanStoredAndAnnounced(t *testing.T) {
	bus := &recordingBus{}
	m := &Module{logger: zap.NewNop(), store: testStore(t), bus: bus}
	ctx := context.Background()

	cpu := 42.5
	scan := &models.HealthScan{
		DeviceID: "dev-1",
		Performance: &models.PerformanceMetrics{
			CPUUsagePercent: &cpu,
		},
	}
	if err := m.Record(ctx, scan); err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Defaults applied.
	if scan.MetricType != models.MetricTypeHealthScan {
		t.Errorf("MetricType = %q, want health_scan", scan.MetricType)
	}
	if scan.ReportedAt.IsZero() {
		t.Error("ReportedAt not defaulted")
	}

	stored, err := m.store.LatestScan(ctx, "dev-1", models.MetricTypeHealthScan)
	if err != nil {
		t.Fatalf("LatestScan: %v", err)
	}
	if stored == nil || stored.Performance == nil || stored.Performance.CPUUsagePercent == nil {
		t.Fatalf("stored scan missing performance payload: %+v", stored)
	}
	if *stored.Performance.CPUUsagePercent != 42.5 {
		t.Errorf("CPUUsagePercent = %v, want 42.5", *stored.Performance.CPUUsagePercent)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.events))
	}
	rec, ok := bus.events[0].Payload.(RecordReceived)
	if !ok {
		t.Fatalf("payload type = %T, want RecordReceived", bus.events[0].Payload)
	}
	if rec.DeviceID != "dev-1" || rec.MetricType != string(models.MetricTypeHealthScan) {
		t.Errorf("payload = %+v, want dev-1/health_scan", rec)
	}
}

func TestRecord_HeartbeatStoredWithoutPayload(t *testing.T) {
	bus := &recordingBus{}
	m := &Module{logger: zap.NewNop(), store: testStore(t), bus: bus}
	ctx := context.Background()

	reported := time.Now().UTC().Truncate(time.Second)
	scan := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHeartbeat,
		ReportedAt: reported,
	}
	if err := m.Record(ctx, scan); err != nil {
		t.Fatalf("Record: %v", err)
	}

	beats, err := m.store.RecentHeartbeats(ctx, "dev-1", time.Time{}, 10)
	if err != nil {
		t.Fatalf("RecentHeartbeats: %v", err)
	}
	if len(beats) != 1 {
		t.Fatalf("got %d heartbeats, want 1", len(beats))
	}
	if !beats[0].ReportedAt.Equal(reported) {
		t.Errorf("ReportedAt = %v, want %v", beats[0].ReportedAt, reported)
	}

	// Heartbeats never surface as metric records.
	metrics, err := m.store.RecentMetrics(ctx, "dev-1", MetricFilter{})
	if err != nil {
		t.Fatalf("RecentMetrics: %v", err)
	}
	if len(metrics) != 0 {
		t.Errorf("got %d metric records, want 0", len(metrics))
	}
}

func TestRunMaintenance_PurgesExpiredRecords(t *testing.T) {
	m := &Module{logger: zap.NewNop(), store: testStore(t), cfg: TelemetryConfig{
		RetentionPeriod:     time.Hour,
		MaintenanceInterval: time.Hour,
	}}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	defer m.cancel()
	ctx := context.Background()

	old := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHealthScan,
		ReportedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	fresh := &models.HealthScan{
		DeviceID:   "dev-1",
		MetricType: models.MetricTypeHealthScan,
		ReportedAt: time.Now().UTC(),
	}
	if err := m.store.InsertScan(ctx, old); err != nil {
		t.Fatalf("InsertScan(old): %v", err)
	}
	if err := m.store.InsertScan(ctx, fresh); err != nil {
		t.Fatalf("InsertScan(fresh): %v", err)
	}

	m.runMaintenance()

	metrics, err := m.store.RecentMetrics(ctx, "dev-1", MetricFilter{})
	if err != nil {
		t.Fatalf("RecentMetrics: %v", err)
	}
	if len(metrics) != 1 {
		t.Errorf("got %d records after sweep, want 1", len(metrics))
	}
}
