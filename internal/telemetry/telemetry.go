package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module implements the telemetry plugin: raw record storage, retrieval
// and retention.
type Module struct {
	logger *zap.Logger
	store  *TelemetryStore
	bus    plugin.EventBus
	cfg    TelemetryConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new telemetry plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "telemetry",
		Version:     "0.1.0",
		Description: "Raw health-scan and heartbeat storage",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("telemetry config: %w", err)
		}
	}
	if m.cfg.RetentionPeriod <= 0 {
		m.cfg.RetentionPeriod = DefaultConfig().RetentionPeriod
	}
	if m.cfg.MaintenanceInterval <= 0 {
		m.cfg.MaintenanceInterval = DefaultConfig().MaintenanceInterval
	}

	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "telemetry", migrations()); err != nil {
			return fmt.Errorf("telemetry migrations: %w", err)
		}
		m.store = NewTelemetryStore(deps.Store.DB())
	}

	m.logger.Info("telemetry module initialized",
		zap.Duration("retention", m.cfg.RetentionPeriod))
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.startMaintenance()
	m.logger.Info("telemetry module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("telemetry module stopped")
	return nil
}

// Store exposes the telemetry store to collaborating plugins.
func (m *Module) Store() *TelemetryStore {
	return m.store
}

// Record stores a telemetry record and announces its arrival on the
// bus. Heartbeats are stored without a payload.
func (m *Module) Record(ctx context.Context, scan *models.HealthScan) error {
	if scan.ReportedAt.IsZero() {
		scan.ReportedAt = time.Now().UTC()
	}
	if scan.MetricType == "" {
		scan.MetricType = models.MetricTypeHealthScan
	}

	var err error
	if scan.MetricType == models.MetricTypeHeartbeat {
		err = m.store.InsertHeartbeat(ctx, &models.Heartbeat{
			DeviceID:   scan.DeviceID,
			ReportedAt: scan.ReportedAt,
		})
	} else {
		err = m.store.InsertScan(ctx, scan)
	}
	if err != nil {
		return err
	}

	if m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicRecordReceived,
			Source:    "telemetry",
			Timestamp: time.Now().UTC(),
			Payload: RecordReceived{
				DeviceID:   scan.DeviceID,
				MetricType: string(scan.MetricType),
				ReportedAt: scan.ReportedAt,
			},
		})
	}
	return nil
}

// startMaintenance launches a background goroutine that periodically
// deletes telemetry records past the retention window.
func (m *Module) startMaintenance() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.cfg.MaintenanceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.runMaintenance()
			}
		}
	}()
}

// runMaintenance executes a single retention sweep.
func (m *Module) runMaintenance() {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-m.cfg.RetentionPeriod)
	deleted, err := m.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		m.logger.Warn("failed to delete old telemetry", zap.Error(err))
	} else if deleted > 0 {
		m.logger.Info("purged old telemetry records", zap.Int64("count", deleted))
	}
}
