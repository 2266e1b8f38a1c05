package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HTTPProvider    = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module implements the fleet inventory plugin: organizations, licenses
// and enrolled devices.
type Module struct {
	logger *zap.Logger
	store  *FleetStore
	bus    plugin.EventBus
}

// New creates a new fleet plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "fleet",
		Version:     "0.1.0",
		Description: "Organization, license and device inventory",
		Required:    true,
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	if deps.Store != nil {
		if err := deps.Store.Migrate(ctx, "fleet", migrations()); err != nil {
			return fmt.Errorf("fleet migrations: %w", err)
		}
		m.store = NewFleetStore(deps.Store.DB())
	}

	m.logger.Info("fleet module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	m.logger.Info("fleet module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.logger.Info("fleet module stopped")
	return nil
}

// Store exposes the fleet store to collaborating plugins.
func (m *Module) Store() *FleetStore {
	return m.store
}

// Subscriptions implements plugin.EventSubscriber. Telemetry arrivals
// bump the device's last_seen timestamp.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{
		{Topic: telemetry.TopicRecordReceived, Handler: m.onRecordReceived},
	}
}

func (m *Module) onRecordReceived(ctx context.Context, event plugin.Event) {
	rec, ok := event.Payload.(telemetry.RecordReceived)
	if !ok {
		m.logger.Warn("unexpected payload on telemetry topic", zap.String("topic", event.Topic))
		return
	}
	if err := m.store.TouchLastSeen(ctx, rec.DeviceID, rec.ReportedAt); err != nil {
		m.logger.Warn("failed to update last_seen",
			zap.String("device_id", rec.DeviceID),
			zap.Error(err))
	}
}

// ErrUnknownLicense is returned when enrollment names a license key
// that does not exist.
var ErrUnknownLicense = errors.New("unknown license key")

// EnrollDevice registers or refreshes a device under a license key.
// The license must exist; enrollment does not require it to be active,
// only roll-ups do. Publishes a registration event the first time a
// device ID is seen.
func (m *Module) EnrollDevice(ctx context.Context, d *models.Device) error {
	lic, err := m.store.GetLicense(ctx, d.LicenseKey)
	if err != nil {
		return err
	}
	if lic == nil {
		return fmt.Errorf("enroll device %s: %w", d.ID, ErrUnknownLicense)
	}

	now := time.Now().UTC()
	if d.FirstSeen.IsZero() {
		d.FirstSeen = now
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = now
	}
	if d.DeviceType == "" {
		d.DeviceType = models.DeviceTypeUnknown
	}

	created, err := m.store.UpsertDevice(ctx, d)
	if err != nil {
		return err
	}
	if created && m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     TopicDeviceRegistered,
			Source:    "fleet",
			Timestamp: now,
			Payload:   *d,
		})
	}
	return nil
}
