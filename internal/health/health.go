package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Arwindpianist/gridhealth/internal/fleet"
	"github.com/Arwindpianist/gridhealth/internal/telemetry"
	"github.com/Arwindpianist/gridhealth/pkg/models"
	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module implements the health plugin: score resolution, fleet
// roll-ups and reports over the fleet and telemetry stores.
type Module struct {
	logger   *zap.Logger
	bus      plugin.EventBus
	cfg      HealthConfig
	resolver *Resolver
	detector *changeDetector
}

// New creates a new health plugin instance.
func New() *Module {
	return &Module{detector: newChangeDetector()}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "health",
		Version:      "0.1.0",
		Description:  "Device health scoring and organization roll-ups",
		Dependencies: []string{"fleet", "telemetry"},
		Required:     true,
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	m.cfg = DefaultConfig()
	if deps.Config != nil {
		if err := deps.Config.Unmarshal(&m.cfg); err != nil {
			return fmt.Errorf("health config: %w", err)
		}
	}

	if deps.Plugins != nil {
		devices, metrics, err := resolveCollaborators(deps.Plugins)
		if err != nil {
			return err
		}
		m.resolver = NewResolver(devices, metrics, ResolverOptions{
			TrustStoredOverall: m.cfg.TrustStoredOverall,
			OnlineWindow:       m.cfg.HeartbeatOnlineWindow,
			WarningWindow:      m.cfg.HeartbeatWarningWindow,
		})
	}

	m.logger.Info("health module initialized",
		zap.Bool("trust_stored_overall", m.cfg.TrustStoredOverall))
	return nil
}

func resolveCollaborators(plugins plugin.PluginResolver) (DeviceSource, TelemetryReader, error) {
	p, ok := plugins.Resolve("fleet")
	if !ok {
		return nil, nil, fmt.Errorf("health: fleet plugin not registered")
	}
	fleetMod, ok := p.(*fleet.Module)
	if !ok {
		return nil, nil, fmt.Errorf("health: unexpected fleet plugin type %T", p)
	}

	p, ok = plugins.Resolve("telemetry")
	if !ok {
		return nil, nil, fmt.Errorf("health: telemetry plugin not registered")
	}
	telemetryMod, ok := p.(*telemetry.Module)
	if !ok {
		return nil, nil, fmt.Errorf("health: unexpected telemetry plugin type %T", p)
	}

	return fleetMod.Store(), telemetryMod.Store(), nil
}

func (m *Module) Start(ctx context.Context) error {
	m.logger.Info("health module started")
	return nil
}

func (m *Module) Stop(ctx context.Context) error {
	m.logger.Info("health module stopped")
	return nil
}

// Resolver exposes the resolver to collaborating plugins.
func (m *Module) Resolver() *Resolver {
	return m.resolver
}

// ResolveDevice resolves one device's health, records the outcome
// metric, and publishes a transition event when the score crosses the
// critical boundary.
func (m *Module) ResolveDevice(ctx context.Context, deviceID string) (*models.DeviceHealthState, error) {
	state, source, err := m.resolver.resolve(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	resolutionsTotal.WithLabelValues(string(source)).Inc()

	if topic := m.detector.observe(deviceID, state.HealthScore.Overall); topic != "" && m.bus != nil {
		m.bus.PublishAsync(ctx, plugin.Event{
			Topic:     topic,
			Source:    "health",
			Timestamp: time.Now().UTC(),
			Payload: ScoreChange{
				DeviceID:   deviceID,
				Overall:    state.HealthScore.Overall,
				Status:     state.Status,
				ObservedAt: time.Now().UTC(),
			},
		})
		m.logger.Info("device crossed critical boundary",
			zap.String("device_id", deviceID),
			zap.String("topic", topic),
			zap.Int("overall", state.HealthScore.Overall))
	}
	return state, nil
}

// SummarizeOrganization rolls up an organization's active fleet.
func (m *Module) SummarizeOrganization(ctx context.Context, orgID string) (*models.OrganizationHealthSummary, error) {
	summary, err := m.resolver.Summarize(ctx, orgID)
	if err != nil {
		return nil, err
	}
	summaryFleetSize.Observe(float64(summary.TotalDevices))
	return summary, nil
}
