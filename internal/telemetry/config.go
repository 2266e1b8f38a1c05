package telemetry

import "time"

type TelemetryConfig struct {
	RetentionPeriod     time.Duration `mapstructure:"retention_period"`
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
}

func DefaultConfig() TelemetryConfig {
	return TelemetryConfig{
		RetentionPeriod:     90 * 24 * time.Hour,
		MaintenanceInterval: 1 * time.Hour,
	}
}
