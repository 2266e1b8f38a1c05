package health

import "time"

// HealthConfig holds the tunables for status classification and report
// assembly, loaded from the plugins.health config section.
type HealthConfig struct {
	HeartbeatOnlineWindow  time.Duration `mapstructure:"heartbeat_online_window"`
	HeartbeatWarningWindow time.Duration `mapstructure:"heartbeat_warning_window"`
	TrustStoredOverall     bool          `mapstructure:"trust_stored_overall"`
	ReportMetricsWindow    time.Duration `mapstructure:"report_metrics_window"`
	ReportMetricsLimit     int           `mapstructure:"report_metrics_limit"`
	ReportHeartbeatWindow  time.Duration `mapstructure:"report_heartbeat_window"`
	ReportHeartbeatLimit   int           `mapstructure:"report_heartbeat_limit"`
}

// DefaultConfig returns the settings used when the config section is
// absent or leaves fields unset.
func DefaultConfig() HealthConfig {
	return HealthConfig{
		HeartbeatOnlineWindow:  DefaultOnlineWindow,
		HeartbeatWarningWindow: DefaultWarningWindow,
		TrustStoredOverall:     true,
		ReportMetricsWindow:    DefaultReportMetricsWindow,
		ReportMetricsLimit:     DefaultReportMetricsLimit,
		ReportHeartbeatWindow:  DefaultReportHeartbeatWindow,
		ReportHeartbeatLimit:   DefaultReportHeartbeatLimit,
	}
}

func (c HealthConfig) reportBounds() ReportBounds {
	return ReportBounds{
		MetricsWindow:   c.ReportMetricsWindow,
		MetricsLimit:    c.ReportMetricsLimit,
		HeartbeatWindow: c.ReportHeartbeatWindow,
		HeartbeatLimit:  c.ReportHeartbeatLimit,
	}
}
