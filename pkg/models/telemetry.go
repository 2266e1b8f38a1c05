package models

import "time"

// MetricType discriminates telemetry records submitted by device agents.
type MetricType string

const (
	// MetricTypeHealthScan is a comprehensive multi-category snapshot.
	MetricTypeHealthScan MetricType = "health_scan"
	// MetricTypeSystemMetrics is a lighter periodic sample (a subset of
	// the health-scan categories).
	MetricTypeSystemMetrics MetricType = "system_metrics"
	// MetricTypeHeartbeat is a liveness-only record with no payload. It
	// updates last_seen and nothing else.
	MetricTypeHeartbeat MetricType = "heartbeat"
)

// HealthScan is a raw telemetry record as submitted by a device agent.
// Every category is optional: agents report what they can collect, and a
// missing category is an expected case, never an error.
type HealthScan struct {
	DeviceID   string     `json:"device_id"`
	MetricType MetricType `json:"metric_type"`
	ReportedAt time.Time  `json:"reported_at"`

	Performance *PerformanceMetrics `json:"performance_metrics,omitempty"`
	Disk        []DiskVolume        `json:"disk_health,omitempty"`
	Memory      *MemoryHealth       `json:"memory_health,omitempty"`
	Network     *NetworkHealth      `json:"network_health,omitempty"`
	Services    []ServiceHealth     `json:"service_health,omitempty"`
	Security    *SecurityHealth     `json:"security_health,omitempty"`

	// Overall is the agent's own precomputed overall score, when the
	// agent version embeds one. Kept so stored dashboards and reports
	// agree with what was computed at ingestion time.
	Overall *int `json:"overall_score,omitempty"`
}

// PerformanceMetrics holds CPU and memory pressure samples.
type PerformanceMetrics struct {
	CPUUsagePercent    *float64 `json:"cpu_usage_percent,omitempty" example:"42.5"`
	MemoryUsagePercent *float64 `json:"memory_usage_percent,omitempty" example:"61.3"`
	ProcessCount       *int     `json:"process_count,omitempty" example:"214"`
}

// DiskVolume is the per-volume slice of a disk health report.
type DiskVolume struct {
	Mount        string   `json:"mount" example:"C:"`
	UsagePercent *float64 `json:"usage_percent,omitempty" example:"73.1"`
	TotalBytes   *int64   `json:"total_bytes,omitempty"`
	FreeBytes    *int64   `json:"free_bytes,omitempty"`
}

// MemoryHealth holds system memory usage.
type MemoryHealth struct {
	UsagePercent *float64 `json:"usage_percent,omitempty" example:"61.3"`
	TotalBytes   *int64   `json:"total_bytes,omitempty"`
	UsedBytes    *int64   `json:"used_bytes,omitempty"`
}

// NetworkHealth holds per-interface link state.
type NetworkHealth struct {
	Interfaces []NetworkInterface `json:"interfaces,omitempty"`
}

// NetworkInterface is a single adapter's link state.
type NetworkInterface struct {
	Name string `json:"name" example:"eth0"`
	Up   bool   `json:"up"`
}

// ServiceState classifies a monitored service's condition.
type ServiceState string

const (
	ServiceStateOK       ServiceState = "ok"
	ServiceStateWarning  ServiceState = "warning"
	ServiceStateCritical ServiceState = "critical"
)

// ServiceHealth is a single monitored service's reported condition.
type ServiceHealth struct {
	Name  string       `json:"name" example:"postgresql"`
	State ServiceState `json:"state" example:"ok"`
}

// VulnSeverity classifies a reported vulnerability.
type VulnSeverity string

const (
	VulnSeverityCritical VulnSeverity = "critical"
	VulnSeverityHigh     VulnSeverity = "high"
	VulnSeverityMedium   VulnSeverity = "medium"
	VulnSeverityLow      VulnSeverity = "low"
)

// Vulnerability is a single finding in a device's security report.
type Vulnerability struct {
	ID       string       `json:"id" example:"CVE-2025-21418"`
	Severity VulnSeverity `json:"severity" example:"high"`
}

// SecurityHealth holds the security posture slice of a scan.
type SecurityHealth struct {
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
	FirewallEnabled *bool           `json:"firewall_enabled,omitempty"`
}

// Heartbeat is a minimal liveness record.
type Heartbeat struct {
	DeviceID   string    `json:"device_id"`
	ReportedAt time.Time `json:"reported_at"`
}
