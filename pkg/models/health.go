package models

import "time"

// HealthScore is the normalized scoring of one device at one instant.
// Every field is always populated; when no telemetry exists at all, every
// category (and the overall) defaults to 100.
type HealthScore struct {
	Overall     int `json:"overall" example:"87"`
	Performance int `json:"performance" example:"74"`
	Disk        int `json:"disk" example:"91"`
	Memory      int `json:"memory" example:"88"`
	Network     int `json:"network" example:"100"`
	Services    int `json:"services" example:"80"`
	Security    int `json:"security" example:"100"`

	// Details retains the raw per-category inputs the scores were derived
	// from, for dashboards that drill into a score.
	Details map[string]any `json:"details,omitempty"`
}

// DeviceHealthState is the fully resolved health of one device: score,
// reachability, and the timestamps the resolution was based on. Computed
// fresh on every request; never cached by the core.
type DeviceHealthState struct {
	DeviceID         string       `json:"device_id"`
	LastHeartbeat    *time.Time   `json:"last_heartbeat,omitempty"`
	LastHealthCheck  *time.Time   `json:"last_health_check,omitempty"`
	LatestHealthScan *HealthScan  `json:"latest_health_scan,omitempty"`
	HealthScore      HealthScore  `json:"health_score"`
	Status           DeviceStatus `json:"status" example:"online"`
	UptimePercentage int          `json:"uptime_percentage" example:"100"`
	LastSeen         *time.Time   `json:"last_seen,omitempty"`
}

// OrganizationHealthSummary rolls up a fleet snapshot. Both partitions are
// exact: online+offline == total and healthy+warning+critical == total.
// Devices with warning reachability count as online here; the
// healthy/warning/critical buckets partition by score alone.
type OrganizationHealthSummary struct {
	TotalDevices       int `json:"total_devices" example:"25"`
	OnlineDevices      int `json:"online_devices" example:"21"`
	OfflineDevices     int `json:"offline_devices" example:"4"`
	AverageHealthScore int `json:"average_health_score" example:"83"`
	HealthyDevices     int `json:"healthy_devices" example:"18"`
	WarningDevices     int `json:"warning_devices" example:"5"`
	CriticalDevices    int `json:"critical_devices" example:"2"`
}
