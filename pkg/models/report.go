package models

import "time"

// DeviceReport is the presentation projection of one device's resolved
// health plus a bounded window of recent history. Immutable once built.
type DeviceReport struct {
	GeneratedAt      time.Time         `json:"generated_at"`
	Device           Device            `json:"device"`
	Health           DeviceHealthState `json:"health"`
	RecentMetrics    []HealthScan      `json:"recent_metrics"`
	RecentHeartbeats []Heartbeat       `json:"recent_heartbeats"`
}

// OrganizationReport aggregates a fleet summary with per-device reports.
type OrganizationReport struct {
	GeneratedAt    time.Time                 `json:"generated_at"`
	OrganizationID string                    `json:"organization_id"`
	Summary        OrganizationHealthSummary `json:"summary"`
	Devices        []DeviceReport            `json:"devices"`
}
