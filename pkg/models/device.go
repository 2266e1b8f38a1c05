package models

import "time"

// DeviceStatus represents the current reachability of a device, derived
// purely from how recently it reported in. It is independent of the
// device's health score: a healthy device that stopped phoning in is
// offline, and a degraded device that reports on time is online.
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"
	DeviceStatusWarning DeviceStatus = "warning"
	DeviceStatusOffline DeviceStatus = "offline"
)

// DeviceType categorizes an enrolled device.
type DeviceType string

const (
	DeviceTypeServer  DeviceType = "server"
	DeviceTypeDesktop DeviceType = "desktop"
	DeviceTypeLaptop  DeviceType = "laptop"
	DeviceTypeVM      DeviceType = "vm"
	DeviceTypeUnknown DeviceType = "unknown"
)

// Device represents an enrolled device tracked by GridHealth. Devices are
// bound to an organization through their license key.
type Device struct {
	ID           string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	LicenseKey   string     `json:"license_key" example:"GH-7K2M-9QX4-P8VN"`
	Hostname     string     `json:"hostname" example:"finance-ws-07"`
	OS           string     `json:"os,omitempty" example:"Windows 11 Pro 23H2"`
	DeviceType   DeviceType `json:"device_type" example:"desktop"`
	AgentVersion string     `json:"agent_version,omitempty" example:"1.4.2"`
	LastSeen     *time.Time `json:"last_seen,omitempty" example:"2026-01-15T10:30:00Z"`
	FirstSeen    time.Time  `json:"first_seen" example:"2026-01-10T08:00:00Z"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
