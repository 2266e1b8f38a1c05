package models

import "time"

// LicenseStatus represents the lifecycle state of a license key.
type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "active"
	LicenseStatusSuspended LicenseStatus = "suspended"
	LicenseStatusRevoked   LicenseStatus = "revoked"
)

// Organization is a tenant: a customer account that owns licenses and,
// through them, devices.
type Organization struct {
	ID        string    `json:"id" example:"org-3f2a"`
	Name      string    `json:"name" example:"Acme Logistics"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// License binds devices to an organization's subscription. A device
// enrolls with a license key; the key's organization scopes every fleet
// query and roll-up.
type License struct {
	Key            string        `json:"key" example:"GH-7K2M-9QX4-P8VN"`
	OrganizationID string        `json:"organization_id" example:"org-3f2a"`
	Status         LicenseStatus `json:"status" example:"active"`
	DeviceLimit    int           `json:"device_limit" example:"25"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// IsActive reports whether the license currently entitles devices to be
// counted in organization roll-ups.
func (l *License) IsActive(now time.Time) bool {
	if l.Status != LicenseStatusActive {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}
