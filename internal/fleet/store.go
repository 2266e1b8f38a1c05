package fleet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// FleetStore provides database access for organizations, licenses and
// devices.
type FleetStore struct {
	db *sql.DB
}

// NewFleetStore creates a FleetStore backed by the given database.
func NewFleetStore(db *sql.DB) *FleetStore {
	return &FleetStore{db: db}
}

// -- Organizations --

// InsertOrganization inserts a new organization.
func (s *FleetStore) InsertOrganization(ctx context.Context, o *models.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_organizations (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		o.ID, o.Name, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetOrganization returns an organization by ID. Returns nil, nil if not found.
func (s *FleetStore) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	var o models.Organization
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM fleet_organizations WHERE id = ?`,
		id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return &o, nil
}

// ListOrganizations returns all organizations ordered by name.
func (s *FleetStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM fleet_organizations ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization row: %w", err)
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// -- Licenses --

// InsertLicense inserts a new license.
func (s *FleetStore) InsertLicense(ctx context.Context, l *models.License) error {
	var expiresAt sql.NullTime
	if l.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *l.ExpiresAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fleet_licenses (key, organization_id, status, device_limit, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.Key, l.OrganizationID, string(l.Status), l.DeviceLimit,
		expiresAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert license: %w", err)
	}
	return nil
}

// GetLicense returns a license by key. Returns nil, nil if not found.
func (s *FleetStore) GetLicense(ctx context.Context, key string) (*models.License, error) {
	var l models.License
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT key, organization_id, status, device_limit, expires_at, created_at, updated_at
		FROM fleet_licenses WHERE key = ?`,
		key,
	).Scan(&l.Key, &l.OrganizationID, &l.Status, &l.DeviceLimit, &expiresAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get license: %w", err)
	}
	if expiresAt.Valid {
		l.ExpiresAt = &expiresAt.Time
	}
	return &l, nil
}

// UpdateLicenseStatus sets the status of a license.
func (s *FleetStore) UpdateLicenseStatus(ctx context.Context, key string, status models.LicenseStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE fleet_licenses SET status = ?, updated_at = ? WHERE key = ?`,
		string(status), time.Now().UTC(), key,
	)
	if err != nil {
		return fmt.Errorf("update license status: %w", err)
	}
	return nil
}

// -- Devices --

// UpsertDevice inserts a device or updates its mutable fields if it
// already exists. Returns true if the device was newly created.
func (s *FleetStore) UpsertDevice(ctx context.Context, d *models.Device) (bool, error) {
	existing, err := s.GetDevice(ctx, d.ID)
	if err != nil {
		return false, err
	}

	var lastSeen sql.NullTime
	if d.LastSeen != nil {
		lastSeen = sql.NullTime{Time: *d.LastSeen, Valid: true}
	}

	if existing == nil {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO fleet_devices (
				id, license_key, hostname, os, device_type, agent_version,
				last_seen, first_seen, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.LicenseKey, d.Hostname, d.OS, string(d.DeviceType),
			d.AgentVersion, lastSeen, d.FirstSeen, d.CreatedAt, d.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("insert device: %w", err)
		}
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE fleet_devices
		SET license_key = ?, hostname = ?, os = ?, device_type = ?,
			agent_version = ?, last_seen = COALESCE(?, last_seen), updated_at = ?
		WHERE id = ?`,
		d.LicenseKey, d.Hostname, d.OS, string(d.DeviceType),
		d.AgentVersion, lastSeen, time.Now().UTC(), d.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update device: %w", err)
	}
	return false, nil
}

// GetDevice returns a device by ID. Returns nil, nil if not found.
func (s *FleetStore) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	var lastSeen sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, license_key, hostname, os, device_type, agent_version,
			last_seen, first_seen, created_at, updated_at
		FROM fleet_devices WHERE id = ?`,
		id,
	).Scan(
		&d.ID, &d.LicenseKey, &d.Hostname, &d.OS, &d.DeviceType,
		&d.AgentVersion, &lastSeen, &d.FirstSeen, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get device: %w", err)
	}
	if lastSeen.Valid {
		d.LastSeen = &lastSeen.Time
	}
	return &d, nil
}

// ListDevices returns all devices ordered by hostname.
func (s *FleetStore) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, license_key, hostname, os, device_type, agent_version,
			last_seen, first_seen, created_at, updated_at
		FROM fleet_devices ORDER BY hostname`,
	)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// ListDevicesByOrganization returns devices bound to the organization
// through any of its licenses, active or not.
func (s *FleetStore) ListDevicesByOrganization(ctx context.Context, orgID string) ([]models.Device, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.license_key, d.hostname, d.os, d.device_type, d.agent_version,
			d.last_seen, d.first_seen, d.created_at, d.updated_at
		FROM fleet_devices d
		JOIN fleet_licenses l ON l.key = d.license_key
		WHERE l.organization_id = ?
		ORDER BY d.hostname`,
		orgID,
	)
	if err != nil {
		return nil, fmt.Errorf("list devices by organization: %w", err)
	}
	defer rows.Close()
	return scanDevices(rows)
}

// ActiveLicenseDeviceIDs returns the IDs of devices whose license belongs
// to the organization and is active as of now: status "active" and either
// no expiry or an expiry in the future.
func (s *FleetStore) ActiveLicenseDeviceIDs(ctx context.Context, orgID string, now time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id
		FROM fleet_devices d
		JOIN fleet_licenses l ON l.key = d.license_key
		WHERE l.organization_id = ?
			AND l.status = 'active'
			AND (l.expires_at IS NULL OR l.expires_at > ?)
		ORDER BY d.id`,
		orgID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("active license device ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan device id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// TouchLastSeen updates a device's last_seen timestamp. A no-op for
// unknown device IDs.
func (s *FleetStore) TouchLastSeen(ctx context.Context, deviceID string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE fleet_devices SET last_seen = ?, updated_at = ? WHERE id = ?`,
		seenAt, time.Now().UTC(), deviceID,
	)
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	return nil
}

func scanDevices(rows *sql.Rows) ([]models.Device, error) {
	var devices []models.Device
	for rows.Next() {
		var d models.Device
		var lastSeen sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.LicenseKey, &d.Hostname, &d.OS, &d.DeviceType,
			&d.AgentVersion, &lastSeen, &d.FirstSeen, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan device row: %w", err)
		}
		if lastSeen.Valid {
			d.LastSeen = &lastSeen.Time
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}
