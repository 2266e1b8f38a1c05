package fleet

import (
	"database/sql"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create fleet tables",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS fleet_organizations (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,

					`CREATE TABLE IF NOT EXISTS fleet_licenses (
						key TEXT PRIMARY KEY,
						organization_id TEXT NOT NULL REFERENCES fleet_organizations(id),
						status TEXT NOT NULL DEFAULT 'active',
						device_limit INTEGER NOT NULL DEFAULT 0,
						expires_at DATETIME,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_fleet_licenses_org ON fleet_licenses(organization_id, status)`,

					`CREATE TABLE IF NOT EXISTS fleet_devices (
						id TEXT PRIMARY KEY,
						license_key TEXT NOT NULL REFERENCES fleet_licenses(key),
						hostname TEXT NOT NULL,
						os TEXT NOT NULL DEFAULT '',
						device_type TEXT NOT NULL DEFAULT 'unknown',
						agent_version TEXT NOT NULL DEFAULT '',
						last_seen DATETIME,
						first_seen DATETIME NOT NULL,
						created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX IF NOT EXISTS idx_fleet_devices_license ON fleet_devices(license_key)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
