package telemetry

import (
	"database/sql"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create telemetry records table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS telemetry_records (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						device_id TEXT NOT NULL,
						metric_type TEXT NOT NULL,
						reported_at DATETIME NOT NULL,
						payload TEXT
					)`,
					`CREATE INDEX IF NOT EXISTS idx_telemetry_device_type_time
						ON telemetry_records(device_id, metric_type, reported_at)`,
					`CREATE INDEX IF NOT EXISTS idx_telemetry_time
						ON telemetry_records(reported_at)`,
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
