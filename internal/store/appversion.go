package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/mod/semver"
)

// ErrNewerSchema is returned when the database was created by a newer
// GridHealth release than the running binary.
var ErrNewerSchema = fmt.Errorf("database was created by a newer version of GridHealth")

// CheckVersion gates startup on the app version recorded in the
// database. An older binary must not open a database written by a
// newer release. "dev" builds bypass the comparison in both
// directions.
func (s *SQLiteStore) CheckVersion(ctx context.Context, currentVersion string) error {
	var stored string
	err := s.db.QueryRowContext(ctx,
		"SELECT app_version FROM _schema_meta WHERE id = 1",
	).Scan(&stored)

	switch {
	case err == sql.ErrNoRows:
		// Fresh database: stamp it with the running version.
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO _schema_meta (id, app_version, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)",
			currentVersion,
		)
		if err != nil {
			return fmt.Errorf("record app version: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read app version: %w", err)
	}

	if stored != "dev" && currentVersion != "dev" {
		cmp := semver.Compare(withV(currentVersion), withV(stored))
		if cmp < 0 {
			return fmt.Errorf("%w: database=%s, binary=%s", ErrNewerSchema, stored, currentVersion)
		}
		if cmp == 0 {
			return nil
		}
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE _schema_meta SET app_version = ?, updated_at = CURRENT_TIMESTAMP WHERE id = 1",
		currentVersion,
	)
	if err != nil {
		return fmt.Errorf("update app version: %w", err)
	}
	return nil
}

// withV gives a version string the "v" prefix semver.Compare expects.
func withV(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}
