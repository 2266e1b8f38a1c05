package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// TelemetryStore provides database access for raw telemetry records.
type TelemetryStore struct {
	db *sql.DB
}

// NewTelemetryStore creates a TelemetryStore backed by the given database.
func NewTelemetryStore(db *sql.DB) *TelemetryStore {
	return &TelemetryStore{db: db}
}

// MetricFilter bounds a RecentMetrics query.
type MetricFilter struct {
	Since time.Time // Zero means no lower bound
	Limit int       // <= 0 defaults to 100
}

// InsertScan stores a health scan or system metrics record. The full
// scan is kept as JSON so later agent versions can add categories
// without schema changes.
func (s *TelemetryStore) InsertScan(ctx context.Context, scan *models.HealthScan) error {
	payload, err := json.Marshal(scan)
	if err != nil {
		return fmt.Errorf("marshal scan payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO telemetry_records (device_id, metric_type, reported_at, payload)
		VALUES (?, ?, ?, ?)`,
		scan.DeviceID, string(scan.MetricType), scan.ReportedAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert telemetry record: %w", err)
	}
	return nil
}

// InsertHeartbeat stores a liveness-only record with no payload.
func (s *TelemetryStore) InsertHeartbeat(ctx context.Context, hb *models.Heartbeat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO telemetry_records (device_id, metric_type, reported_at, payload)
		VALUES (?, ?, ?, NULL)`,
		hb.DeviceID, string(models.MetricTypeHeartbeat), hb.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("insert heartbeat: %w", err)
	}
	return nil
}

// LatestScan returns the most recent record of the given type for a
// device. Returns nil, nil if the device has none.
func (s *TelemetryStore) LatestScan(ctx context.Context, deviceID string, metricType models.MetricType) (*models.HealthScan, error) {
	var payload sql.NullString
	var reportedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, reported_at
		FROM telemetry_records
		WHERE device_id = ? AND metric_type = ?
		ORDER BY reported_at DESC LIMIT 1`,
		deviceID, string(metricType),
	).Scan(&payload, &reportedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("latest scan: %w", err)
	}
	return decodeScan(deviceID, metricType, reportedAt, payload)
}

// RecentMetrics returns recent non-heartbeat records for a device,
// newest first. Heartbeats are excluded regardless of filter.
func (s *TelemetryStore) RecentMetrics(ctx context.Context, deviceID string, filter MetricFilter) ([]models.HealthScan, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	since := filter.Since
	if since.IsZero() {
		since = time.Unix(0, 0)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT metric_type, reported_at, payload
		FROM telemetry_records
		WHERE device_id = ? AND metric_type != ? AND reported_at >= ?
		ORDER BY reported_at DESC LIMIT ?`,
		deviceID, string(models.MetricTypeHeartbeat), since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent metrics: %w", err)
	}
	defer rows.Close()

	var scans []models.HealthScan
	for rows.Next() {
		var metricType string
		var reportedAt time.Time
		var payload sql.NullString
		if err := rows.Scan(&metricType, &reportedAt, &payload); err != nil {
			return nil, fmt.Errorf("scan telemetry row: %w", err)
		}
		scan, err := decodeScan(deviceID, models.MetricType(metricType), reportedAt, payload)
		if err != nil {
			return nil, err
		}
		scans = append(scans, *scan)
	}
	return scans, rows.Err()
}

// RecentHeartbeats returns recent heartbeat records for a device,
// newest first.
func (s *TelemetryStore) RecentHeartbeats(ctx context.Context, deviceID string, since time.Time, limit int) ([]models.Heartbeat, error) {
	if limit <= 0 {
		limit = 50
	}
	if since.IsZero() {
		since = time.Unix(0, 0)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT reported_at
		FROM telemetry_records
		WHERE device_id = ? AND metric_type = ? AND reported_at >= ?
		ORDER BY reported_at DESC LIMIT ?`,
		deviceID, string(models.MetricTypeHeartbeat), since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent heartbeats: %w", err)
	}
	defer rows.Close()

	var beats []models.Heartbeat
	for rows.Next() {
		var reportedAt time.Time
		if err := rows.Scan(&reportedAt); err != nil {
			return nil, fmt.Errorf("scan heartbeat row: %w", err)
		}
		beats = append(beats, models.Heartbeat{DeviceID: deviceID, ReportedAt: reportedAt})
	}
	return beats, rows.Err()
}

// DeleteOlderThan removes records older than the given time. Returns
// the number of rows deleted.
func (s *TelemetryStore) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM telemetry_records WHERE reported_at < ?`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("delete old telemetry: %w", err)
	}
	return result.RowsAffected()
}

func decodeScan(deviceID string, metricType models.MetricType, reportedAt time.Time, payload sql.NullString) (*models.HealthScan, error) {
	scan := models.HealthScan{
		DeviceID:   deviceID,
		MetricType: metricType,
		ReportedAt: reportedAt,
	}
	if payload.Valid && payload.String != "" {
		if err := json.Unmarshal([]byte(payload.String), &scan); err != nil {
			return nil, fmt.Errorf("decode scan payload: %w", err)
		}
		// Row columns are authoritative over payload copies.
		scan.DeviceID = deviceID
		scan.MetricType = metricType
		scan.ReportedAt = reportedAt
	}
	return &scan, nil
}
