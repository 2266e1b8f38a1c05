package telemetry

import "time"

// Event topics published by the telemetry plugin.
const (
	// TopicRecordReceived is published after a telemetry record is
	// stored. Payload: RecordReceived.
	TopicRecordReceived = "telemetry.record.received"
)

// RecordReceived is the payload for TopicRecordReceived.
type RecordReceived struct {
	DeviceID   string    `json:"device_id"`
	MetricType string    `json:"metric_type"`
	ReportedAt time.Time `json:"reported_at"`
}
