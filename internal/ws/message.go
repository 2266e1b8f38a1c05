package ws

import (
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageDeviceRegistered MessageType = "device.registered"
	MessageDeviceCritical   MessageType = "device.critical"
	MessageDeviceRecovered  MessageType = "device.recovered"
	MessageRecordReceived   MessageType = "telemetry.record"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType `json:"type"`
	DeviceID  string      `json:"device_id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// DeviceRegisteredData is the payload for device.registered messages.
type DeviceRegisteredData struct {
	Device models.Device `json:"device"`
}

// ScoreChangeData is the payload for device.critical and
// device.recovered messages.
type ScoreChangeData struct {
	Overall int                 `json:"overall"`
	Status  models.DeviceStatus `json:"status"`
}

// RecordReceivedData is the payload for telemetry.record messages.
type RecordReceivedData struct {
	MetricType string    `json:"metric_type"`
	ReportedAt time.Time `json:"reported_at"`
}
