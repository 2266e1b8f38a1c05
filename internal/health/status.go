package health

import (
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// Default recency windows for status classification.
const (
	DefaultOnlineWindow  = 5 * time.Minute
	DefaultWarningWindow = 30 * time.Minute
)

// classifyStatus maps last_seen recency to a status and uptime
// percentage. It is a pure function of last_seen and never consults
// the health score: a healthy device that stopped phoning in is
// offline, and a degraded device that reports on time is online.
func classifyStatus(lastSeen *time.Time, now time.Time, onlineWindow, warningWindow time.Duration) (models.DeviceStatus, int) {
	if lastSeen == nil {
		return models.DeviceStatusOffline, 0
	}
	elapsed := now.Sub(*lastSeen)
	switch {
	case elapsed <= onlineWindow:
		return models.DeviceStatusOnline, 100
	case elapsed <= warningWindow:
		return models.DeviceStatusWarning, 80
	default:
		return models.DeviceStatusOffline, 0
	}
}
