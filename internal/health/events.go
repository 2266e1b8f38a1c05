package health

import (
	"sync"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// Event topics published by the health plugin.
const (
	// TopicDeviceCritical is published when a device's overall score
	// drops below the critical threshold. Payload: ScoreChange.
	TopicDeviceCritical = "health.device.critical"
	// TopicDeviceRecovered is published when a previously critical
	// device's overall score rises back above the threshold.
	// Payload: ScoreChange.
	TopicDeviceRecovered = "health.device.recovered"
)

// ScoreChange is the payload for critical/recovered transitions.
type ScoreChange struct {
	DeviceID   string              `json:"device_id"`
	Overall    int                 `json:"overall"`
	Status     models.DeviceStatus `json:"status"`
	ObservedAt time.Time           `json:"observed_at"`
}

// changeDetector tracks the last known critical/non-critical bucket per
// device so resolution itself can stay pure. Only transitions across
// the critical boundary produce a topic.
type changeDetector struct {
	mu       sync.Mutex
	critical map[string]bool
}

func newChangeDetector() *changeDetector {
	return &changeDetector{critical: make(map[string]bool)}
}

// observe records a resolution result and returns the topic to publish,
// or "" when the device did not cross the boundary.
func (d *changeDetector) observe(deviceID string, overall int) string {
	nowCritical := overall < criticalThreshold

	d.mu.Lock()
	defer d.mu.Unlock()

	wasCritical, known := d.critical[deviceID]
	d.critical[deviceID] = nowCritical

	switch {
	case nowCritical && (!known || !wasCritical):
		return TopicDeviceCritical
	case !nowCritical && known && wasCritical:
		return TopicDeviceRecovered
	default:
		return ""
	}
}
