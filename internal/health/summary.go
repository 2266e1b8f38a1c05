package health

import (
	"context"
	"math"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// Score thresholds for summary bucketing.
const (
	healthyThreshold  = 80
	criticalThreshold = 60
)

// Summarize resolves every device in the organization's active-license
// fleet and rolls up the counts. An empty fleet yields all zeros, not
// an error. The average is rounded once after full summation.
func (r *Resolver) Summarize(ctx context.Context, orgID string) (*models.OrganizationHealthSummary, error) {
	deviceIDs, err := r.devices.ActiveLicenseDeviceIDs(ctx, orgID, r.now())
	if err != nil {
		return nil, err
	}

	summary := &models.OrganizationHealthSummary{}
	if len(deviceIDs) == 0 {
		return summary, nil
	}

	var scoreSum int
	for _, deviceID := range deviceIDs {
		state, err := r.Resolve(ctx, deviceID)
		if err != nil {
			return nil, err
		}

		summary.TotalDevices++
		if state.Status == models.DeviceStatusOffline {
			summary.OfflineDevices++
		} else {
			summary.OnlineDevices++
		}

		overall := state.HealthScore.Overall
		scoreSum += overall
		switch {
		case overall >= healthyThreshold:
			summary.HealthyDevices++
		case overall >= criticalThreshold:
			summary.WarningDevices++
		default:
			summary.CriticalDevices++
		}
	}

	summary.AverageHealthScore = int(math.Round(float64(scoreSum) / float64(summary.TotalDevices)))
	return summary, nil
}
