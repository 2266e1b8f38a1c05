package health

import (
	"math"

	"github.com/Arwindpianist/gridhealth/pkg/models"
)

// Category weights for the overall score. Performance and disk/memory
// dominate because they most directly predict device usability;
// security is weighted lowest because it changes slowly and has
// dedicated alerting elsewhere. Must sum to 1.0 exactly.
const (
	weightPerformance = 0.25
	weightDisk        = 0.20
	weightMemory      = 0.20
	weightNetwork     = 0.15
	weightServices    = 0.15
	weightSecurity    = 0.05
)

// Per-unit penalties for the services and security categories.
const (
	penaltyCriticalService = 20
	penaltyWarningService  = 10
	penaltyCriticalVuln    = 25
	penaltyHighVuln        = 15
)

// Score runs a raw scan through extraction, per-category scoring and
// composition. Missing categories score 100; a nil scan therefore
// yields the all-100 default.
func Score(scan *models.HealthScan) models.HealthScore {
	ex := Extract(scan)

	score := models.HealthScore{
		Performance: scorePerformance(ex.Performance),
		Disk:        scoreDisk(ex.Disk),
		Memory:      scoreMemory(ex.Memory),
		Network:     scoreNetwork(ex.Network),
		Services:    scoreServices(ex.Services),
		Security:    scoreSecurity(ex.Security),
	}
	score.Overall = composeOverall(score)
	score.Details = map[string]any{
		"performance_metrics": ex.Performance,
		"disk_health":         ex.Disk,
		"memory_health":       ex.Memory,
		"network_health":      ex.Network,
		"service_health":      ex.Services,
		"security_health":     ex.Security,
	}
	return score
}

// PerfectScore is the all-100 default used when a device has no
// telemetry at all.
func PerfectScore() models.HealthScore {
	score := models.HealthScore{
		Performance: 100,
		Disk:        100,
		Memory:      100,
		Network:     100,
		Services:    100,
		Security:    100,
	}
	score.Overall = composeOverall(score)
	score.Details = map[string]any{}
	return score
}

// scorePerformance takes the worse of the CPU and memory headroom.
// Worst-of-two, not additive: a device pegged on either resource is
// equally unusable.
func scorePerformance(p models.PerformanceMetrics) int {
	score := 100.0
	if p.CPUUsagePercent != nil {
		score = math.Min(score, 100-*p.CPUUsagePercent)
	}
	if p.MemoryUsagePercent != nil {
		score = math.Min(score, 100-*p.MemoryUsagePercent)
	}
	return clampScore(score)
}

// scoreDisk averages usage percent across reporting volumes. Zero
// volumes scores 100.
func scoreDisk(volumes []models.DiskVolume) int {
	var sum float64
	var count int
	for i := range volumes {
		if volumes[i].UsagePercent != nil {
			sum += *volumes[i].UsagePercent
			count++
		}
	}
	if count == 0 {
		return 100
	}
	return clampScore(100 - sum/float64(count))
}

func scoreMemory(m models.MemoryHealth) int {
	if m.UsagePercent == nil {
		return 100
	}
	return clampScore(100 - *m.UsagePercent)
}

// scoreNetwork: all interfaces down is a dead device (0), a partial
// outage is degraded (80), everything up or nothing reported is 100.
func scoreNetwork(n models.NetworkHealth) int {
	if len(n.Interfaces) == 0 {
		return 100
	}
	down := 0
	for i := range n.Interfaces {
		if !n.Interfaces[i].Up {
			down++
		}
	}
	switch {
	case down == len(n.Interfaces):
		return 0
	case down > 0:
		return 80
	default:
		return 100
	}
}

// scoreServices penalizes critical services, or warnings when no
// critical exists. Warning count is ignored once a critical is present.
func scoreServices(services []models.ServiceHealth) int {
	var critical, warning int
	for i := range services {
		switch services[i].State {
		case models.ServiceStateCritical:
			critical++
		case models.ServiceStateWarning:
			warning++
		}
	}
	switch {
	case critical > 0:
		return clampScore(float64(100 - penaltyCriticalService*critical))
	case warning > 0:
		return clampScore(float64(100 - penaltyWarningService*warning))
	default:
		return 100
	}
}

// scoreSecurity penalizes critical vulnerabilities, or high-severity
// ones when no critical exists. Medium and low findings do not affect
// the score.
func scoreSecurity(sec models.SecurityHealth) int {
	var critical, high int
	for i := range sec.Vulnerabilities {
		switch sec.Vulnerabilities[i].Severity {
		case models.VulnSeverityCritical:
			critical++
		case models.VulnSeverityHigh:
			high++
		}
	}
	switch {
	case critical > 0:
		return clampScore(float64(100 - penaltyCriticalVuln*critical))
	case high > 0:
		return clampScore(float64(100 - penaltyHighVuln*high))
	default:
		return 100
	}
}

// composeOverall combines the six category scores by fixed weights,
// rounding once and clamping.
func composeOverall(s models.HealthScore) int {
	weighted := weightPerformance*float64(s.Performance) +
		weightDisk*float64(s.Disk) +
		weightMemory*float64(s.Memory) +
		weightNetwork*float64(s.Network) +
		weightServices*float64(s.Services) +
		weightSecurity*float64(s.Security)
	return clampScore(math.Round(weighted))
}

// clampScore rounds a raw score to the nearest integer and restricts
// it to [0, 100].
func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
