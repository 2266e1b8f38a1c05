package health

import "github.com/Arwindpianist/gridhealth/pkg/models"

// Extracted is the normalized view of a raw scan: every category is
// present, with zero values standing in for whatever the agent did not
// report. Extraction never fails; a nil scan yields an empty Extracted.
type Extracted struct {
	Performance models.PerformanceMetrics
	Disk        []models.DiskVolume
	Memory      models.MemoryHealth
	Network     models.NetworkHealth
	Services    []models.ServiceHealth
	Security    models.SecurityHealth
}

// Extract pulls the six category sub-structures out of a raw health
// scan, substituting empty values for missing categories.
func Extract(scan *models.HealthScan) Extracted {
	var out Extracted
	if scan == nil {
		return out
	}
	if scan.Performance != nil {
		out.Performance = *scan.Performance
	}
	out.Disk = scan.Disk
	if scan.Memory != nil {
		out.Memory = *scan.Memory
	}
	if scan.Network != nil {
		out.Network = *scan.Network
	}
	out.Services = scan.Services
	if scan.Security != nil {
		out.Security = *scan.Security
	}
	return out
}
