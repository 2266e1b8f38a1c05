// Package version exposes build-time version metadata.
package version

import "fmt"

// Set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/Arwindpianist/gridhealth/internal/version.Version=v0.3.0 ..."
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string.
func Short() string {
	return Version
}

// Info returns a human-readable version line.
func Info() string {
	return fmt.Sprintf("GridHealth %s (commit %s, built %s)", Version, Commit, Date)
}

// Map returns the version fields for JSON responses.
func Map() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
	}
}
