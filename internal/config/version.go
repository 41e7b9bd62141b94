package config

import "fmt"

// Build information, overridden by the release build
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// SetBuildFlags records the values injected into main at link time
func SetBuildFlags(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date
}

// BuildInfo formats the build information for the version command
func BuildInfo() string {
	return fmt.Sprintf("rikadeploy version %s (commit %s, built %s)", Version, Commit, Date)
}
