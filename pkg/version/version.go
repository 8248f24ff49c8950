// Package version provides version information for the application.
package version

import "fmt"

// Build information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the build information on one line.
func String() string {
	return fmt.Sprintf("crudread %s (commit %s, built %s)", Version, Commit, BuildTime)
}
