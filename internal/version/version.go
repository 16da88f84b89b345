// Package version carries the build identification stamped into the
// measurement tools, so a printed report can always be traced back to the
// exact analysis build that produced it.
package version

import "fmt"

// Set at build time via -ldflags "-X gear-metrology/internal/version.Version=...".
var (
	// Version is the release tag.
	Version = "0.1.0"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the source revision.
	GitCommit = "unknown"
)

// String returns the version line printed by the command line tools.
func String() string {
	return fmt.Sprintf("gear-metrology %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
