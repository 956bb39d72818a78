// Package version provides build and version information for kdex.
package version

import "fmt"

// Version is set via -ldflags at build time; "dev" otherwise.
var Version = "dev"

// Commit is the git commit hash, set via -ldflags at build time.
var Commit = "unknown"

// String returns a formatted version string.
func String() string {
	return fmt.Sprintf("kdex %s (commit: %s)", Version, Commit)
}
