// Package buildinfo holds version information injected at build time via ldflags.
package buildinfo

import "fmt"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// String returns a one-line description of the build.
func String() string {
	if CommitHash == "unknown" {
		return Version
	}
	short := CommitHash
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", Version, short, BuildDate)
}
