// Package version holds build information injected via ldflags, e.g.
//
//	-X github.com/babs/icoutils/internal/version.Version=v1.2.0
package version

import "fmt"

// Build-time variables injected via ldflags.
var (
	Version        = "v0.0.0"
	CommitHash     = "dev"
	BuildTimestamp = "1970-01-01T00:00:00Z"
	Builder        = "unknown"
	GithubRepo     = "babs/icoutils"
)

// Short returns "<program> <version>-<commit>".
func Short(program string) string {
	return fmt.Sprintf("%s %s-%s", program, Version, CommitHash)
}

// Long adds build details and the project URL to Short.
func Long(program string) string {
	return fmt.Sprintf("%s %s-%s (built %s using %s)\nhttps://github.com/%s\n",
		program, Version, CommitHash, BuildTimestamp, Builder, GithubRepo)
}
