// Package version exposes build metadata stamped in via ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = runtime.Version()
)

// String returns a single-line version summary for logs and the CLI.
func String() string {
	return fmt.Sprintf("studyflow %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}

// Info returns version metadata keyed for JSON responses.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildTime": BuildTime,
		"gitCommit": GitCommit,
		"goVersion": GoVersion,
	}
}
