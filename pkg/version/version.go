// Package version carries build information for kpidash.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time with -ldflags "-X sales-kpi/pkg/version.Version=...".
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func Info() string {
	return fmt.Sprintf(
		"kpidash %s (commit: %s, built: %s, go: %s)",
		Version, Commit, BuildDate, runtime.Version(),
	)
}

func Short() string {
	return Version
}
