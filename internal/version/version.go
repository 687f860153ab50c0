package version

import "fmt"

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String renders the version banner printed by --version.
func String() string {
	return fmt.Sprintf("tiffkit version %s\nCommit: %s\nDate: %s", Version, GitCommit, BuildDate)
}
