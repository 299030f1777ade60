package build

import "fmt"

// Set at link time:
//
//	go build -ldflags "-X github.com/rohmanhakim/stream-harvester/internal/build.Version=1.2.0 ..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// FullVersion returns the version string with commit hash appended.
// Format: "Version+Commit" (e.g., "1.0.0+abc123")
func FullVersion() string {
	return Version + "+" + Commit
}

// Describe is the one-line banner printed by the version command.
func Describe() string {
	return fmt.Sprintf("stream-harvester %s (built %s)", FullVersion(), BuildTime)
}
