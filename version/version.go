package version

import "fmt"

// These variables are set at build time using ldflags.
// Example: go build -ldflags "-X taskmanager/version.Version=v1.0.0"
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// String is the one-line form printed by the version command.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, CommitSHA, BuildDate)
}
