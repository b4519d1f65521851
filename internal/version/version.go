package version

import "fmt"

// Set at build time with
//
//	-ldflags "-X github.com/adaryorg/ghostyle/internal/version.Version=..."
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
)

// String formats the build information for --version output.
func String(program string) string {
	return fmt.Sprintf("%s version %s (built %s, commit %s)", program, Version, BuildTime, CommitHash)
}
