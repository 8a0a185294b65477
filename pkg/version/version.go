// Package version carries build metadata injected with -ldflags.
package version

import "runtime"

// Set with -X github.com/carverauto/homerelay/pkg/version.version=...
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = "dev"
	buildID = "dev"
)

func GetVersion() string {
	return version
}

func GetBuildID() string {
	return buildID
}

// GetFullVersion returns version, build ID and the Go toolchain that produced the binary.
func GetFullVersion() string {
	return version + " (build: " + buildID + ", " + runtime.Version() + ")"
}
