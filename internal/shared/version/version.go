// Package version holds the release version, set at link time with
// -ldflags "-X evmc/internal/shared/version.Version=...".
package version

var Version = "0.1.0"
