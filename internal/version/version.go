// Package version provides build and version information for the OrbFi
// strategy studio.
package version

// Version is the current release version of the studio.
// This can be overridden at build time using:
//
//	go build -ldflags "-X github.com/AaronLay10/OrbFi/internal/version.Version=x.y.z"
var Version = "0.4.0"
