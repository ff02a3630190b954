// Package version reports the build version of worldtap.
package version

// Version is the current version of worldtap.
// Set using -ldflags "-X go.minekube.com/worldtap/pkg/version.version=v1.2.3"
var version = "unknown"

// String returns the build version.
func String() string {
	return version
}
