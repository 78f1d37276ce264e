// Package version carries the exporter's build identity, stamped in at link
// time.
package version

// Set via -ldflags at build time; the defaults mark an unstamped dev build.
var (
	// Version is the release version of the exporter.
	Version = "dev"
	// GitSHA identifies the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)
