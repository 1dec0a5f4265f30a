// Package version holds build identity, set via -ldflags at release time.
package version

// Version is the cv release version.
var Version = "dev"

// Commit is the git commit the binary was built from.
var Commit = "unknown"
