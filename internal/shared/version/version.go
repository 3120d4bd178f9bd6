// Package version holds the build version, overridden with -ldflags.
package version

var Version = "dev"
