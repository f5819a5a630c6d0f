// Package version exposes the build version reported by the CLI.
package version

// Current is the semantic version of this build, without a "v" prefix.
const Current = "0.3.0"
