package pngstash

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Version returns the current version of pngstash
func Version() string {
	return version
}

// BuildInfo returns detailed build information
func BuildInfo() string {
	return "Version: " + version + "\nCommit: " + commit + "\nBuild Date: " + date
}
