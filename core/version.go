package core

import "fmt"

// Build metadata, injected with:
//
//	go build -ldflags "-X smartsummarizer/core.Version=$(git describe --tags --always) \
//	    -X smartsummarizer/core.GitCommit=$(git rev-parse --short HEAD)" .
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// GetVersionInfo returns a one-line version string for logs and /health.
func GetVersionInfo() string {
	if GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
