// Package version carries build metadata for the kiin binary.
// Version, GitCommit and BuildDate are overridden at link time:
//
//	go build -ldflags "-X .../pkg/core/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version of the build
	Version = "0.1.0"

	// GitCommit is the short commit hash the binary was built from
	GitCommit = "development"

	// BuildDate is the UTC timestamp of the build
	BuildDate = "unknown"
)

// Info bundles everything the version command reports
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of the running binary
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a single-line version string
func (i Info) String() string {
	return fmt.Sprintf("kiin v%s (%s, %s)", i.Version, i.GitCommit, i.BuildDate)
}
