// Package version exposes build metadata. Release builds stamp the
// variables via ldflags; development builds fall back to the VCS
// information the Go toolchain embeds on its own.
package version

import (
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release version, stamped via ldflags.
	Version = "dev"
	// Commit is the git revision, stamped via ldflags.
	Commit = ""
	// BuildDate is the build timestamp, stamped via ldflags.
	BuildDate = ""
)

// Info bundles everything the version endpoint reports.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get assembles the build information, filling unstamped fields from
// the embedded module build info when available.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}

// String returns the bare version string.
func String() string {
	return Version
}
