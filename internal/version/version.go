// Package version reports the csslift build. The variables are set at build
// time, e.g. -ldflags "-X bennypowers.dev/csslift/internal/version.Version=v0.1.0".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	GitTag    = "unknown"
	BuildTime = "unknown"
	// GitDirty is "dirty" when the tree had uncommitted changes
	GitDirty = ""
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"buildTime" yaml:"buildTime"`
	Go        string `json:"go" yaml:"go"`
}

// Get returns the version string. An explicit Version wins, then the module
// version recorded by go install, then the git tag and commit.
func Get() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "(devel)" && v != "" {
			return v
		}
	}
	if GitTag == "unknown" || GitCommit == "unknown" {
		return "dev"
	}
	v := GitTag
	if short := shortCommit(); !strings.HasSuffix(GitTag, short) {
		v += "-" + short
	}
	if GitDirty == "dirty" {
		v += "-dirty"
	}
	return v
}

// Full returns the version with the commit, for --version output
func Full() string {
	if GitCommit == "unknown" {
		return fmt.Sprintf("%s (%s)", Get(), runtime.Version())
	}
	return fmt.Sprintf("%s (commit: %s, %s)", Get(), shortCommit(), runtime.Version())
}

// Build returns the build information
func Build() Info {
	return Info{Version: Get(), Commit: GitCommit, BuildTime: BuildTime, Go: runtime.Version()}
}

func shortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}
