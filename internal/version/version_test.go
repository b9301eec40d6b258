package version_test

import (
	"runtime"
	"testing"

	"bennypowers.dev/csslift/internal/version"
	"github.com/stretchr/testify/assert"
)

// stamp sets the build variables for the duration of a test
func stamp(t *testing.T, v, tag, commit, dirty string) {
	t.Helper()
	orig := []string{version.Version, version.GitTag, version.GitCommit, version.GitDirty}
	t.Cleanup(func() {
		version.Version, version.GitTag, version.GitCommit, version.GitDirty = orig[0], orig[1], orig[2], orig[3]
	})
	version.Version, version.GitTag, version.GitCommit, version.GitDirty = v, tag, commit, dirty
}

func TestGet(t *testing.T) {
	tests := []struct {
		name                        string
		version, tag, commit, dirty string
		want                        string
	}{
		{"defaults", "dev", "unknown", "unknown", "", "dev"},
		{"ldflags", "v1.2.3", "unknown", "unknown", "", "v1.2.3"},
		{"git info", "dev", "v1.2.3", "abc1234567", "", "v1.2.3-abc1234"},
		{"dirty tree", "dev", "v1.2.3", "abc1234567", "dirty", "v1.2.3-abc1234-dirty"},
		{"tag already names the commit", "dev", "v1.2.3-abc1234", "abc1234567", "", "v1.2.3-abc1234"},
		{"short commit", "dev", "v1.2.3", "abc", "", "v1.2.3-abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.version, tt.tag, tt.commit, tt.dirty)
			assert.Equal(t, tt.want, version.Get())
		})
	}
}

func TestFull(t *testing.T) {
	stamp(t, "v1.0.0", "unknown", "unknown", "")
	assert.Equal(t, "v1.0.0 ("+runtime.Version()+")", version.Full())

	stamp(t, "v1.0.0", "v1.0.0", "0123456789", "")
	assert.Equal(t, "v1.0.0 (commit: 0123456, "+runtime.Version()+")", version.Full())
}

func TestBuild(t *testing.T) {
	stamp(t, "v2.0.0", "unknown", "deadbeef", "")
	info := version.Build()
	assert.Equal(t, "v2.0.0", info.Version)
	assert.Equal(t, "deadbeef", info.Commit)
	assert.Equal(t, runtime.Version(), info.Go)
}
