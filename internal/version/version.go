// Package version provides build version information for sysproxy.
package version

import (
	"fmt"
	"runtime"
)

// Name is the program name used in version output.
const Name = "sysproxy"

// Build-time variables injected via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns a full version string including commit and build time.
func String() string {
	return fmt.Sprintf("%s %s (%s) built %s", Name, Version, GitCommit, BuildTime)
}

// Full returns version info with Go version and target platform.
func Full() string {
	return fmt.Sprintf("%s - Go %s %s", String(), runtime.Version(), Platform())
}

// Platform returns the GOOS/GOARCH pair the binary was built for.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Info contains structured version information.
type Info struct {
	Name      string `json:"name" yaml:"name"`
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	// Supported reports whether this platform can configure the system proxy.
	Supported bool `json:"supported" yaml:"supported"`
}

// GetInfo returns structured version information. supported is filled in by
// the caller, which knows which proxy backend was compiled in.
func GetInfo(supported bool) Info {
	return Info{
		Name:      Name,
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  Platform(),
		Supported: supported,
	}
}
