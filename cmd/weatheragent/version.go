// In file: cmd/weatheragent/version.go
package main

import (
	"fmt"
	"runtime"

	cacheversion "github.com/dileep-u-k/weather-agents/internal/version"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

type BuildInfo struct {
	Version, BuildDate, GitCommit, GoVersion, Platform, Components string
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:    version,
		BuildDate:  buildDate,
		GitCommit:  gitCommit,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Components: cacheversion.Tag(),
	}
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("weatheragent %s (commit %s, built %s, %s, %s, components %s)",
		b.Version, b.GitCommit, b.BuildDate, b.GoVersion, b.Platform, b.Components)
}
