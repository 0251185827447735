// Package version holds build metadata injected with -ldflags, e.g.
//
//	-X github.com/benvon/study-planner/internal/version.Version=1.2.0
package version

import (
	goversion "go.hein.dev/go-version"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Render formats the build metadata as "json" or "yaml". short prints only the version.
func Render(short bool, output string) string {
	return goversion.FuncWithOutput(short, Version, Commit, Date, output)
}
