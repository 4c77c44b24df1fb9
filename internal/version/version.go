/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package version provides version information for the resolvekit CLI.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version information, set at build time via ldflags. Unset values are
// filled from the module and VCS data the Go toolchain embeds.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"goVersion,omitempty"`
}

// Info returns build information for the running binary.
func Info() BuildInfo {
	info, _ := debug.ReadBuildInfo()
	return infoFrom(info)
}

func infoFrom(info *debug.BuildInfo) BuildInfo {
	b := BuildInfo{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
	if info == nil {
		return b
	}
	b.GoVersion = info.GoVersion
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.GitCommit == "" {
				b.GitCommit = s.Value
			}
		case "vcs.time":
			if b.BuildTime == "" {
				b.BuildTime = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	return b
}

// Get returns the version string for the application.
func Get() string {
	return Info().Version
}

// Full returns the version with a short commit and dirty marker when known.
func Full() string {
	return Info().String()
}

// String formats b as "version (commit abcdef1[, dirty])".
func (b BuildInfo) String() string {
	if b.GitCommit == "" {
		return b.Version
	}
	commit := b.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if b.Dirty {
		return fmt.Sprintf("%s (commit %s, dirty)", b.Version, commit)
	}
	return fmt.Sprintf("%s (commit %s)", b.Version, commit)
}
