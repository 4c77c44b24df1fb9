/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package version

import (
	"runtime/debug"
	"testing"
)

func TestInfoFrom(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.25.5",
		Main:      debug.Module{Path: "bennypowers.dev/resolvekit", Version: "v0.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-10-01T00:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	b := infoFrom(info)
	if b.Version != "v0.3.0" {
		t.Errorf("expected module version, got %q", b.Version)
	}
	if b.GitCommit != "0123456789abcdef" || b.BuildTime != "2026-10-01T00:00:00Z" || !b.Dirty {
		t.Errorf("expected vcs settings to be read, got %+v", b)
	}
	if got := b.String(); got != "v0.3.0 (commit 0123456, dirty)" {
		t.Errorf("unexpected string %q", got)
	}
}

func TestInfoFrom_Devel(t *testing.T) {
	b := infoFrom(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if b.Version != "dev" {
		t.Errorf("expected dev, got %q", b.Version)
	}
	if b.String() != "dev" {
		t.Errorf("expected bare version without commit, got %q", b.String())
	}

	if got := infoFrom(nil); got.Version != Version {
		t.Errorf("expected ldflags version without build info, got %q", got.Version)
	}
}

func TestInfoFrom_LdflagsWin(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })
	Version, GitCommit = "v1.0.0", "feedface"

	b := infoFrom(&debug.BuildInfo{
		Main:     debug.Module{Version: "v0.9.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}},
	})
	if b.Version != "v1.0.0" || b.GitCommit != "feedface" {
		t.Errorf("expected ldflags values to win, got %+v", b)
	}
	if b.String() != "v1.0.0 (commit feedfac)" {
		t.Errorf("unexpected string %q", b.String())
	}
}
