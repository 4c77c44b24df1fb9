/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package testutil loads on-disk fixture trees into in-memory hosts for
// resolver tests and maintains golden files.
package testutil

import (
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/resolvekit/internal/mapfs"
)

var updateGolden = flag.Bool("update", false, "update golden files with actual output")

// searchDirs are tried in order; packages sit one or two levels below the
// module root.
var searchDirs = []string{"testdata", filepath.Join("..", "testdata"), filepath.Join("..", "..", "testdata")}

// locate returns the first candidate for rel under searchDirs accepted by ok,
// or "" when none is.
func locate(rel string, ok func(string) bool) string {
	for _, dir := range searchDirs {
		if p := filepath.Join(dir, rel); ok(p) {
			return p
		}
	}
	return ""
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// NewFixtureFS mirrors the fixture tree under testdata/fixtureDir into a
// MapFileSystem mounted at rootPath. Directories, including empty ones, keep
// their permissions. Symlinks are carried over as symlinks with their target
// text unchanged: relative targets stay relative to the link, and absolute
// targets name paths inside the in-memory host, so a link may dangle on disk.
func NewFixtureFS(t *testing.T, fixtureDir string, rootPath string) *mapfs.MapFileSystem {
	t.Helper()

	base := locate(fixtureDir, exists)
	if base == "" {
		t.Fatalf("fixture %s not found under any testdata directory", fixtureDir)
	}

	mfs := mapfs.New()
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		virtual := filepath.Join(rootPath, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(p)
			if err != nil {
				return err
			}
			mfs.AddSymlink(filepath.ToSlash(target), virtual)
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			mfs.AddDir(virtual, info.Mode())
		default:
			content, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			mfs.AddFile(virtual, string(content), 0o644)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", fixtureDir, err)
	}
	return mfs
}

// LoadFixtureFile reads one file under testdata.
func LoadFixtureFile(t *testing.T, fixturePath string) []byte {
	t.Helper()
	p := locate(fixturePath, exists)
	if p == "" {
		t.Fatalf("fixture %s not found under any testdata directory", fixturePath)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", fixturePath, err)
	}
	return content
}

// UpdateGoldenFile writes actual to the golden file when -update is set.
func UpdateGoldenFile(t *testing.T, goldenPath string, actual []byte) {
	t.Helper()
	if !*updateGolden {
		return
	}

	target := locate(goldenPath, func(p string) bool { return exists(filepath.Dir(p)) })
	if target == "" {
		target = filepath.Join(searchDirs[0], goldenPath)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("failed to create directory for golden file %s: %v", goldenPath, err)
	}
	if err := os.WriteFile(target, actual, 0o644); err != nil {
		t.Fatalf("failed to write golden file %s: %v", goldenPath, err)
	}
	t.Logf("updated golden file: %s", target)
}
