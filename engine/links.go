/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/resolvekit/bridge"
)

// LinkManifestNames are the file names searched for a link manifest, in order.
var LinkManifestNames = []string{".links.yaml", ".links.yml", ".links.json"}

// linkManifest maps package names to directories on disk. Module requests
// for a listed package resolve inside its directory before any module
// directory is searched, so a workspace can point at packages outside
// node_modules.
type linkManifest struct {
	path     string
	packages map[string]string
}

type linkManifestFile struct {
	Packages map[string]string `json:"packages" yaml:"packages"`
}

// findLinkManifest returns the closest link manifest at or above dir, or "".
func findLinkManifest(fs bridge.Readable, dir string) string {
	dir = filepath.Clean(dir)
	for {
		for _, name := range LinkManifestNames {
			candidate := filepath.Join(dir, name)
			if meta, err := fs.Metadata(candidate); err == nil && meta.IsFile {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadLinkManifest reads and parses the manifest at path. Package
// directories are made absolute relative to the manifest's directory.
func loadLinkManifest(fs bridge.Readable, path string) (*linkManifest, error) {
	data, err := fs.ReadToBuffer(path)
	if err != nil {
		return nil, err
	}

	var file linkManifestFile
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, fmt.Errorf("failed to parse link manifest %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse link manifest %s: %w", path, err)
		}
	}

	base := filepath.Dir(path)
	m := &linkManifest{path: path, packages: make(map[string]string, len(file.Packages))}
	for name, dir := range file.Packages {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		m.packages[name] = filepath.Clean(dir)
	}
	return m, nil
}
