/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package project opens the project a CLI command works on.
package project

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/config"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/graph"
	"bennypowers.dev/resolvekit/internal/logger"
	"bennypowers.dev/resolvekit/resolver"
)

// Project is a configured project on a host filesystem.
type Project struct {
	// Host is the filesystem the project is read from and written to.
	Host rkfs.FileSystem

	// Root is the project root as the host sees it.
	Root string

	// Config is the project configuration, or defaults when none is found.
	Config *config.Config
}

// Open opens the project at the "root" setting. The host kind comes from the
// "fs" setting, falling back to the config file's fs field.
func Open() (*Project, error) {
	root := viper.GetString("root")
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(rkfs.NewOSFileSystem(), abs)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if cfg == nil {
		logger.Debug("no config found under %s, using defaults", abs)
		cfg = config.Default()
	}

	kind := viper.GetString("fs")
	if kind == "" {
		kind = cfg.FS
	}
	host, hostRoot, err := rkfs.NewHost(rkfs.Kind(kind), abs)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened %s as %s host", abs, kind)

	return &Project{Host: host, Root: hostRoot, Config: cfg}, nil
}

// Path returns p as the host sees it. Relative paths are taken from the
// project root.
func (p *Project) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(p.Root, rel)
}

// ContextDir returns the directory requests are issued from.
func (p *Project) ContextDir(override string) string {
	if override != "" {
		return p.Path(override)
	}
	return p.Config.ContextDir(p.Root)
}

// Factory returns a resolver factory reading through the project host.
func (p *Project) Factory(contextDir string) *resolver.Factory {
	return resolver.NewFactoryWithContext(bridge.NewReadable(p.Host), contextDir)
}

// Walker returns a module graph walker using the project's resolve options.
func (p *Project) Walker(contextDir string) *graph.Walker {
	readable := bridge.NewReadable(p.Host)
	factory := resolver.NewFactoryWithContext(readable, contextDir)
	return graph.NewWalker(factory, readable, p.Config.ResolveOptions(p.Root))
}
