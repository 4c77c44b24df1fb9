/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration loading for resolvekit projects.
package config

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/resolvekit/engine"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/resolver"
)

// Config represents a project's resolvekit configuration.
type Config struct {
	// Context is the directory requests are issued from, relative to the project root.
	Context string `yaml:"context" json:"context"`

	// Resolve is the resolver configuration, including byDependency overrides.
	Resolve resolver.Options `yaml:"resolve" json:"resolve"`

	// Entries are the requests emitted by default. Glob patterns expand to files.
	Entries []string `yaml:"entries" json:"entries"`

	// Output configures where emitted files go.
	Output Output `yaml:"output" json:"output"`

	// FS selects the host filesystem: "os", "afero" or "sandbox".
	FS string `yaml:"fs" json:"fs"`
}

// Output is the output section of a Config.
type Output struct {
	// Path is the output directory, relative to the project root.
	Path string `yaml:"path" json:"path"`

	// Clean removes the output directory before emitting.
	Clean bool `yaml:"clean" json:"clean"`
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Context: ".",
		Output:  Output{Path: "dist"},
		FS:      string(rkfs.KindOS),
	}
}

// ContextDir returns the absolute context directory under rootDir.
func (c *Config) ContextDir(rootDir string) string {
	return under(rootDir, c.Context)
}

// OutputDir returns the absolute output directory under rootDir.
func (c *Config) OutputDir(rootDir string) string {
	path := c.Output.Path
	if path == "" {
		path = Default().Output.Path
	}
	return under(rootDir, path)
}

// ResolveOptions returns a copy of the resolve options with relative alias
// targets and module directories made absolute against rootDir. Bare targets
// such as "react" are left as module requests.
func (c *Config) ResolveOptions(rootDir string) resolver.Options {
	opts := c.Resolve
	opts.RawOptions = anchorOptions(c.Resolve.RawOptions, rootDir)
	if c.Resolve.ResolveToContext != nil {
		opts.ResolveToContext = engine.Bool(*c.Resolve.ResolveToContext)
	}
	return opts
}

func anchorOptions(raw engine.RawOptions, rootDir string) engine.RawOptions {
	out := raw.Clone()
	out.Alias = anchorAliases(out.Alias, rootDir)
	out.Fallback = anchorAliases(out.Fallback, rootDir)
	for i, m := range out.Modules {
		if isRelativePath(m) {
			out.Modules[i] = filepath.Join(rootDir, m)
		}
	}
	for k, v := range out.ByDependency {
		out.ByDependency[k] = anchorOptions(v, rootDir)
	}
	return out
}

func anchorAliases(aliases engine.Aliases, rootDir string) engine.Aliases {
	for key, targets := range aliases {
		for i, target := range targets {
			if isRelativePath(target) {
				targets[i] = filepath.Join(rootDir, target)
			}
		}
		aliases[key] = targets
	}
	return aliases
}

func isRelativePath(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

func under(rootDir, p string) string {
	if p == "" {
		return filepath.Clean(rootDir)
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(rootDir, p)
}
