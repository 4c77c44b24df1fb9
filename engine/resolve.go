/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"bennypowers.dev/resolvekit/bridge"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/specifier"
)

const (
	// maxLinkHops bounds symlink expansion in realpath.
	maxLinkHops = 40

	// maxAliasDepth bounds chains of aliases that rewrite into each other.
	maxAliasDepth = 32
)

var (
	errNotFound   = errors.New("no candidate matched")
	errAliasLoop  = errors.New("alias chain too deep")
	errSymlinkHop = errors.New("too many levels of symbolic links")
)

// nativeResolver runs the search algorithm for one configuration.
// It holds no mutable state after construction.
type nativeResolver struct {
	fs        bridge.Readable
	typ       Type
	category  string
	toContext bool

	alias            []aliasEntry
	fallback         []aliasEntry
	extensions       []string
	mainFiles        []string
	mainFields       []string
	descriptionFiles []string
	modules          []string
	symlinks         bool
	preferRelative   bool
	fullySpecified   bool

	links *linkManifest
}

func newNativeResolver(fs bridge.Readable, t Type, category string, toContext bool, opts RawOptions) *nativeResolver {
	return &nativeResolver{
		fs:               fs,
		typ:              t,
		category:         category,
		toContext:        toContext,
		alias:            sortedAliases(opts.Alias),
		fallback:         sortedAliases(opts.Fallback),
		extensions:       opts.Extensions,
		mainFiles:        opts.MainFiles,
		mainFields:       opts.MainFields,
		descriptionFiles: opts.DescriptionFiles,
		modules:          opts.Modules,
		symlinks:         opts.Symlinks != nil && *opts.Symlinks,
		preferRelative:   opts.PreferRelative != nil && *opts.PreferRelative,
		fullySpecified:   opts.FullySpecified != nil && *opts.FullySpecified,
	}
}

// Resolve implements Handle.
func (r *nativeResolver) Resolve(ctx context.Context, dir, request string) (*Result, error) {
	fail := func(reason string, err error) error {
		return &ResolutionError{
			Request:            request,
			Context:            dir,
			DependencyCategory: r.category,
			Reason:             reason,
			Err:                err,
		}
	}

	if !filepath.IsAbs(dir) {
		return nil, fail("context must be an absolute path", nil)
	}

	spec, err := specifier.Parse(request)
	if err != nil {
		return nil, fail("invalid request", err)
	}

	p, err := r.resolvePath(ctx, filepath.Clean(dir), spec.Path, 0)
	if errors.Is(err, errNotFound) {
		what := "no matching file"
		if r.toContext {
			what = "no matching directory"
		}
		return nil, fail(what, nil)
	}
	if err != nil {
		return nil, fail("", err)
	}

	if r.symlinks {
		if p, err = r.realpath(p); err != nil {
			return nil, fail("", err)
		}
	}

	Logger().Debug("resolved",
		zap.String("type", string(r.typ)),
		zap.String("request", request),
		zap.String("context", dir),
		zap.String("category", r.category),
		zap.String("path", p))
	return &Result{Path: p, Query: spec.Query, Fragment: spec.Fragment}, nil
}

// resolvePath applies aliases, then the plain search, then fallbacks.
func (r *nativeResolver) resolvePath(ctx context.Context, dir, path string, depth int) (string, error) {
	if depth > maxAliasDepth {
		return "", errAliasLoop
	}
	if p, matched, err := r.applyAliases(ctx, dir, path, r.alias, depth); matched {
		return p, err
	}

	p, err := r.resolvePlain(ctx, dir, path)
	if !errors.Is(err, errNotFound) {
		return p, err
	}
	if p, matched, ferr := r.applyAliases(ctx, dir, path, r.fallback, depth); matched && !errors.Is(ferr, errNotFound) {
		return p, ferr
	}
	return "", err
}

// applyAliases rewrites path with the first matching entry and tries each
// target in order. matched is false when no entry applies.
func (r *nativeResolver) applyAliases(ctx context.Context, dir, path string, entries []aliasEntry, depth int) (string, bool, error) {
	for _, entry := range entries {
		rest, ok := entry.match(path)
		if !ok {
			continue
		}
		for _, target := range entry.targets {
			next := target + rest
			var p string
			var err error
			if _, again := entry.match(next); again {
				p, err = r.resolvePlain(ctx, dir, next)
			} else {
				p, err = r.resolvePath(ctx, dir, next, depth+1)
			}
			if !errors.Is(err, errNotFound) {
				return p, true, err
			}
		}
		return "", true, errNotFound
	}
	return "", false, nil
}

func (r *nativeResolver) resolvePlain(ctx context.Context, dir, path string) (string, error) {
	spec, err := specifier.Parse(path)
	if err != nil {
		return "", errNotFound
	}
	switch spec.Kind {
	case specifier.KindRelative:
		return r.loadPath(ctx, filepath.Join(dir, spec.Path), spec.Directory)
	case specifier.KindAbsolute:
		return r.loadPath(ctx, filepath.Clean(spec.Path), spec.Directory)
	default:
		return r.loadModule(ctx, dir, spec)
	}
}

func (r *nativeResolver) loadModule(ctx context.Context, dir string, spec *specifier.Specifier) (string, error) {
	if r.preferRelative {
		p, err := r.loadPath(ctx, filepath.Join(dir, spec.Path), spec.Directory)
		if !errors.Is(err, errNotFound) {
			return p, err
		}
	}

	if r.links != nil {
		if root, ok := r.links.packages[spec.Package]; ok {
			p, err := r.loadPath(ctx, filepath.Join(root, spec.Subpath), spec.Directory)
			if !errors.Is(err, errNotFound) {
				return p, err
			}
		}
	}

	for _, modulesDir := range r.moduleDirs(dir) {
		ok, err := r.isDir(modulesDir)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		p, err := r.loadPath(ctx, filepath.Join(modulesDir, spec.Path), spec.Directory)
		if !errors.Is(err, errNotFound) {
			return p, err
		}
	}
	return "", errNotFound
}

// moduleDirs lists the directories searched for module requests from dir:
// each relative modules entry in dir and every ancestor, nearest first,
// followed by the absolute entries.
func (r *nativeResolver) moduleDirs(dir string) []string {
	var dirs []string
	for cur := dir; ; cur = filepath.Dir(cur) {
		for _, m := range r.modules {
			if filepath.IsAbs(m) || filepath.Base(cur) == m {
				continue
			}
			dirs = append(dirs, filepath.Join(cur, m))
		}
		if filepath.Dir(cur) == cur {
			break
		}
	}
	for _, m := range r.modules {
		if filepath.IsAbs(m) {
			dirs = append(dirs, filepath.Clean(m))
		}
	}
	return dirs
}

// loadPath resolves p as a file, then as a directory. With mustDir only the
// directory form is tried.
func (r *nativeResolver) loadPath(ctx context.Context, p string, mustDir bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	Logger().Debug("probe", zap.String("path", p))

	if r.toContext {
		ok, err := r.isDir(p)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errNotFound
		}
		return p, nil
	}

	if !mustDir {
		f, err := r.loadFile(p, r.fullySpecified)
		if !errors.Is(err, errNotFound) {
			return f, err
		}
	}
	return r.loadDir(p)
}

// loadFile tries p as-is, then with each extension unless exact is set.
func (r *nativeResolver) loadFile(p string, exact bool) (string, error) {
	ok, err := r.isFile(p)
	if err != nil {
		return "", err
	}
	if ok {
		return p, nil
	}
	if exact {
		return "", errNotFound
	}
	for _, ext := range r.extensions {
		ok, err := r.isFile(p + ext)
		if err != nil {
			return "", err
		}
		if ok {
			return p + ext, nil
		}
	}
	return "", errNotFound
}

// loadDir resolves a directory through its description file's main fields,
// then its main files.
func (r *nativeResolver) loadDir(p string) (string, error) {
	ok, err := r.isDir(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errNotFound
	}

	for _, name := range r.descriptionFiles {
		desc, err := r.readDescription(filepath.Join(p, name))
		if err != nil {
			return "", err
		}
		if desc == nil {
			continue
		}
		for _, field := range r.mainFields {
			entry := desc.mainEntry(field)
			if entry == "" {
				continue
			}
			target := filepath.Join(p, entry)
			f, err := r.loadFile(target, false)
			if !errors.Is(err, errNotFound) {
				return f, err
			}
			f, err = r.loadIndex(target)
			if !errors.Is(err, errNotFound) {
				return f, err
			}
		}
		break
	}
	return r.loadIndex(p)
}

func (r *nativeResolver) loadIndex(dir string) (string, error) {
	for _, name := range r.mainFiles {
		f, err := r.loadFile(filepath.Join(dir, name), false)
		if !errors.Is(err, errNotFound) {
			return f, err
		}
	}
	return "", errNotFound
}

func (r *nativeResolver) isFile(p string) (bool, error) {
	meta, err := r.fs.Metadata(p)
	if err != nil {
		return false, probeError(err)
	}
	return meta.IsFile, nil
}

func (r *nativeResolver) isDir(p string) (bool, error) {
	meta, err := r.fs.Metadata(p)
	if err != nil {
		return false, probeError(err)
	}
	return meta.IsDir, nil
}

// probeError drops errors that only rule a candidate out.
func probeError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist),
		errors.Is(err, rkfs.ErrNotDir),
		errors.Is(err, syscall.ENOTDIR),
		errors.Is(err, rkfs.ErrLoop),
		errors.Is(err, syscall.ELOOP):
		return nil
	}
	return err
}

// realpath expands every symlink in p, one component at a time.
func (r *nativeResolver) realpath(p string) (string, error) {
	vol := filepath.VolumeName(p)
	root := vol + string(filepath.Separator)
	parts := splitPath(p[len(vol):])

	cur := root
	hops := 0
	for i := 0; i < len(parts); i++ {
		next := filepath.Join(cur, parts[i])
		meta, err := r.fs.SymlinkMetadata(next)
		if err != nil {
			return "", err
		}
		if !meta.IsSymlink {
			cur = next
			continue
		}
		hops++
		if hops > maxLinkHops {
			return "", &bridge.IOError{Op: bridge.OpCanonicalize, Path: p, Err: errSymlinkHop}
		}
		target, err := r.fs.Canonicalize(next)
		if err != nil {
			return "", err
		}
		tvol := filepath.VolumeName(target)
		parts = append(splitPath(target[len(tvol):]), parts[i+1:]...)
		root = tvol + string(filepath.Separator)
		cur = root
		i = -1
	}
	return cur, nil
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			parts = append(parts, part)
		}
	}
	return parts
}
