/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/resolvekit/bridge"
)

// ErrInvalidAsset is returned for an asset name that is absolute or escapes
// the output directory.
var ErrInvalidAsset = errors.New("invalid asset name")

// Output describes where assets are written.
type Output struct {
	// Path is the output directory.
	Path string

	// Clean removes the output directory before writing.
	Clean bool
}

// Asset is one file to emit. Name is slash-separated and relative to Output.Path.
type Asset struct {
	Name string
	Data []byte
}

// EmitStats summarizes an Emit call.
type EmitStats struct {
	// Written lists the absolute paths written, in asset order.
	Written []string

	// Created lists the first directory each mkdirp created, skipping no-ops.
	Created []string
}

// Emitter writes assets through a writable bridge.
type Emitter struct {
	fs    bridge.Writable
	limit int
}

// NewEmitter creates an Emitter. A nil bridge gives the inert bridge, for
// child compilations whose output is discarded.
func NewEmitter(fs bridge.Writable) *Emitter {
	if fs == nil {
		fs = bridge.InertWritable
	}
	return &Emitter{fs: fs, limit: DefaultConcurrency}
}

// Emit writes assets under out.Path. Directories are created before any file
// inside them is written; files are then written concurrently.
func (e *Emitter) Emit(ctx context.Context, out Output, assets []Asset) (*EmitStats, error) {
	root := filepath.Clean(out.Path)
	targets := make([]string, len(assets))
	for i, a := range assets {
		target, err := assetPath(root, a.Name)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	stats := &EmitStats{}
	if out.Clean {
		if _, err := e.fs.RemoveDirAll()(root).Await(ctx); err != nil {
			return nil, err
		}
		Logger().Debug("cleaned output", zap.String("path", root))
	}

	dirs := []string{root}
	for _, t := range targets {
		dirs = append(dirs, filepath.Dir(t))
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	mkdirp := e.fs.Mkdirp()
	for _, dir := range dirs {
		first, err := mkdirp(dir).Await(ctx)
		if err != nil {
			return nil, err
		}
		if first != "" {
			stats.Created = append(stats.Created, first)
		}
	}

	write := e.fs.WriteFile()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i, a := range assets {
		g.Go(func() error {
			_, err := write(targets[i], a.Data).Await(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Written = targets
	Logger().Debug("emitted assets", zap.String("path", root), zap.Int("count", len(assets)))
	return stats, nil
}

func assetPath(root, name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAsset, name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAsset, name)
	}
	return filepath.Join(root, clean), nil
}
