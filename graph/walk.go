/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/engine"
	"bennypowers.dev/resolvekit/resolver"
	"bennypowers.dev/resolvekit/scan"
)

// Walker builds a module graph by resolving entries, scanning each resolved
// file for imports, and resolving those in turn.
type Walker struct {
	factory *resolver.Factory
	fs      bridge.Readable
	options resolver.Options

	mu        sync.Mutex
	resolvers map[[2]string]*resolver.Resolver
}

// NewWalker creates a Walker. Files are read through fs, which should be the
// bridge factory reads through. opts is the base options bag; each import
// overrides its dependency category.
func NewWalker(factory *resolver.Factory, fs bridge.Readable, opts resolver.Options) *Walker {
	if fs == nil {
		fs = bridge.Inert
	}
	return &Walker{
		factory:   factory,
		fs:        fs,
		options:   opts,
		resolvers: map[[2]string]*resolver.Resolver{},
	}
}

// Walk resolves requests from dir and follows their imports until no new
// module is found. An import that cannot be resolved fails the walk.
func (w *Walker) Walk(ctx context.Context, dir string, requests []string) (*Graph, error) {
	entry, err := w.factory.Get(string(engine.TypeNormal), w.options)
	if err != nil {
		return nil, err
	}
	results, err := entry.ResolveAll(ctx, dir, requests)
	if err != nil {
		return nil, err
	}

	g := New()
	var frontier []string
	for _, res := range results {
		if g.AddNode(res.Path) {
			frontier = append(frontier, res.Path)
		}
		g.AddEntry(res.Path)
	}

	for len(frontier) > 0 {
		var mu sync.Mutex
		var next []string

		eg, ectx := errgroup.WithContext(ctx)
		eg.SetLimit(engine.DefaultConcurrency)
		for _, file := range frontier {
			eg.Go(func() error {
				edges, err := w.visit(ectx, file)
				if err != nil {
					return err
				}
				for _, e := range edges {
					fresh := g.AddNode(e.To)
					g.AddEdge(e)
					if fresh {
						mu.Lock()
						next = append(next, e.To)
						mu.Unlock()
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}

		slices.Sort(next)
		frontier = next
	}

	return g, nil
}

// visit scans one module and resolves its imports.
func (w *Walker) visit(ctx context.Context, file string) ([]Edge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang, ok := scan.LanguageFor(file)
	if !ok {
		return nil, nil
	}
	src, err := w.fs.ReadToBuffer(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	imports, err := scan.Scan(lang, src)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", file, err)
	}
	engine.Logger().Debug("scanned module",
		zap.String("path", file),
		zap.Int("imports", len(imports)))

	edges := make([]Edge, 0, len(imports))
	for _, imp := range imports {
		res, err := w.ResolveImport(ctx, file, imp)
		if err != nil {
			return nil, fmt.Errorf("%s:%d:%d: %w", file, imp.Range.Start.Line+1, imp.Range.Start.Column+1, err)
		}
		edges = append(edges, Edge{From: file, To: res.Path, Request: imp.Request, Category: imp.Category})
	}
	return edges, nil
}

// ResolveImport resolves one import of file from the file's directory, with
// the resolver type and dependency category the import's syntax implies.
func (w *Walker) ResolveImport(ctx context.Context, file string, imp scan.Import) (*resolver.Result, error) {
	r, err := w.resolverFor(imp.Category)
	if err != nil {
		return nil, err
	}
	return r.Resolve(ctx, filepath.Dir(file), imp.Request)
}

// TypeFor returns the resolver type used for imports of the given category.
func TypeFor(category string) string {
	if category == scan.CategoryCSSImport {
		return string(engine.TypeCSS)
	}
	return string(engine.TypeNormal)
}

func (w *Walker) resolverFor(category string) (*resolver.Resolver, error) {
	typ := TypeFor(category)
	key := [2]string{typ, category}

	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.resolvers[key]; ok {
		return r, nil
	}
	opts := w.options
	opts.DependencyCategory = category
	r, err := w.factory.Get(typ, opts)
	if err != nil {
		return nil, err
	}
	w.resolvers[key] = r
	return r, nil
}
