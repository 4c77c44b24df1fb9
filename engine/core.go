/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package engine is the resolution and output core.
//
// Core builds configured resolvers from a resolver type, raw options and the
// call-site modifiers, caching one native resolver per distinct
// configuration. All filesystem access goes through the bridge the Core was
// built with. Emitter writes build output through a writable bridge.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bennypowers.dev/resolvekit/bridge"
)

// Request carries everything needed to obtain a resolver.
type Request struct {
	// Type is the resolver type name, validated by the engine.
	Type string

	// Options is the base configuration, free of call-site modifiers.
	Options RawOptions

	// DependencyCategory selects the byDependency entry merged over Options.
	DependencyCategory string

	// ResolveToContext makes the resolver yield directories. The context type forces it.
	ResolveToContext *bool

	// ContextPath is where the closest link manifest is searched from. Empty disables links.
	ContextPath string
}

// Result is a located request.
type Result struct {
	// Path is the absolute filesystem path the request resolved to.
	Path string `json:"path"`

	// Query is the request's query string including "?", if any.
	Query string `json:"query,omitempty"`

	// Fragment is the request's fragment including "#", if any.
	Fragment string `json:"fragment,omitempty"`
}

// String returns the path followed by query and fragment.
func (r *Result) String() string {
	return r.Path + r.Query + r.Fragment
}

// Handle is a configured resolver.
type Handle interface {
	// Resolve locates request as issued from the directory dir.
	Resolve(ctx context.Context, dir, request string) (*Result, error)
}

// DefaultConcurrency bounds parallel work in ResolveAll and Emitter.
const DefaultConcurrency = 8

// ResolveAll resolves every request from dir concurrently and returns the
// results in request order. The first failure cancels the remaining work.
func ResolveAll(ctx context.Context, h Handle, dir string, requests []string) ([]*Result, error) {
	results := make([]*Result, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, request := range requests {
		g.Go(func() error {
			res, err := h.Resolve(gctx, dir, request)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Core creates and caches native resolvers. It is safe for concurrent use.
type Core struct {
	fs bridge.Readable

	mu        sync.Mutex
	resolvers map[string]*nativeResolver
	manifests map[string]string
}

// NewCore creates a Core reading through fs. A nil fs gives the inert bridge.
func NewCore(fs bridge.Readable) *Core {
	if fs == nil {
		fs = bridge.Inert
	}
	return &Core{fs: fs, resolvers: map[string]*nativeResolver{}, manifests: map[string]string{}}
}

// Get returns the resolver for req, building it on first use.
func (c *Core) Get(req Request) (Handle, error) {
	t, err := ParseType(req.Type)
	if err != nil {
		return nil, err
	}
	toContext := t == TypeContext || (req.ResolveToContext != nil && *req.ResolveToContext)

	manifest := ""
	if req.ContextPath != "" {
		manifest = c.linkManifest(req.ContextPath)
	}

	key, err := json.Marshal(struct {
		Type      Type       `json:"type"`
		Options   RawOptions `json:"options"`
		Category  string     `json:"category"`
		ToContext bool       `json:"toContext"`
		Manifest  string     `json:"manifest"`
	}{t, req.Options, req.DependencyCategory, toContext, manifest})
	if err != nil {
		return nil, &ConfigurationError{Type: req.Type, Detail: fmt.Sprintf("options are not serializable: %v", err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resolvers[string(key)]; ok {
		return r, nil
	}

	opts := Defaults(t).Merge(req.Options.ForCategory(req.DependencyCategory))
	r := newNativeResolver(c.fs, t, req.DependencyCategory, toContext, opts)
	if manifest != "" {
		links, err := loadLinkManifest(c.fs, manifest)
		if err != nil {
			Logger().Warn("ignoring link manifest", zap.String("path", manifest), zap.Error(err))
		} else {
			r.links = links
		}
	}
	c.resolvers[string(key)] = r

	Logger().Debug("created resolver",
		zap.String("type", string(t)),
		zap.String("category", req.DependencyCategory),
		zap.Bool("toContext", toContext),
		zap.String("manifest", manifest))
	return r, nil
}

// linkManifest returns the closest link manifest for dir, searching the
// host once per directory for the lifetime of the Core.
func (c *Core) linkManifest(dir string) string {
	dir = filepath.Clean(dir)
	c.mu.Lock()
	m, ok := c.manifests[dir]
	c.mu.Unlock()
	if ok {
		return m
	}

	m = findLinkManifest(c.fs, dir)
	c.mu.Lock()
	c.manifests[dir] = m
	c.mu.Unlock()
	return m
}

// Len reports how many distinct resolvers have been built.
func (c *Core) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.resolvers)
}
