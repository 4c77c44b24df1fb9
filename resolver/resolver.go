/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver is the caller-facing entry point for module resolution.
//
// A Factory hands out Resolvers for a resolver type and an options bag. The
// factory reads the filesystem only through the readable bridge it was built
// with; a factory built without one still produces resolvers, which fail every
// request with a ResolutionError.
package resolver

import (
	"context"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/engine"
)

type (
	// Result is a resolved request.
	Result = engine.Result

	// ConfigurationError reports an unknown resolver type.
	ConfigurationError = engine.ConfigurationError

	// ResolutionError reports a request that could not be located.
	ResolutionError = engine.ResolutionError
)

// Core produces configured resolvers. *engine.Core implements it.
type Core interface {
	Get(req engine.Request) (engine.Handle, error)
}

// Factory creates Resolvers. It is safe for concurrent use.
type Factory struct {
	core        Core
	contextPath string
}

// NewFactory creates a Factory reading through fs. A nil fs gives a factory
// whose resolvers perform no I/O.
func NewFactory(fs bridge.Readable) *Factory {
	return NewFactoryWithContext(fs, "")
}

// NewFactoryWithContext creates a Factory whose resolvers use the link
// manifest closest to contextPath.
func NewFactoryWithContext(fs bridge.Readable, contextPath string) *Factory {
	return NewFactoryWithCore(engine.NewCore(fs), contextPath)
}

// NewFactoryWithCore creates a Factory over an existing core.
func NewFactoryWithCore(core Core, contextPath string) *Factory {
	return &Factory{core: core, contextPath: contextPath}
}

// Get returns a Resolver of the given type. The caller's options are copied
// and never modified. An unknown type fails with a *ConfigurationError.
func (f *Factory) Get(typ string, opts Options) (*Resolver, error) {
	raw, category, toContext := opts.split()
	h, err := f.core.Get(engine.Request{
		Type:               typ,
		Options:            raw,
		DependencyCategory: category,
		ResolveToContext:   toContext,
		ContextPath:        f.contextPath,
	})
	if err != nil {
		return nil, err
	}
	return &Resolver{typ: typ, handle: h}, nil
}

// Resolver resolves requests with one fixed configuration. It holds no state
// between calls and may be used concurrently.
type Resolver struct {
	typ    string
	handle engine.Handle
}

// Type returns the resolver type the Resolver was created with.
func (r *Resolver) Type() string {
	return r.typ
}

// Resolve locates request as issued from the directory dir.
// A miss fails with a *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, dir, request string) (*Result, error) {
	return r.handle.Resolve(ctx, dir, request)
}

// ResolveAll resolves requests concurrently and returns results in request order.
func (r *Resolver) ResolveAll(ctx context.Context, dir string, requests []string) ([]*Result, error) {
	return engine.ResolveAll(ctx, r.handle, dir, requests)
}
