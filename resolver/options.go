/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"bennypowers.dev/resolvekit/engine"
)

// Options is the resolve configuration a caller hands to Factory.Get.
//
// The embedded engine.RawOptions is the base configuration. DependencyCategory
// and ResolveToContext are call-site modifiers: they select a byDependency
// entry and the directory-yielding mode, and are never part of the options the
// engine receives.
type Options struct {
	engine.RawOptions `yaml:",inline"`

	// DependencyCategory names the kind of dependency being resolved, such as "esm" or "url".
	DependencyCategory string `json:"dependencyCategory,omitempty" yaml:"dependencyCategory,omitempty"`

	// ResolveToContext makes the resolver yield directories instead of files.
	ResolveToContext *bool `json:"resolveToContext,omitempty" yaml:"resolveToContext,omitempty"`
}

// split copies o and separates the base options from the modifiers.
func (o Options) split() (engine.RawOptions, string, *bool) {
	var toContext *bool
	if o.ResolveToContext != nil {
		toContext = engine.Bool(*o.ResolveToContext)
	}
	return o.RawOptions.Clone(), o.DependencyCategory, toContext
}
