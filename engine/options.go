/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type names a resolver flavour.
type Type string

const (
	// TypeNormal resolves module requests issued by source files.
	TypeNormal Type = "normal"
	// TypeLoader resolves loader requests.
	TypeLoader Type = "loader"
	// TypeContext resolves requests to directories.
	TypeContext Type = "context"
	// TypeCSS resolves stylesheet imports, where bare requests are tried as relative paths first.
	TypeCSS Type = "css"
)

// Types lists every resolver type the engine accepts.
var Types = []Type{TypeNormal, TypeLoader, TypeContext, TypeCSS}

// ParseType validates a resolver type name.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if slices.Contains(Types, t) {
		return t, nil
	}
	quoted := make([]string, len(Types))
	for i, t := range Types {
		quoted[i] = "'" + string(t) + "'"
	}
	return "", &ConfigurationError{
		Type:   s,
		Detail: "supported types are " + strings.Join(quoted, ", "),
	}
}

// AliasTargets is the replacement list for one alias key. It decodes from
// either a single string or a list of strings.
type AliasTargets []string

// UnmarshalJSON implements json.Unmarshaler.
func (a *AliasTargets) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = AliasTargets{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("alias target must be a string or a list of strings: %w", err)
	}
	*a = many
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *AliasTargets) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*a = AliasTargets{value.Value}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*a = many
		return nil
	default:
		return fmt.Errorf("line %d: alias target must be a string or a list of strings", value.Line)
	}
}

// Aliases maps a request prefix to its replacements. A key ending in "$"
// matches the request exactly; any other key matches the request itself or
// the request followed by "/".
type Aliases map[string]AliasTargets

// RawOptions is the resolution configuration the engine receives. Unset
// fields take the resolver type's defaults.
//
// Call-site modifiers (dependency category, resolve-to-context) are not part
// of RawOptions; they travel beside it in Request.
type RawOptions struct {
	Alias            Aliases               `json:"alias,omitempty" yaml:"alias,omitempty"`
	Fallback         Aliases               `json:"fallback,omitempty" yaml:"fallback,omitempty"`
	Extensions       []string              `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	MainFiles        []string              `json:"mainFiles,omitempty" yaml:"mainFiles,omitempty"`
	MainFields       []string              `json:"mainFields,omitempty" yaml:"mainFields,omitempty"`
	DescriptionFiles []string              `json:"descriptionFiles,omitempty" yaml:"descriptionFiles,omitempty"`
	Modules          []string              `json:"modules,omitempty" yaml:"modules,omitempty"`
	Symlinks         *bool                 `json:"symlinks,omitempty" yaml:"symlinks,omitempty"`
	PreferRelative   *bool                 `json:"preferRelative,omitempty" yaml:"preferRelative,omitempty"`
	FullySpecified   *bool                 `json:"fullySpecified,omitempty" yaml:"fullySpecified,omitempty"`
	ByDependency     map[string]RawOptions `json:"byDependency,omitempty" yaml:"byDependency,omitempty"`
}

// Clone returns a deep copy of o.
func (o RawOptions) Clone() RawOptions {
	out := RawOptions{
		Alias:            cloneAliases(o.Alias),
		Fallback:         cloneAliases(o.Fallback),
		Extensions:       slices.Clone(o.Extensions),
		MainFiles:        slices.Clone(o.MainFiles),
		MainFields:       slices.Clone(o.MainFields),
		DescriptionFiles: slices.Clone(o.DescriptionFiles),
		Modules:          slices.Clone(o.Modules),
		Symlinks:         cloneBool(o.Symlinks),
		PreferRelative:   cloneBool(o.PreferRelative),
		FullySpecified:   cloneBool(o.FullySpecified),
	}
	if o.ByDependency != nil {
		out.ByDependency = make(map[string]RawOptions, len(o.ByDependency))
		for k, v := range o.ByDependency {
			out.ByDependency[k] = v.Clone()
		}
	}
	return out
}

// Merge returns o with every field set in override applied on top.
// Alias and fallback maps merge per key; lists and flags replace.
func (o RawOptions) Merge(override RawOptions) RawOptions {
	out := o.Clone()
	out.Alias = mergeAliases(out.Alias, override.Alias)
	out.Fallback = mergeAliases(out.Fallback, override.Fallback)
	if override.Extensions != nil {
		out.Extensions = slices.Clone(override.Extensions)
	}
	if override.MainFiles != nil {
		out.MainFiles = slices.Clone(override.MainFiles)
	}
	if override.MainFields != nil {
		out.MainFields = slices.Clone(override.MainFields)
	}
	if override.DescriptionFiles != nil {
		out.DescriptionFiles = slices.Clone(override.DescriptionFiles)
	}
	if override.Modules != nil {
		out.Modules = slices.Clone(override.Modules)
	}
	if override.Symlinks != nil {
		out.Symlinks = cloneBool(override.Symlinks)
	}
	if override.PreferRelative != nil {
		out.PreferRelative = cloneBool(override.PreferRelative)
	}
	if override.FullySpecified != nil {
		out.FullySpecified = cloneBool(override.FullySpecified)
	}
	for k, v := range override.ByDependency {
		if out.ByDependency == nil {
			out.ByDependency = map[string]RawOptions{}
		}
		out.ByDependency[k] = v.Clone()
	}
	return out
}

// ForCategory returns o with the byDependency entry for category merged in.
// When category has no entry, the "default" entry applies if present.
// The result carries no byDependency map.
func (o RawOptions) ForCategory(category string) RawOptions {
	scoped, ok := o.ByDependency[category]
	if !ok {
		scoped, ok = o.ByDependency["default"]
	}
	base := o.Clone()
	base.ByDependency = nil
	if !ok {
		return base
	}
	scoped.ByDependency = nil
	return base.Merge(scoped)
}

// Defaults returns the options a resolver type starts from.
func Defaults(t Type) RawOptions {
	base := RawOptions{
		Extensions:       []string{".js", ".json"},
		MainFiles:        []string{"index"},
		MainFields:       []string{"module", "main"},
		DescriptionFiles: []string{"package.json"},
		Modules:          []string{"node_modules"},
		Symlinks:         Bool(true),
		PreferRelative:   Bool(false),
		FullySpecified:   Bool(false),
	}
	switch t {
	case TypeLoader:
		base.Extensions = []string{".js"}
		base.MainFields = []string{"loader", "main"}
	case TypeCSS:
		base.Extensions = []string{".css"}
		base.MainFields = []string{"style", "main"}
		base.PreferRelative = Bool(true)
	}
	return base
}

// Bool returns a pointer to b, for optional flags.
func Bool(b bool) *bool {
	return &b
}

type aliasEntry struct {
	name    string
	exact   bool
	targets []string
}

// sortedAliases orders alias keys longest first so the most specific key
// wins, then lexically for determinism.
func sortedAliases(a Aliases) []aliasEntry {
	entries := make([]aliasEntry, 0, len(a))
	for key, targets := range a {
		name, exact := strings.CutSuffix(key, "$")
		entries = append(entries, aliasEntry{name: name, exact: exact, targets: slices.Clone(targets)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if len(entries[i].name) != len(entries[j].name) {
			return len(entries[i].name) > len(entries[j].name)
		}
		if entries[i].name != entries[j].name {
			return entries[i].name < entries[j].name
		}
		return entries[i].exact && !entries[j].exact
	})
	return entries
}

// match reports whether the alias applies to path and returns the remainder
// to append to each target.
func (a aliasEntry) match(path string) (string, bool) {
	if path == a.name {
		return "", true
	}
	if a.exact {
		return "", false
	}
	if rest, ok := strings.CutPrefix(path, a.name+"/"); ok {
		return "/" + rest, true
	}
	return "", false
}

func cloneAliases(a Aliases) Aliases {
	if a == nil {
		return nil
	}
	out := make(Aliases, len(a))
	for k, v := range a {
		out[k] = slices.Clone(v)
	}
	return out
}

func mergeAliases(base, override Aliases) Aliases {
	if override == nil {
		return base
	}
	out := cloneAliases(base)
	if out == nil {
		out = make(Aliases, len(override))
	}
	maps.Copy(out, cloneAliases(override))
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
