/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseType(t *testing.T) {
	for _, name := range []string{"normal", "loader", "context", "css"} {
		got, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, Type(name), got)
	}

	_, err := ParseType("Normal")
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t,
		"invalid resolver type 'Normal' specified: supported types are 'normal', 'loader', 'context', 'css'",
		err.Error())
}

func TestRawOptions_Merge(t *testing.T) {
	base := RawOptions{
		Alias:      Aliases{"a": {"/a"}, "b": {"/b"}},
		Extensions: []string{".js"},
		Symlinks:   Bool(true),
	}
	override := RawOptions{
		Alias:      Aliases{"b": {"/b2"}},
		Extensions: []string{".ts"},
		Symlinks:   Bool(false),
	}

	merged := base.Merge(override)
	assert.Equal(t, Aliases{"a": {"/a"}, "b": {"/b2"}}, merged.Alias)
	assert.Equal(t, []string{".ts"}, merged.Extensions)
	assert.False(t, *merged.Symlinks)

	// Neither input is modified.
	assert.Equal(t, AliasTargets{"/b"}, base.Alias["b"])
	assert.True(t, *base.Symlinks)
	merged.Extensions[0] = ".mts"
	assert.Equal(t, []string{".ts"}, override.Extensions)
}

func TestRawOptions_MergeUnsetKeepsBase(t *testing.T) {
	merged := Defaults(TypeNormal).Merge(RawOptions{})
	assert.Equal(t, Defaults(TypeNormal), merged)
}

func TestRawOptions_ForCategory(t *testing.T) {
	opts := RawOptions{
		Extensions: []string{".js"},
		ByDependency: map[string]RawOptions{
			"esm":     {FullySpecified: Bool(true)},
			"url":     {Extensions: []string{".png"}},
			"default": {MainFiles: []string{"main"}},
		},
	}

	esm := opts.ForCategory("esm")
	assert.True(t, *esm.FullySpecified)
	assert.Equal(t, []string{".js"}, esm.Extensions)
	assert.Nil(t, esm.MainFiles)
	assert.Nil(t, esm.ByDependency)

	url := opts.ForCategory("url")
	assert.Equal(t, []string{".png"}, url.Extensions)

	other := opts.ForCategory("commonjs")
	assert.Equal(t, []string{"main"}, other.MainFiles)

	none := RawOptions{Extensions: []string{".js"}}.ForCategory("esm")
	assert.Equal(t, RawOptions{Extensions: []string{".js"}}, none)

	assert.Len(t, opts.ByDependency, 3, "ForCategory must not modify its receiver")
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		typ            Type
		extensions     []string
		mainFields     []string
		preferRelative bool
	}{
		{TypeNormal, []string{".js", ".json"}, []string{"module", "main"}, false},
		{TypeContext, []string{".js", ".json"}, []string{"module", "main"}, false},
		{TypeLoader, []string{".js"}, []string{"loader", "main"}, false},
		{TypeCSS, []string{".css"}, []string{"style", "main"}, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			d := Defaults(tt.typ)
			assert.Equal(t, tt.extensions, d.Extensions)
			assert.Equal(t, tt.mainFields, d.MainFields)
			assert.Equal(t, tt.preferRelative, *d.PreferRelative)
			assert.True(t, *d.Symlinks)
		})
	}
}

func TestAliasTargets_Decode(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var opts RawOptions
		err := json.Unmarshal([]byte(`{"alias": {"one": "/one", "many": ["/a", "/b"]}}`), &opts)
		require.NoError(t, err)
		assert.Equal(t, Aliases{"one": {"/one"}, "many": {"/a", "/b"}}, opts.Alias)

		err = json.Unmarshal([]byte(`{"alias": {"bad": 1}}`), &opts)
		assert.Error(t, err)
	})

	t.Run("yaml", func(t *testing.T) {
		var opts RawOptions
		src := "alias:\n  one: /one\n  many:\n    - /a\n    - /b\n"
		require.NoError(t, yaml.Unmarshal([]byte(src), &opts))
		assert.Equal(t, Aliases{"one": {"/one"}, "many": {"/a", "/b"}}, opts.Alias)

		err := yaml.Unmarshal([]byte("alias:\n  bad:\n    k: v\n"), &opts)
		assert.Error(t, err)
	})
}

func TestSortedAliases(t *testing.T) {
	entries := sortedAliases(Aliases{
		"a":      {"/1"},
		"a/b":    {"/2"},
		"a$":     {"/3"},
		"@scope": {"/4"},
	})
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
		if e.exact {
			names[i] += "$"
		}
	}
	assert.Equal(t, []string{"@scope", "a/b", "a$", "a"}, names)
}

func TestAliasEntry_Match(t *testing.T) {
	prefix := aliasEntry{name: "lib"}
	exact := aliasEntry{name: "lib", exact: true}

	tests := []struct {
		entry aliasEntry
		path  string
		rest  string
		ok    bool
	}{
		{prefix, "lib", "", true},
		{prefix, "lib/x/y", "/x/y", true},
		{prefix, "library", "", false},
		{exact, "lib", "", true},
		{exact, "lib/x", "", false},
	}
	for _, tt := range tests {
		rest, ok := tt.entry.match(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.rest, rest, tt.path)
	}
}
