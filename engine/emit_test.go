/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/internal/mapfs"
)

func TestEmit_CleanAndNested(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/dist/stale.js", "old", 0o644)

	e := NewEmitter(bridge.NewWritable(mfs))
	stats, err := e.Emit(context.Background(), Output{Path: "/dist", Clean: true}, []Asset{
		{Name: "main.js", Data: []byte("main")},
		{Name: "chunks/a.js", Data: []byte("a")},
		{Name: "chunks/deep/b.js", Data: []byte("b")},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/dist/main.js", "/dist/chunks/a.js", "/dist/chunks/deep/b.js"}, stats.Written)
	assert.Equal(t, []string{"/dist", "/dist/chunks", "/dist/chunks/deep"}, stats.Created)

	for path, want := range map[string]string{
		"/dist/main.js":          "main",
		"/dist/chunks/a.js":      "a",
		"/dist/chunks/deep/b.js": "b",
	} {
		data, err := mfs.ReadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, string(data), path)
	}
	assert.False(t, mfs.Exists("/dist/stale.js"))
}

func TestEmit_ExistingOutput(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/dist/keep.js", "keep", 0o644)

	e := NewEmitter(bridge.NewWritable(mfs))
	stats, err := e.Emit(context.Background(), Output{Path: "/dist"}, []Asset{
		{Name: "main.js", Data: []byte("main")},
	})
	require.NoError(t, err)
	assert.Empty(t, stats.Created)
	assert.True(t, mfs.Exists("/dist/keep.js"))
}

func TestEmit_InvalidAsset(t *testing.T) {
	for _, name := range []string{"", "/abs.js", "../escape.js", "a/../../escape.js", "."} {
		t.Run(name, func(t *testing.T) {
			mfs := mapfs.New()
			before := mfs.Mutations()

			_, err := NewEmitter(bridge.NewWritable(mfs)).Emit(context.Background(), Output{Path: "/dist", Clean: true}, []Asset{
				{Name: "ok.js"},
				{Name: name},
			})
			require.ErrorIs(t, err, ErrInvalidAsset)
			assert.Equal(t, before, mfs.Mutations())
		})
	}
}

func TestEmit_HostError(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/out", "not a directory", 0o644)

	_, err := NewEmitter(bridge.NewWritable(mfs)).Emit(context.Background(), Output{Path: "/out"}, []Asset{
		{Name: "main.js", Data: []byte("main")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, bridge.ErrIO)
}

func TestEmit_Inert(t *testing.T) {
	e := NewEmitter(nil)
	stats, err := e.Emit(context.Background(), Output{Path: "/dist", Clean: true}, []Asset{
		{Name: "main.js", Data: []byte("main")},
		{Name: "chunks/a.js", Data: []byte("a")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dist/main.js", "/dist/chunks/a.js"}, stats.Written)
	assert.Empty(t, stats.Created)
}
