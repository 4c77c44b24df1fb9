/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package bridge

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/internal/mapfs"
	"bennypowers.dev/resolvekit/testutil"
)

func newLinkedFS(t *testing.T) *mapfs.MapFileSystem {
	t.Helper()
	return testutil.NewFixtureFS(t, "fixtures/links", "/")
}

func TestReadable_ReadToBuffer(t *testing.T) {
	r := NewReadable(newLinkedFS(t))

	data, err := r.ReadToBuffer("/a/c/x")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = r.ReadToBuffer("/a/nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, NotExist(err))

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, OpRead, ioErr.Op)
	assert.Equal(t, "/a/nope", ioErr.Path)
}

func TestReadable_SymlinkMetadata(t *testing.T) {
	r := NewReadable(newLinkedFS(t))

	tests := []struct {
		name        string
		path        string
		wantLink    FileMetadata
		wantTarget  FileMetadata
		targetFails bool
	}{
		{
			name:       "file link",
			path:       "/a/c/x",
			wantLink:   FileMetadata{IsSymlink: true},
			wantTarget: FileMetadata{IsFile: true},
		},
		{
			name:       "directory link",
			path:       "/a/dir-link",
			wantLink:   FileMetadata{IsSymlink: true},
			wantTarget: FileMetadata{IsDir: true},
		},
		{
			name:        "broken link",
			path:        "/a/broken",
			wantLink:    FileMetadata{IsSymlink: true},
			targetFails: true,
		},
		{
			name:       "plain file",
			path:       "/a/b/y",
			wantLink:   FileMetadata{IsFile: true},
			wantTarget: FileMetadata{IsFile: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := r.SymlinkMetadata(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLink, link)

			target, err := r.Metadata(tt.path)
			if tt.targetFails {
				assert.True(t, NotExist(err), "Metadata() error = %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTarget, target)
		})
	}
}

func TestReadable_Canonicalize(t *testing.T) {
	r := NewReadable(newLinkedFS(t))

	t.Run("relative target joins link directory", func(t *testing.T) {
		got, err := r.Canonicalize("/a/c/x")
		require.NoError(t, err)
		assert.Equal(t, "/a/b/y", got)
	})

	t.Run("absolute target", func(t *testing.T) {
		got, err := r.Canonicalize("/a/dir-link")
		require.NoError(t, err)
		assert.Equal(t, "/a/b", got)
	})

	t.Run("broken link still canonicalizes", func(t *testing.T) {
		got, err := r.Canonicalize("/a/broken")
		require.NoError(t, err)
		assert.Equal(t, "/missing", got)
	})

	t.Run("not a symlink", func(t *testing.T) {
		_, err := r.Canonicalize("/a/b/y")
		require.ErrorIs(t, err, ErrIO)
		assert.ErrorIs(t, err, rkfs.ErrNotSymlink)
	})
}

func TestReadable_OS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "c"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "y"), []byte("disk"), 0o644))
	link := filepath.Join(dir, "c", "x")
	if err := os.Symlink(filepath.Join("..", "b", "y"), link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	r := NewReadable(rkfs.NewOSFileSystem())

	meta, err := r.SymlinkMetadata(link)
	require.NoError(t, err)
	assert.True(t, meta.IsSymlink)
	assert.False(t, meta.IsFile)

	meta, err = r.Metadata(link)
	require.NoError(t, err)
	assert.True(t, meta.IsFile)

	got, err := r.Canonicalize(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b", "y"), got)

	data, err := r.ReadToBuffer(got)
	require.NoError(t, err)
	assert.Equal(t, "disk", string(data))

	t.Run("relative link path stays relative", func(t *testing.T) {
		t.Chdir(dir)
		got, err := r.Canonicalize(filepath.Join("c", "x"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("b", "y"), got)
	})
}

func TestReadable_Inert(t *testing.T) {
	r := NewReadable(nil)
	assert.True(t, IsInert(r))
	assert.False(t, IsInert(NewReadable(mapfs.New())))

	data, err := r.ReadToBuffer("/anything")
	assert.NoError(t, err)
	assert.Empty(t, data)

	meta, err := r.Metadata("/anything")
	assert.NoError(t, err)
	assert.Equal(t, FileMetadata{}, meta)

	meta, err = r.SymlinkMetadata("/anything")
	assert.NoError(t, err)
	assert.Equal(t, FileMetadata{}, meta)

	target, err := r.Canonicalize("/anything")
	assert.NoError(t, err)
	assert.Empty(t, target)
}

func TestIOError_NoDoubleWrap(t *testing.T) {
	inner := &IOError{Op: OpRead, Path: "/x", Err: fs.ErrNotExist}
	got := wrap(OpWrite, "/y", inner)
	assert.Same(t, inner, got)
	assert.Nil(t, wrap(OpWrite, "/y", nil))
	assert.True(t, errors.Is(got, ErrIO))
	assert.Contains(t, got.Error(), `read "/x" failed`)
}
