/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package bridge

import (
	"context"
	"io/fs"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/resolvekit/deferred"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/internal/mapfs"
)

// minimalHost exposes only the required output methods plus Lstat and directory listing,
// so the bridge must derive mkdirp and rmrf itself.
type minimalHost struct {
	mfs *mapfs.MapFileSystem
}

func (h minimalHost) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return h.mfs.WriteFile(name, data, perm)
}
func (h minimalHost) Remove(name string) error                   { return h.mfs.Remove(name) }
func (h minimalHost) Mkdir(name string, perm fs.FileMode) error  { return h.mfs.Mkdir(name, perm) }
func (h minimalHost) Stat(name string) (fs.FileInfo, error)      { return h.mfs.Stat(name) }
func (h minimalHost) Lstat(name string) (fs.FileInfo, error)     { return h.mfs.Lstat(name) }
func (h minimalHost) ReadDir(name string) ([]fs.DirEntry, error) { return h.mfs.ReadDir(name) }

// asyncHost completes every mutation on a goroutine once release is closed.
type asyncHost struct {
	minimalHost
	release chan struct{}
	calls   atomic.Int32
}

func newAsyncHost(mfs *mapfs.MapFileSystem) *asyncHost {
	return &asyncHost{minimalHost: minimalHost{mfs}, release: make(chan struct{})}
}

func (h *asyncHost) later(fn func() error) *deferred.Result[struct{}] {
	h.calls.Add(1)
	return deferred.Go(func() (struct{}, error) {
		<-h.release
		return struct{}{}, fn()
	})
}

func (h *asyncHost) WriteFileAsync(name string, data []byte, perm fs.FileMode) *deferred.Result[struct{}] {
	return h.later(func() error { return h.mfs.WriteFile(name, data, perm) })
}

func (h *asyncHost) RemoveAsync(name string) *deferred.Result[struct{}] {
	return h.later(func() error { return h.mfs.Remove(name) })
}

func (h *asyncHost) MkdirAsync(name string, perm fs.FileMode) *deferred.Result[struct{}] {
	return h.later(func() error { return h.mfs.Mkdir(name, perm) })
}

func await[T any](t *testing.T, r *deferred.Result[T]) (T, error) {
	t.Helper()
	return r.Await(context.Background())
}

func TestWritable_MkdirpIdempotent(t *testing.T) {
	for _, derived := range []bool{false, true} {
		mfs := mapfs.New()
		var host rkfs.OutputFileSystem = mfs
		if derived {
			host = minimalHost{mfs}
		}
		w := NewWritable(host)

		first, err := await(t, w.Mkdirp()("/p/q/r"))
		require.NoError(t, err)
		assert.Equal(t, "/p", first)
		meta, err := NewReadable(mfs).Metadata("/p/q/r")
		require.NoError(t, err)
		assert.True(t, meta.IsDir)

		created := mfs.Mutations()
		first, err = await(t, w.Mkdirp()("/p/q/r"))
		require.NoError(t, err)
		assert.Empty(t, first)
		assert.Equal(t, created, mfs.Mutations(), "second mkdirp mutated the host")

		first, err = await(t, w.Mkdirp()("/p/q/s"))
		require.NoError(t, err)
		assert.Equal(t, "/p/q/s", first)
	}
}

func TestWritable_MkdirpThroughFile(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/p/file", "x", 0o644)
	w := NewWritable(mfs)

	_, err := await(t, w.Mkdirp()("/p/file"))
	require.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, rkfs.ErrNotDir)
}

func TestWritable_RemoveDirAllMissingTwice(t *testing.T) {
	for _, derived := range []bool{false, true} {
		mfs := mapfs.New()
		var host rkfs.OutputFileSystem = mfs
		if derived {
			host = minimalHost{mfs}
		}
		w := NewWritable(host)

		for range 2 {
			got, err := await(t, w.RemoveDirAll()("/nope"))
			require.NoError(t, err)
			assert.Empty(t, got)
		}
	}
}

func TestWritable_RemoveDirAllTree(t *testing.T) {
	for _, derived := range []bool{false, true} {
		mfs := mapfs.New()
		mfs.AddFile("/dist/js/a.js", "a", 0o644)
		mfs.AddFile("/dist/b.js", "b", 0o644)
		mfs.AddSymlink("/elsewhere", "/dist/link")
		mfs.AddFile("/elsewhere/keep", "k", 0o644)
		var host rkfs.OutputFileSystem = mfs
		if derived {
			host = minimalHost{mfs}
		}

		_, err := await(t, NewWritable(host).RemoveDirAll()("/dist"))
		require.NoError(t, err)
		assert.False(t, mfs.Exists("/dist"))
		assert.True(t, mfs.Exists("/elsewhere/keep"), "removal followed a symlink")
	}
}

func TestWritable_WriteRemoveLeavesParent(t *testing.T) {
	mfs := mapfs.New()
	w := NewWritable(mfs)

	_, err := await(t, w.Mkdir()("/out"))
	require.NoError(t, err)
	_, err = await(t, w.WriteFile()("/out/a.txt", []byte("hi")))
	require.NoError(t, err)

	data, err := NewReadable(mfs).ReadToBuffer("/out/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	_, err = await(t, w.RemoveFile()("/out/a.txt"))
	require.NoError(t, err)

	meta, err := NewReadable(mfs).Metadata("/out")
	require.NoError(t, err)
	assert.True(t, meta.IsDir)
	entries, err := mfs.ReadDir("/out")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWritable_HostErrors(t *testing.T) {
	w := NewWritable(mapfs.New())

	_, err := await(t, w.WriteFile()("/missing/a.txt", []byte("x")))
	require.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, OpWrite, ioErr.Op)

	_, err = await(t, w.Mkdir()("/a/b"))
	assert.True(t, NotExist(err), "Mkdir() with missing parent error = %v", err)

	_, err = await(t, w.RemoveFile()("/gone"))
	assert.True(t, NotExist(err), "RemoveFile() on missing error = %v", err)
}

func TestWritable_Memoized(t *testing.T) {
	w := NewWritable(mapfs.New()).(*backedWritable)
	assert.Zero(t, w.bindings.Load(), "capabilities bound before first access")

	ptr := func(fn any) uintptr { return reflect.ValueOf(fn).Pointer() }

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.WriteFile()
			_ = w.Mkdirp()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), w.bindings.Load())

	assert.Equal(t, ptr(w.WriteFile()), ptr(w.WriteFile()))
	assert.Equal(t, ptr(w.RemoveFile()), ptr(w.RemoveFile()))
	assert.Equal(t, ptr(w.Mkdir()), ptr(w.Mkdir()))
	assert.Equal(t, ptr(w.Mkdirp()), ptr(w.Mkdirp()))
	assert.Equal(t, ptr(w.RemoveDirAll()), ptr(w.RemoveDirAll()))
	assert.Equal(t, int32(5), w.bindings.Load())
}

func TestWritable_AsyncHost(t *testing.T) {
	mfs := mapfs.New()
	host := newAsyncHost(mfs)
	w := NewWritable(host)

	mk := w.Mkdir()("/out")
	assert.False(t, mk.Ready(), "async mkdir settled before the host released it")
	close(host.release)

	_, err := await(t, mk)
	require.NoError(t, err)
	_, err = await(t, w.WriteFile()("/out/a.txt", []byte("hi")))
	require.NoError(t, err)
	_, err = await(t, w.RemoveFile()("/out/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), host.calls.Load())

	_, err = await(t, w.WriteFile()("/nope/a.txt", nil))
	require.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	first, err := await(t, w.Mkdirp()("/out/x/y"))
	require.NoError(t, err)
	assert.Equal(t, "/out/x", first)
}

func TestWritable_Inert(t *testing.T) {
	mfs := mapfs.New()
	w := NewWritable(nil)
	assert.Equal(t, InertWritable, w)

	ops := []*deferred.Result[struct{}]{
		w.WriteFile()("/out/a.txt", []byte("x")),
		w.RemoveFile()("/out/a.txt"),
		w.Mkdir()("/out"),
	}
	for _, op := range ops {
		assert.True(t, op.Ready())
		_, err := await(t, op)
		assert.NoError(t, err)
	}
	for _, op := range []*deferred.Result[string]{w.Mkdirp()("/out/deep"), w.RemoveDirAll()("/out")} {
		got, err := await(t, op)
		assert.NoError(t, err)
		assert.Empty(t, got)
	}

	assert.Zero(t, mfs.Mutations())
	assert.False(t, mfs.Exists("/out"))
}
