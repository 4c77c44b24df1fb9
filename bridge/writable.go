/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package bridge

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"sync/atomic"

	"bennypowers.dev/resolvekit/deferred"
	rkfs "bennypowers.dev/resolvekit/fs"
)

// Capability signatures handed to the emitter.
type (
	// WriteFileFunc creates or truncates path with data.
	WriteFileFunc func(path string, data []byte) *deferred.Result[struct{}]

	// PathFunc performs a single-path mutation.
	PathFunc func(path string) *deferred.Result[struct{}]

	// TreeFunc performs a recursive mutation. The settled string is the first
	// directory created, or "" when the host reported none.
	TreeFunc func(path string) *deferred.Result[string]
)

// Writable is the write-side capability surface. Each accessor returns a
// bound operation; repeated calls return the same binding.
type Writable interface {
	WriteFile() WriteFileFunc
	RemoveFile() PathFunc
	Mkdir() PathFunc
	Mkdirp() TreeFunc
	RemoveDirAll() TreeFunc
}

// NewWritable returns a bridge over host, or the inert bridge when host is nil.
func NewWritable(host rkfs.OutputFileSystem) Writable {
	if host == nil {
		return InertWritable
	}
	w := &backedWritable{host: host}
	if async, ok := host.(rkfs.AsyncOutputFileSystem); ok {
		w.async = async
	}
	w.writeFile = sync.OnceValue(w.bindWriteFile)
	w.removeFile = sync.OnceValue(w.bindRemoveFile)
	w.mkdir = sync.OnceValue(w.bindMkdir)
	w.mkdirp = sync.OnceValue(w.bindMkdirp)
	w.removeDirAll = sync.OnceValue(w.bindRemoveDirAll)
	return w
}

type backedWritable struct {
	host  rkfs.OutputFileSystem
	async rkfs.AsyncOutputFileSystem

	writeFile    func() WriteFileFunc
	removeFile   func() PathFunc
	mkdir        func() PathFunc
	mkdirp       func() TreeFunc
	removeDirAll func() TreeFunc

	// bindings counts how many capabilities have been bound.
	bindings atomic.Int32
}

func (w *backedWritable) WriteFile() WriteFileFunc { return w.writeFile() }
func (w *backedWritable) RemoveFile() PathFunc     { return w.removeFile() }
func (w *backedWritable) Mkdir() PathFunc          { return w.mkdir() }
func (w *backedWritable) Mkdirp() TreeFunc         { return w.mkdirp() }
func (w *backedWritable) RemoveDirAll() TreeFunc   { return w.removeDirAll() }

func (w *backedWritable) bindWriteFile() WriteFileFunc {
	w.bindings.Add(1)
	if w.async != nil {
		async := w.async
		return func(path string, data []byte) *deferred.Result[struct{}] {
			return settleIO(OpWrite, path, async.WriteFileAsync(path, data, rkfs.FilePerm))
		}
	}
	host := w.host
	return func(path string, data []byte) *deferred.Result[struct{}] {
		return done(wrap(OpWrite, path, host.WriteFile(path, data, rkfs.FilePerm)))
	}
}

func (w *backedWritable) bindRemoveFile() PathFunc {
	w.bindings.Add(1)
	if w.async != nil {
		async := w.async
		return func(path string) *deferred.Result[struct{}] {
			return settleIO(OpRemove, path, async.RemoveAsync(path))
		}
	}
	host := w.host
	return func(path string) *deferred.Result[struct{}] {
		return done(wrap(OpRemove, path, host.Remove(path)))
	}
}

func (w *backedWritable) bindMkdir() PathFunc {
	w.bindings.Add(1)
	if w.async != nil {
		async := w.async
		return func(path string) *deferred.Result[struct{}] {
			return settleIO(OpMkdir, path, async.MkdirAsync(path, rkfs.DirPerm))
		}
	}
	host := w.host
	return func(path string) *deferred.Result[struct{}] {
		return done(wrap(OpMkdir, path, host.Mkdir(path, rkfs.DirPerm)))
	}
}

func (w *backedWritable) bindMkdirp() TreeFunc {
	w.bindings.Add(1)
	host := w.host
	return func(path string) *deferred.Result[string] {
		first, err := mkdirp(host, path)
		return deferred.From(first, wrap(OpMkdirp, path, err))
	}
}

func (w *backedWritable) bindRemoveDirAll() TreeFunc {
	w.bindings.Add(1)
	host := w.host
	return func(path string) *deferred.Result[string] {
		return deferred.From("", wrap(OpRemoveDirAll, path, rmrf(host, path)))
	}
}

// mkdirp creates path and its missing ancestors and returns the first
// directory it created. Ancestors are probed with Stat so the first created
// directory is known even when the host has a native MkdirAll. Tree operations
// always use the synchronous host methods, also for async hosts.
func mkdirp(host rkfs.OutputFileSystem, path string) (string, error) {
	path = filepath.Clean(path)
	info, err := host.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", nil
		}
		return "", &fs.PathError{Op: "mkdir", Path: path, Err: rkfs.ErrNotDir}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if all, ok := host.(rkfs.MkdirAller); ok {
		first := firstMissing(host, path)
		if err := all.MkdirAll(path, rkfs.DirPerm); err != nil {
			return "", err
		}
		return first, nil
	}

	parent := filepath.Dir(path)
	first := ""
	if parent != path {
		first, err = mkdirp(host, parent)
		if err != nil {
			return "", err
		}
	}
	if err := host.Mkdir(path, rkfs.DirPerm); err != nil && !errors.Is(err, fs.ErrExist) {
		return "", err
	}
	if first == "" {
		first = path
	}
	return first, nil
}

func firstMissing(host rkfs.OutputFileSystem, path string) string {
	first := path
	for dir := filepath.Dir(path); dir != first; dir = filepath.Dir(dir) {
		if _, err := host.Stat(dir); err == nil {
			break
		}
		first = dir
	}
	return first
}

// rmrf removes path recursively. A missing path is not an error. Symlinks are
// removed, not followed, when the host can Lstat.
func rmrf(host rkfs.OutputFileSystem, path string) error {
	if all, ok := host.(rkfs.RemoveAller); ok {
		return all.RemoveAll(path)
	}

	stat := host.Stat
	if l, ok := host.(lstater); ok {
		stat = l.Lstat
	}
	info, err := stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		lister, ok := host.(rkfs.DirReader)
		if !ok {
			return host.Remove(path)
		}
		entries, err := lister.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := rmrf(host, filepath.Join(path, e.Name())); err != nil {
				return err
			}
		}
	}
	return host.Remove(path)
}

type lstater interface {
	Lstat(name string) (fs.FileInfo, error)
}

func done(err error) *deferred.Result[struct{}] {
	return deferred.From(struct{}{}, err)
}

func settleIO(op, path string, r *deferred.Result[struct{}]) *deferred.Result[struct{}] {
	return deferred.MapErr(r, func(err error) error { return wrap(op, path, err) })
}

// InertWritable is the writable bridge that performs no I/O.
var InertWritable Writable = inertWritable{}

type inertWritable struct{}

var (
	noopWrite WriteFileFunc = func(string, []byte) *deferred.Result[struct{}] {
		return deferred.Value(struct{}{})
	}
	noopPath PathFunc = func(string) *deferred.Result[struct{}] {
		return deferred.Value(struct{}{})
	}
	noopTree TreeFunc = func(string) *deferred.Result[string] {
		return deferred.Value("")
	}
)

func (inertWritable) WriteFile() WriteFileFunc { return noopWrite }
func (inertWritable) RemoveFile() PathFunc     { return noopPath }
func (inertWritable) Mkdir() PathFunc          { return noopPath }
func (inertWritable) Mkdirp() TreeFunc         { return noopTree }
func (inertWritable) RemoveDirAll() TreeFunc   { return noopTree }
