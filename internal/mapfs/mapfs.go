/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mapfs provides an in-memory filesystem implementation for testing.
package mapfs

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	rkfs "bennypowers.dev/resolvekit/fs"
)

// maxLinkHops bounds symlink expansion during path walks.
const maxLinkHops = 40

type kind int

const (
	kindFile kind = iota
	kindDir
	kindSymlink
)

type entry struct {
	kind   kind
	data   []byte
	target string
	mode   fs.FileMode
}

// MapFileSystem implements rkfs.FileSystem in memory, with directories and
// symlinks as first-class entries. Unlike a real disk it never creates parent
// directories implicitly for WriteFile or Mkdir.
type MapFileSystem struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	modTime   time.Time
	mutations atomic.Int64
}

var _ rkfs.FileSystem = (*MapFileSystem)(nil)

// New creates a new in-memory filesystem containing only the root directory.
func New() *MapFileSystem {
	return &MapFileSystem{
		entries: map[string]*entry{"/": {kind: kindDir, mode: fs.ModeDir | 0o755}},
		modTime: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// AddFile adds a file, creating any missing parent directories.
func (mfs *MapFileSystem) AddFile(p string, content string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	mfs.addParentsLocked(p)
	mfs.entries[p] = &entry{kind: kindFile, data: []byte(content), mode: mode.Perm()}
}

// AddDir adds a directory and any missing parents.
func (mfs *MapFileSystem) AddDir(p string, mode fs.FileMode) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	mfs.addParentsLocked(p)
	mfs.entries[p] = &entry{kind: kindDir, mode: fs.ModeDir | mode.Perm()}
}

// AddSymlink adds a symlink at p pointing to target. The target is stored
// verbatim and need not exist.
func (mfs *MapFileSystem) AddSymlink(target, p string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p = cleanPath(p)
	mfs.addParentsLocked(p)
	mfs.entries[p] = &entry{kind: kindSymlink, target: target, mode: fs.ModeSymlink | 0o777}
}

// Mutations returns how many successful mutating operations (write, remove,
// mkdir) have been applied through the rkfs.FileSystem methods.
func (mfs *MapFileSystem) Mutations() int64 {
	return mfs.mutations.Load()
}

// ReadFile implements rkfs.FileSystem.
func (mfs *MapFileSystem) ReadFile(name string) ([]byte, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	_, e, err := mfs.walkLocked(name, true)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if e.kind == kindDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: rkfs.ErrIsDir}
	}
	return slices.Clone(e.data), nil
}

// WriteFile implements rkfs.FileSystem. The parent directory must exist.
func (mfs *MapFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p, err := mfs.childPathLocked(name)
	if err != nil {
		return &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if existing, ok := mfs.entries[p]; ok {
		switch existing.kind {
		case kindDir:
			return &fs.PathError{Op: "open", Path: name, Err: rkfs.ErrIsDir}
		case kindSymlink:
			target, e, err := mfs.walkLocked(p, true)
			if err == nil && e.kind == kindDir {
				return &fs.PathError{Op: "open", Path: name, Err: rkfs.ErrIsDir}
			}
			if err == nil {
				p = target
			}
		}
	}

	mfs.entries[p] = &entry{kind: kindFile, data: slices.Clone(data), mode: perm.Perm()}
	mfs.mutations.Add(1)
	return nil
}

// Remove implements rkfs.FileSystem. Removes a file, symlink or empty directory.
func (mfs *MapFileSystem) Remove(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p, err := mfs.childPathLocked(name)
	if err != nil {
		return &fs.PathError{Op: "remove", Path: name, Err: err}
	}
	e, ok := mfs.entries[p]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	if e.kind == kindDir && mfs.hasChildrenLocked(p) {
		return &fs.PathError{Op: "remove", Path: name, Err: rkfs.ErrNotEmpty}
	}

	delete(mfs.entries, p)
	mfs.mutations.Add(1)
	return nil
}

// Mkdir implements rkfs.FileSystem. The parent directory must exist.
func (mfs *MapFileSystem) Mkdir(name string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p, err := mfs.childPathLocked(name)
	if err != nil {
		return &fs.PathError{Op: "mkdir", Path: name, Err: err}
	}
	if _, ok := mfs.entries[p]; ok {
		return &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrExist}
	}

	mfs.entries[p] = &entry{kind: kindDir, mode: fs.ModeDir | perm.Perm()}
	mfs.mutations.Add(1)
	return nil
}

// MkdirAll implements rkfs.FileSystem.
func (mfs *MapFileSystem) MkdirAll(p string, perm fs.FileMode) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	cur := "/"
	for _, part := range splitPath(cleanPath(p)) {
		resolved, e, err := mfs.walkLocked(path.Join(cur, part), true)
		switch {
		case err == nil && e.kind == kindDir:
			cur = resolved
			continue
		case err == nil:
			return &fs.PathError{Op: "mkdir", Path: p, Err: rkfs.ErrNotDir}
		}
		next := path.Join(cur, part)
		if _, dangling := mfs.entries[next]; dangling {
			return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
		}
		mfs.entries[next] = &entry{kind: kindDir, mode: fs.ModeDir | perm.Perm()}
		mfs.mutations.Add(1)
		cur = next
	}
	return nil
}

// RemoveAll implements rkfs.FileSystem. A missing path is not an error.
func (mfs *MapFileSystem) RemoveAll(name string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	p, err := mfs.childPathLocked(name)
	if err != nil {
		return nil
	}
	if _, ok := mfs.entries[p]; !ok {
		return nil
	}

	prefix := p + "/"
	for key := range mfs.entries {
		if key == p || strings.HasPrefix(key, prefix) {
			delete(mfs.entries, key)
		}
	}
	mfs.mutations.Add(1)
	return nil
}

// Stat implements rkfs.FileSystem, following symlinks.
func (mfs *MapFileSystem) Stat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, e, err := mfs.walkLocked(name, true)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return mfs.info(p, e), nil
}

// Lstat implements rkfs.FileSystem, describing a final symlink itself.
func (mfs *MapFileSystem) Lstat(name string) (fs.FileInfo, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, e, err := mfs.walkLocked(name, false)
	if err != nil {
		return nil, &fs.PathError{Op: "lstat", Path: name, Err: err}
	}
	return mfs.info(p, e), nil
}

// Readlink implements rkfs.FileSystem.
func (mfs *MapFileSystem) Readlink(name string) (string, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	_, e, err := mfs.walkLocked(name, false)
	if err != nil {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: err}
	}
	if e.kind != kindSymlink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: rkfs.ErrNotSymlink}
	}
	return e.target, nil
}

// Exists implements rkfs.FileSystem.
func (mfs *MapFileSystem) Exists(p string) bool {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	_, _, err := mfs.walkLocked(p, true)
	return err == nil
}

// ReadDir implements rkfs.FileSystem. Entries are sorted by name.
func (mfs *MapFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	dir, e, err := mfs.walkLocked(name, true)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	if e.kind != kindDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: rkfs.ErrNotDir}
	}
	return mfs.readDirLocked(dir), nil
}

// Open implements fs.FS.
func (mfs *MapFileSystem) Open(name string) (fs.File, error) {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	p, e, err := mfs.walkLocked(name, true)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	f := &openFile{info: mfs.info(p, e)}
	if e.kind == kindDir {
		f.entries = mfs.readDirLocked(p)
	} else {
		f.data = slices.Clone(e.data)
	}
	return f, nil
}

// ListFiles returns all entries for debugging.
func (mfs *MapFileSystem) ListFiles() map[string]string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	result := make(map[string]string, len(mfs.entries))
	for p, e := range mfs.entries {
		switch e.kind {
		case kindDir:
			result[p] = "directory"
		case kindSymlink:
			result[p] = "symlink -> " + e.target
		default:
			result[p] = fmt.Sprintf("file (%d bytes)", len(e.data))
		}
	}
	return result
}

// walkLocked resolves p component by component, expanding symlinks in every
// intermediate component and, when followLast is set, in the final one.
// It returns the resolved path and its entry.
func (mfs *MapFileSystem) walkLocked(p string, followLast bool) (string, *entry, error) {
	parts := splitPath(cleanPath(p))
	cur := "/"
	hops := 0
	for i := 0; i < len(parts); i++ {
		next := path.Join(cur, parts[i])
		e, ok := mfs.entries[next]
		if !ok {
			return next, nil, fs.ErrNotExist
		}
		last := i == len(parts)-1
		if e.kind == kindSymlink && (!last || followLast) {
			hops++
			if hops > maxLinkHops {
				return next, nil, rkfs.ErrLoop
			}
			target := e.target
			if !path.IsAbs(target) {
				target = path.Join(cur, target)
			}
			parts = append(splitPath(cleanPath(target)), parts[i+1:]...)
			cur = "/"
			i = -1
			continue
		}
		if !last && e.kind != kindDir {
			return next, nil, rkfs.ErrNotDir
		}
		cur = next
	}
	return cur, mfs.entries[cur], nil
}

// childPathLocked resolves the parent of name (which must be an existing
// directory) and returns the path of name inside it.
func (mfs *MapFileSystem) childPathLocked(name string) (string, error) {
	p := cleanPath(name)
	if p == "/" {
		return "", fs.ErrInvalid
	}
	parent, e, err := mfs.walkLocked(path.Dir(p), true)
	if err != nil {
		return "", err
	}
	if e.kind != kindDir {
		return "", rkfs.ErrNotDir
	}
	return path.Join(parent, path.Base(p)), nil
}

func (mfs *MapFileSystem) addParentsLocked(p string) {
	for dir := path.Dir(p); dir != "/"; dir = path.Dir(dir) {
		if _, ok := mfs.entries[dir]; !ok {
			mfs.entries[dir] = &entry{kind: kindDir, mode: fs.ModeDir | 0o755}
		}
	}
}

func (mfs *MapFileSystem) hasChildrenLocked(dir string) bool {
	prefix := dir + "/"
	for key := range mfs.entries {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (mfs *MapFileSystem) readDirLocked(dir string) []fs.DirEntry {
	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var entries []fs.DirEntry
	for key, e := range mfs.entries {
		rest, ok := strings.CutPrefix(key, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(mfs.info(key, e)))
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries
}

func (mfs *MapFileSystem) info(p string, e *entry) *fileInfo {
	name := path.Base(p)
	return &fileInfo{name: name, size: int64(len(e.data)), mode: e.mode, modTime: mfs.modTime}
}

func cleanPath(p string) string {
	return path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

type fileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *fileInfo) Name() string       { return f.name }
func (f *fileInfo) Size() int64        { return f.size }
func (f *fileInfo) Mode() fs.FileMode  { return f.mode }
func (f *fileInfo) ModTime() time.Time { return f.modTime }
func (f *fileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *fileInfo) Sys() any           { return nil }

// openFile is a snapshot taken at Open time.
type openFile struct {
	info    *fileInfo
	data    []byte
	offset  int
	entries []fs.DirEntry
}

func (f *openFile) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *openFile) Close() error               { return nil }

func (f *openFile) Read(b []byte) (int, error) {
	if f.info.IsDir() {
		return 0, &fs.PathError{Op: "read", Path: f.info.name, Err: rkfs.ErrIsDir}
	}
	if f.offset >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(b, f.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *openFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if n <= 0 {
		out := f.entries
		f.entries = nil
		return out, nil
	}
	if len(f.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(f.entries))
	out := f.entries[:n]
	f.entries = f.entries[n:]
	return out, nil
}
