/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fs

import (
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// AferoFileSystem adapts an afero.Fs into a host FileSystem.
//
// Symlink queries use afero.Lstater and afero.LinkReader when the backing Fs
// supports them. Without Lstater, Lstat falls back to Stat; without LinkReader,
// Readlink fails with afero.ErrNoReadlink.
type AferoFileSystem struct {
	fs afero.Fs
}

// NewAferoFileSystem wraps an afero filesystem.
func NewAferoFileSystem(fsys afero.Fs) *AferoFileSystem {
	return &AferoFileSystem{fs: fsys}
}

// ReadFile reads the entire contents of a file.
func (a *AferoFileSystem) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(a.fs, name)
}

// WriteFile writes data to a file. The parent directory must already exist.
func (a *AferoFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := a.requireParent("open", name); err != nil {
		return err
	}
	return afero.WriteFile(a.fs, name, data, perm)
}

// Remove deletes the named file or empty directory.
func (a *AferoFileSystem) Remove(name string) error {
	return a.fs.Remove(name)
}

// Mkdir creates a single directory. The parent must exist.
func (a *AferoFileSystem) Mkdir(name string, perm fs.FileMode) error {
	if err := a.requireParent("mkdir", name); err != nil {
		return err
	}
	return a.fs.Mkdir(name, perm)
}

// MkdirAll creates a directory path and all parents that do not exist.
func (a *AferoFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

// RemoveAll removes path and any children.
func (a *AferoFileSystem) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

// Stat returns file information for the named file.
func (a *AferoFileSystem) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

// Lstat returns file information without following a final symlink, when supported.
func (a *AferoFileSystem) Lstat(name string) (fs.FileInfo, error) {
	if lstater, ok := a.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(name)
		return info, err
	}
	return a.fs.Stat(name)
}

// Readlink returns the destination of the named symbolic link.
func (a *AferoFileSystem) Readlink(name string) (string, error) {
	if reader, ok := a.fs.(afero.LinkReader); ok {
		return reader.ReadlinkIfPossible(name)
	}
	return "", &fs.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}

// Exists returns true if the path exists.
func (a *AferoFileSystem) Exists(path string) bool {
	ok, err := afero.Exists(a.fs, path)
	return err == nil && ok
}

// ReadDir reads the named directory and returns its entries.
func (a *AferoFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	infos, err := afero.ReadDir(a.fs, name)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

// Open opens the named file for reading.
func (a *AferoFileSystem) Open(name string) (fs.File, error) {
	return a.fs.Open(name)
}

func (a *AferoFileSystem) requireParent(op, name string) error {
	parent := filepath.Dir(filepath.Clean(name))
	info, err := a.fs.Stat(parent)
	if err != nil {
		return &fs.PathError{Op: op, Path: name, Err: fs.ErrNotExist}
	}
	if !info.IsDir() {
		return &fs.PathError{Op: op, Path: name, Err: ErrNotDir}
	}
	return nil
}
