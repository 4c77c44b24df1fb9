/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fs provides the host filesystem contracts that resolvekit bridges.
//
// Hosts come in two halves: an InputFileSystem serving resolution reads, and an
// OutputFileSystem receiving build output. A FileSystem is both, plus the
// fs.FS-compatible queries that config loading and glob expansion need.
package fs

import (
	"io/fs"

	"bennypowers.dev/resolvekit/deferred"
)

// InputFileSystem is the read side a host must supply.
// All operations are synchronous and take slash- or OS-separated paths.
type InputFileSystem interface {
	// ReadFile returns the full contents of the named file.
	ReadFile(name string) ([]byte, error)

	// Stat returns file information, following symlinks.
	Stat(name string) (fs.FileInfo, error)

	// Lstat returns file information without following a final symlink.
	Lstat(name string) (fs.FileInfo, error)

	// Readlink returns the target of the named symlink.
	Readlink(name string) (string, error)
}

// OutputFileSystem is the write side a host must supply.
type OutputFileSystem interface {
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Remove(name string) error
	Mkdir(name string, perm fs.FileMode) error
	Stat(name string) (fs.FileInfo, error)
}

// MkdirAller is implemented by output hosts that create directory trees natively.
type MkdirAller interface {
	MkdirAll(path string, perm fs.FileMode) error
}

// RemoveAller is implemented by output hosts that remove directory trees natively.
type RemoveAller interface {
	RemoveAll(path string) error
}

// DirReader is implemented by hosts that can list directories.
type DirReader interface {
	ReadDir(name string) ([]fs.DirEntry, error)
}

// AsyncOutputFileSystem is implemented by output hosts whose mutations complete later.
// When a host implements it, the writable bridge uses these forms instead of the
// synchronous ones.
type AsyncOutputFileSystem interface {
	WriteFileAsync(name string, data []byte, perm fs.FileMode) *deferred.Result[struct{}]
	RemoveAsync(name string) *deferred.Result[struct{}]
	MkdirAsync(name string, perm fs.FileMode) *deferred.Result[struct{}]
}

// FileSystem is a complete host: both halves plus directory listing and fs.FS access.
type FileSystem interface {
	InputFileSystem
	OutputFileSystem
	MkdirAller
	RemoveAller
	DirReader

	// Exists reports whether the path exists, following symlinks.
	Exists(path string) bool

	// fs.FS compatibility - allows use with fs.WalkDir
	Open(name string) (fs.File, error)
}

// Default permissions for output written through the bridge.
const (
	FilePerm fs.FileMode = 0o644
	DirPerm  fs.FileMode = 0o755
)
