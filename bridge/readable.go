/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package bridge normalizes host filesystems into the capability surface the
// resolution engine and the output emitter consume.
//
// Each side has two variants chosen at construction: a backed bridge that
// delegates to a host, and an inert bridge that performs no I/O. The inert
// variants serve child compilations that share their parent's filesystem.
package bridge

import (
	"io/fs"
	"path/filepath"

	rkfs "bennypowers.dev/resolvekit/fs"
)

// FileMetadata describes one filesystem entry.
type FileMetadata struct {
	IsFile    bool `json:"isFile"`
	IsDir     bool `json:"isDir"`
	IsSymlink bool `json:"isSymlink"`
}

// MetadataFromInfo converts host file info into FileMetadata.
func MetadataFromInfo(info fs.FileInfo) FileMetadata {
	mode := info.Mode()
	return FileMetadata{
		IsFile:    mode.IsRegular(),
		IsDir:     mode.IsDir(),
		IsSymlink: mode&fs.ModeSymlink != 0,
	}
}

// Readable is the read-side capability surface. Implementations hold no
// mutable state and are safe for concurrent use.
type Readable interface {
	// ReadToBuffer returns the full contents of the file at path.
	ReadToBuffer(path string) ([]byte, error)

	// Metadata describes the entry at path, following symlinks.
	Metadata(path string) (FileMetadata, error)

	// SymlinkMetadata describes the entry at path without following a final symlink.
	SymlinkMetadata(path string) (FileMetadata, error)

	// Canonicalize resolves one symlink hop: the link target joined onto the
	// link's directory. The result is absolute when path is; a relative path
	// gives a result relative to the same base, never to the process
	// working directory.
	Canonicalize(path string) (string, error)
}

// NewReadable returns a bridge over host, or the inert bridge when host is nil.
func NewReadable(host rkfs.InputFileSystem) Readable {
	if host == nil {
		return Inert
	}
	return &backedReadable{host: host}
}

type backedReadable struct {
	host rkfs.InputFileSystem
}

func (r *backedReadable) ReadToBuffer(path string) ([]byte, error) {
	data, err := r.host.ReadFile(path)
	if err != nil {
		return nil, wrap(OpRead, path, err)
	}
	return data, nil
}

func (r *backedReadable) Metadata(path string) (FileMetadata, error) {
	info, err := r.host.Stat(path)
	if err != nil {
		return FileMetadata{}, wrap(OpMetadata, path, err)
	}
	return MetadataFromInfo(info), nil
}

func (r *backedReadable) SymlinkMetadata(path string) (FileMetadata, error) {
	info, err := r.host.Lstat(path)
	if err != nil {
		return FileMetadata{}, wrap(OpSymlinkMeta, path, err)
	}
	return MetadataFromInfo(info), nil
}

func (r *backedReadable) Canonicalize(path string) (string, error) {
	target, err := r.host.Readlink(path)
	if err != nil {
		return "", wrap(OpCanonicalize, path, err)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target), nil
	}
	return filepath.Join(filepath.Dir(path), target), nil
}

// Inert is the readable bridge that performs no I/O. Every operation returns
// zero values and never fails.
var Inert Readable = inertReadable{}

type inertReadable struct{}

func (inertReadable) ReadToBuffer(string) ([]byte, error)          { return nil, nil }
func (inertReadable) Metadata(string) (FileMetadata, error)        { return FileMetadata{}, nil }
func (inertReadable) SymlinkMetadata(string) (FileMetadata, error) { return FileMetadata{}, nil }
func (inertReadable) Canonicalize(string) (string, error)          { return "", nil }

// IsInert reports whether r is the inert readable bridge.
func IsInert(r Readable) bool {
	_, ok := r.(inertReadable)
	return ok
}
