/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fs

import "errors"

// Errors reported by hosts that have no OS errno to return.
var (
	// ErrNotDir indicates a path component that must be a directory is not one.
	ErrNotDir = errors.New("not a directory")

	// ErrIsDir indicates a file operation was attempted on a directory.
	ErrIsDir = errors.New("is a directory")

	// ErrNotEmpty indicates removal of a directory that still has entries.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrNotSymlink indicates a readlink on something that is not a symlink.
	ErrNotSymlink = errors.New("not a symlink")

	// ErrLoop indicates too many levels of symbolic links.
	ErrLoop = errors.New("too many levels of symbolic links")
)
