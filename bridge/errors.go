/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package bridge

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrIO matches any *IOError via errors.Is.
var ErrIO = errors.New("filesystem operation failed")

// Operation names carried by IOError.
const (
	OpRead         = "read"
	OpMetadata     = "stat"
	OpSymlinkMeta  = "lstat"
	OpCanonicalize = "readlink"
	OpWrite        = "write"
	OpRemove       = "remove"
	OpMkdir        = "create dir"
	OpMkdirp       = "create dir all"
	OpRemoveDirAll = "remove dir all"
)

// IOError reports a failed host filesystem operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %q failed: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIO) match every IOError.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// NotExist reports whether err is an IOError caused by a missing path.
func NotExist(err error) bool {
	return errors.Is(err, ErrIO) && errors.Is(err, fs.ErrNotExist)
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}
