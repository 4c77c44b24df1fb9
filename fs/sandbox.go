/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fs

import (
	"io/fs"
	"path"
	"strings"
	"time"

	experimentalsys "github.com/tetratelabs/wazero/experimental/sys"
	"github.com/tetratelabs/wazero/experimental/sysfs"
	"github.com/tetratelabs/wazero/sys"
)

// SandboxFileSystem is a host rooted at a single directory, served through
// wazero's sys.FS. Paths are interpreted relative to the sandbox root: both
// "/src/a.js" and "src/a.js" name the same file.
type SandboxFileSystem struct {
	root string
	fs   experimentalsys.FS
}

// NewSandboxFileSystem creates a host confined to dir.
func NewSandboxFileSystem(dir string) *SandboxFileSystem {
	return &SandboxFileSystem{root: dir, fs: sysfs.DirFS(dir)}
}

// Root returns the host directory the sandbox is rooted at.
func (s *SandboxFileSystem) Root() string {
	return s.root
}

// ReadFile reads the entire contents of a file.
func (s *SandboxFileSystem) ReadFile(name string) ([]byte, error) {
	f, errno := s.fs.OpenFile(rel(name), experimentalsys.O_RDONLY, 0)
	if errno != 0 {
		return nil, errnoError("open", name, errno)
	}
	defer f.Close()

	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, errno := f.Read(buf)
		if errno != 0 {
			return nil, errnoError("read", name, errno)
		}
		if n == 0 {
			return out, nil
		}
		out = append(out, buf[:n]...)
	}
}

// WriteFile creates or truncates the named file. The parent must exist.
func (s *SandboxFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f, errno := s.fs.OpenFile(rel(name), experimentalsys.O_WRONLY|experimentalsys.O_CREAT|experimentalsys.O_TRUNC, perm)
	if errno != 0 {
		return errnoError("open", name, errno)
	}
	defer f.Close()

	for len(data) > 0 {
		n, errno := f.Write(data)
		if errno != 0 {
			return errnoError("write", name, errno)
		}
		data = data[n:]
	}
	return nil
}

// Remove deletes the named file or empty directory.
func (s *SandboxFileSystem) Remove(name string) error {
	st, errno := s.fs.Lstat(rel(name))
	if errno != 0 {
		return errnoError("remove", name, errno)
	}
	if st.Mode.IsDir() {
		errno = s.fs.Rmdir(rel(name))
	} else {
		errno = s.fs.Unlink(rel(name))
	}
	if errno != 0 {
		return errnoError("remove", name, errno)
	}
	return nil
}

// Mkdir creates a single directory. The parent must exist.
func (s *SandboxFileSystem) Mkdir(name string, perm fs.FileMode) error {
	if errno := s.fs.Mkdir(rel(name), perm); errno != 0 {
		return errnoError("mkdir", name, errno)
	}
	return nil
}

// MkdirAll creates a directory path and all parents that do not exist.
func (s *SandboxFileSystem) MkdirAll(name string, perm fs.FileMode) error {
	p := rel(name)
	if p == "." {
		return nil
	}
	st, errno := s.fs.Stat(p)
	if errno == 0 {
		if st.Mode.IsDir() {
			return nil
		}
		return &fs.PathError{Op: "mkdir", Path: name, Err: ErrNotDir}
	}
	if errno != experimentalsys.ENOENT {
		return errnoError("mkdir", name, errno)
	}
	if err := s.MkdirAll(path.Dir(p), perm); err != nil {
		return err
	}
	if errno := s.fs.Mkdir(p, perm); errno != 0 && errno != experimentalsys.EEXIST {
		return errnoError("mkdir", name, errno)
	}
	return nil
}

// RemoveAll removes path and any children. A missing path is not an error.
func (s *SandboxFileSystem) RemoveAll(name string) error {
	p := rel(name)
	st, errno := s.fs.Lstat(p)
	if errno == experimentalsys.ENOENT {
		return nil
	}
	if errno != 0 {
		return errnoError("removeall", name, errno)
	}
	if !st.Mode.IsDir() {
		if errno := s.fs.Unlink(p); errno != 0 {
			return errnoError("removeall", name, errno)
		}
		return nil
	}

	children, err := s.readdirnames(p)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := s.RemoveAll(path.Join(p, child)); err != nil {
			return err
		}
	}
	if errno := s.fs.Rmdir(p); errno != 0 {
		return errnoError("removeall", name, errno)
	}
	return nil
}

// Stat returns file information for the named file.
func (s *SandboxFileSystem) Stat(name string) (fs.FileInfo, error) {
	st, errno := s.fs.Stat(rel(name))
	if errno != 0 {
		return nil, errnoError("stat", name, errno)
	}
	return &statInfo{name: path.Base(rel(name)), st: st}, nil
}

// Lstat returns file information without following a final symlink.
func (s *SandboxFileSystem) Lstat(name string) (fs.FileInfo, error) {
	st, errno := s.fs.Lstat(rel(name))
	if errno != 0 {
		return nil, errnoError("lstat", name, errno)
	}
	return &statInfo{name: path.Base(rel(name)), st: st}, nil
}

// Readlink returns the destination of the named symbolic link.
func (s *SandboxFileSystem) Readlink(name string) (string, error) {
	target, errno := s.fs.Readlink(rel(name))
	if errno != 0 {
		return "", errnoError("readlink", name, errno)
	}
	return target, nil
}

// Exists returns true if the path exists.
func (s *SandboxFileSystem) Exists(name string) bool {
	_, errno := s.fs.Stat(rel(name))
	return errno == 0
}

// ReadDir reads the named directory and returns its entries.
func (s *SandboxFileSystem) ReadDir(name string) ([]fs.DirEntry, error) {
	names, err := s.readdirnames(rel(name))
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(names))
	for _, n := range names {
		info, err := s.Lstat(path.Join(rel(name), n))
		if err != nil {
			return nil, err
		}
		entries = append(entries, fs.FileInfoToDirEntry(info))
	}
	return entries, nil
}

// Open is not supported by the sandbox; it exists to satisfy fs.FS for callers
// that only use ReadDir and Stat through fs.WalkDir.
func (s *SandboxFileSystem) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
}

func (s *SandboxFileSystem) readdirnames(p string) ([]string, error) {
	dir, errno := s.fs.OpenFile(p, experimentalsys.O_RDONLY|experimentalsys.O_DIRECTORY, 0)
	if errno != 0 {
		return nil, errnoError("open", p, errno)
	}
	defer dir.Close()

	dirents, errno := dir.Readdir(-1)
	if errno != 0 {
		return nil, errnoError("readdir", p, errno)
	}
	names := make([]string, 0, len(dirents))
	for _, d := range dirents {
		if d.Name == "." || d.Name == ".." {
			continue
		}
		names = append(names, d.Name)
	}
	return names, nil
}

// rel converts a host-style path into one relative to the sandbox root.
func rel(name string) string {
	p := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}

func errnoError(op, name string, errno experimentalsys.Errno) error {
	var err error = errno
	switch errno {
	case experimentalsys.ENOENT:
		err = fs.ErrNotExist
	case experimentalsys.EEXIST:
		err = fs.ErrExist
	case experimentalsys.EACCES, experimentalsys.EPERM:
		err = fs.ErrPermission
	case experimentalsys.ENOTDIR:
		err = ErrNotDir
	case experimentalsys.EISDIR:
		err = ErrIsDir
	case experimentalsys.ENOTEMPTY:
		err = ErrNotEmpty
	}
	return &fs.PathError{Op: op, Path: name, Err: err}
}

// statInfo adapts a wazero sys.Stat_t to fs.FileInfo.
type statInfo struct {
	name string
	st   sys.Stat_t
}

func (i *statInfo) Name() string       { return i.name }
func (i *statInfo) Size() int64        { return i.st.Size }
func (i *statInfo) Mode() fs.FileMode  { return i.st.Mode }
func (i *statInfo) ModTime() time.Time { return time.Unix(0, i.st.Mtim) }
func (i *statInfo) IsDir() bool        { return i.st.Mode.IsDir() }
func (i *statInfo) Sys() any           { return &i.st }
