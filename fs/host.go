/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package fs

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Kind names a host implementation.
type Kind string

const (
	// KindOS is the operating system filesystem.
	KindOS Kind = "os"
	// KindAfero is the OS filesystem confined to a root through afero.
	KindAfero Kind = "afero"
	// KindSandbox is the OS filesystem confined to a root through wazero's sysfs.
	KindSandbox Kind = "sandbox"
)

// NewHost creates the host of the given kind for a project at root. It
// returns the host and the project root as the host sees it: confined kinds
// present root as "/".
func NewHost(kind Kind, root string) (FileSystem, string, error) {
	switch kind {
	case KindOS, "":
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, "", err
		}
		return NewOSFileSystem(), abs, nil
	case KindAfero:
		return NewAferoFileSystem(afero.NewBasePathFs(afero.NewOsFs(), root)), "/", nil
	case KindSandbox:
		return NewSandboxFileSystem(root), "/", nil
	default:
		return nil, "", fmt.Errorf("unknown filesystem %q: expected os, afero or sandbox", kind)
	}
}
