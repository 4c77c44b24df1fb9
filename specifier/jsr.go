/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package specifier

import "strings"

// jsrToNPMCompatPackage converts a JSR package name to its npm compatibility
// layer name. JSR packages installed via `npx jsr add @scope/pkg` appear in
// node_modules under the @jsr scope:
//   - jsr:@scope/pkg → @jsr/scope__pkg
//
// Unscoped names are rejected.
func jsrToNPMCompatPackage(pkg string) (string, bool) {
	scoped, ok := strings.CutPrefix(pkg, "@")
	if !ok || !strings.Contains(scoped, "/") {
		return "", false
	}
	return "@jsr/" + strings.Replace(scoped, "/", "__", 1), true
}
