/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// description is a parsed description file such as package.json.
type description map[string]any

// readDescription parses the description file at path. It returns nil when
// the file is absent or empty.
func (r *nativeResolver) readDescription(path string) (description, error) {
	ok, err := r.isFile(path)
	if err != nil || !ok {
		return nil, err
	}
	data, err := r.fs.ReadToBuffer(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var desc description
	if err := json.Unmarshal(jsonc.ToJSON(data), &desc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return desc, nil
}

// mainEntry returns the string value of a main field, or "" when the field is
// missing, not a string, or points at the package root itself.
func (d description) mainEntry(field string) string {
	v, _ := d[field].(string)
	switch v {
	case "", ".", "./":
		return ""
	}
	return v
}
