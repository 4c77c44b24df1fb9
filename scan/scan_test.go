/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type found struct {
	request  string
	category string
}

func requests(imports []Import) []found {
	out := make([]found, len(imports))
	for i, imp := range imports {
		out[i] = found{imp.Request, imp.Category}
	}
	return out
}

func TestScan_JavaScript(t *testing.T) {
	src := []byte(`import a from "./a.js";
import "./side-effect.js";
export { b } from './b.js';
const c = require("./c.cjs");
const d = await import("./d.js");
const e = require(dynamic);
fetch("./not-a-require.js");
import x from "https://cdn.example.com/x.js";
`)

	imports, err := Scan(JavaScript, src)
	require.NoError(t, err)
	assert.Equal(t, []found{
		{"./a.js", CategoryESM},
		{"./side-effect.js", CategoryESM},
		{"./b.js", CategoryESM},
		{"./c.cjs", CategoryCommonJS},
		{"./d.js", CategoryESM},
	}, requests(imports))

	assert.Equal(t, Range{
		Start: Position{Line: 0, Column: 15},
		End:   Position{Line: 0, Column: 21},
	}, imports[0].Range)
}

func TestScan_JavaScriptSyntaxError(t *testing.T) {
	src := []byte("import a from \"./a.js\";\nfunction (\n")

	imports, err := Scan(JavaScript, src)
	require.NoError(t, err)
	require.NotEmpty(t, imports)
	assert.Equal(t, "./a.js", imports[0].Request)
}

func TestScan_CSS(t *testing.T) {
	src := []byte(`@import "./base.css";
@import url("./theme.css");
.hero { background: url("./hero.png"); }
.icon { background: url("data:image/png;base64,AAAA"); }
.tint { color: rgb(0, 0, 0); }
`)

	imports, err := Scan(CSS, src)
	require.NoError(t, err)
	assert.Equal(t, []found{
		{"./base.css", CategoryCSSImport},
		{"./theme.css", CategoryCSSImport},
		{"./hero.png", CategoryURL},
	}, requests(imports))

	assert.Equal(t, Position{Line: 0, Column: 9}, imports[0].Range.Start)
}

func TestScan_HTML(t *testing.T) {
	src := []byte(`<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="./styles/main.css">
  <link rel="icon" href="./favicon.ico">
  <script type="module" src="./src/index.js"></script>
  <script src="./legacy.js"></script>
  <script src="https://cdn.example.com/lib.js"></script>
  <script>console.log("inline")</script>
</head>
</html>
`)

	imports, err := Scan(HTML, src)
	require.NoError(t, err)
	assert.Equal(t, []found{
		{"./styles/main.css", CategoryCSSImport},
		{"./src/index.js", CategoryESM},
		{"./legacy.js", CategoryScript},
	}, requests(imports))
}

func TestScan_Unsupported(t *testing.T) {
	_, err := Scan(Language("php"), []byte("<?php"))
	assert.ErrorContains(t, err, `unsupported language "php"`)
}

func TestAt(t *testing.T) {
	imports, err := Scan(JavaScript, []byte("import a from \"./a.js\";\nrequire(\"./b.js\");\n"))
	require.NoError(t, err)
	require.Len(t, imports, 2)

	imp, ok := At(imports, 0, 17)
	require.True(t, ok)
	assert.Equal(t, "./a.js", imp.Request)

	imp, ok = At(imports, 1, 9)
	require.True(t, ok)
	assert.Equal(t, "./b.js", imp.Request)

	_, ok = At(imports, 0, 2)
	assert.False(t, ok)
}

func TestLanguageFor(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"src/index.js", JavaScript, true},
		{"src/index.MJS", JavaScript, true},
		{"lib/main.cjs", JavaScript, true},
		{"styles/main.css", CSS, true},
		{"index.html", HTML, true},
		{"README.md", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageFor(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsExternal(t *testing.T) {
	tests := []struct {
		request string
		want    bool
	}{
		{"./a.js", false},
		{"lodash", false},
		{"@scope/pkg", false},
		{"npm:lodash", false},
		{"jsr:@std/path", false},
		{"C:/src/a.js", false},
		{"https://cdn.example.com/x.js", true},
		{"data:image/png;base64,AAAA", true},
		{"//cdn.example.com/x.js", true},
		{"#section", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.request, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExternal(tt.request))
		})
	}
}
