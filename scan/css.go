/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package scan

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

const cssQuery = `
(import_statement
  (string_value) @import)

(import_statement
  (call_expression
    (function_name) @fn
    (arguments [(string_value) (plain_value)] @import)))

(call_expression
  (function_name) @fn
  (arguments [(string_value) (plain_value)] @url))
`

func init() {
	register(CSS, tree_sitter.NewLanguage(tree_sitter_css.Language()), cssQuery, extractCSS)
}

func extractCSS(captures map[string]*tree_sitter.Node, src []byte) []Import {
	if fn, ok := captures["fn"]; ok && !strings.EqualFold(fn.Utf8Text(src), "url") {
		return nil
	}
	category, n := CategoryCSSImport, captures["import"]
	if n == nil {
		category, n = CategoryURL, captures[CategoryURL]
	}
	if n == nil {
		return nil
	}
	if imp, ok := importFrom(n, src, category); ok {
		return []Import{imp}
	}
	return nil
}
