/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package scan

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

const javascriptQuery = `
(import_statement
  source: (string (string_fragment) @esm))

(export_statement
  source: (string (string_fragment) @esm))

(call_expression
  function: (import)
  arguments: (arguments . (string (string_fragment) @esm)))

(call_expression
  function: (identifier) @fn
  arguments: (arguments . (string (string_fragment) @commonjs)))
`

func init() {
	register(JavaScript, tree_sitter.NewLanguage(tree_sitter_javascript.Language()), javascriptQuery, extractJavaScript)
}

func extractJavaScript(captures map[string]*tree_sitter.Node, src []byte) []Import {
	if n, ok := captures[CategoryESM]; ok {
		if imp, ok := importFrom(n, src, CategoryESM); ok {
			return []Import{imp}
		}
		return nil
	}
	fn, ok := captures["fn"]
	if !ok || fn.Utf8Text(src) != "require" {
		return nil
	}
	if imp, ok := importFrom(captures[CategoryCommonJS], src, CategoryCommonJS); ok {
		return []Import{imp}
	}
	return nil
}
