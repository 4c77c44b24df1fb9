/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package scan

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
)

const htmlQuery = `
[(start_tag) (self_closing_tag)] @tag
`

func init() {
	register(HTML, tree_sitter.NewLanguage(tree_sitter_html.Language()), htmlQuery, extractHTML)
}

type attribute struct {
	value string
	node  *tree_sitter.Node
}

func extractHTML(captures map[string]*tree_sitter.Node, src []byte) []Import {
	tag := captures["tag"]
	if tag == nil {
		return nil
	}

	var name string
	attrs := map[string]attribute{}
	for i := uint(0); i < tag.NamedChildCount(); i++ {
		child := tag.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "tag_name":
			name = strings.ToLower(child.Utf8Text(src))
		case "attribute":
			key, attr := readAttribute(child, src)
			if key != "" {
				attrs[key] = attr
			}
		}
	}

	var category string
	var target attribute
	switch name {
	case "script":
		target = attrs["src"]
		category = CategoryScript
		if strings.EqualFold(attrs["type"].value, "module") {
			category = CategoryESM
		}
	case "link":
		if !hasToken(attrs["rel"].value, "stylesheet") {
			return nil
		}
		target = attrs["href"]
		category = CategoryCSSImport
	default:
		return nil
	}
	if target.node == nil {
		return nil
	}
	if imp, ok := importFrom(target.node, src, category); ok {
		return []Import{imp}
	}
	return nil
}

func readAttribute(n *tree_sitter.Node, src []byte) (string, attribute) {
	var key string
	var attr attribute
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "attribute_name":
			key = strings.ToLower(child.Utf8Text(src))
		case "attribute_value":
			attr = attribute{value: child.Utf8Text(src), node: child}
		case "quoted_attribute_value":
			if child.NamedChildCount() > 0 {
				if v := child.NamedChild(0); v != nil {
					attr = attribute{value: v.Utf8Text(src), node: v}
				}
			}
		}
	}
	return key, attr
}

func hasToken(list, token string) bool {
	for _, f := range strings.Fields(list) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}
