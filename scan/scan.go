/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package scan extracts import requests from source files.
//
// JavaScript, CSS and HTML are parsed with tree-sitter. Every import carries
// the dependency category its syntax implies ("esm" for import statements,
// "commonjs" for require calls, "css-import" for @import) so that a resolver
// can apply the matching byDependency options.
package scan

import (
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language identifies a source language the scanner understands.
type Language string

const (
	JavaScript Language = "javascript"
	CSS        Language = "css"
	HTML       Language = "html"
)

// Dependency categories assigned to imports.
const (
	CategoryESM       = "esm"
	CategoryCommonJS  = "commonjs"
	CategoryCSSImport = "css-import"
	CategoryURL       = "url"
	CategoryScript    = "script"
)

var extensions = map[string]Language{
	".js":   JavaScript,
	".mjs":  JavaScript,
	".cjs":  JavaScript,
	".jsx":  JavaScript,
	".css":  CSS,
	".html": HTML,
	".htm":  HTML,
}

// LanguageFor returns the language of the file at path, judged by extension.
func LanguageFor(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Position is a zero-based line and byte column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range spans the request text, excluding quotes.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether the position lies within r. The end is inclusive
// so a cursor just after the last character still counts.
func (r Range) Contains(line, col int) bool {
	if line < r.Start.Line || line > r.End.Line {
		return false
	}
	if line == r.Start.Line && col < r.Start.Column {
		return false
	}
	if line == r.End.Line && col > r.End.Column {
		return false
	}
	return true
}

// Import is one request found in a source file.
type Import struct {
	Request  string `json:"request"`
	Category string `json:"category"`
	Range    Range  `json:"range"`
}

// Scan returns the imports in src, in source order. Syntax errors do not
// fail the scan; whatever the parser recovers is reported.
func Scan(lang Language, src []byte) ([]Import, error) {
	g, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
	q, err := g.query()
	if err != nil {
		return nil, err
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(g.language); err != nil {
		return nil, fmt.Errorf("failed to load %s grammar: %w", lang, err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s source", lang)
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	names := q.CaptureNames()
	var found []Import
	matches := qc.Matches(q, tree.RootNode(), src)
	for m := matches.Next(); m != nil; m = matches.Next() {
		captures := make(map[string]*tree_sitter.Node, len(m.Captures))
		for i := range m.Captures {
			captures[names[m.Captures[i].Index]] = &m.Captures[i].Node
		}
		found = append(found, g.extract(captures, src)...)
	}

	return dedupe(found), nil
}

// At returns the import whose request covers the position.
func At(imports []Import, line, col int) (Import, bool) {
	for _, imp := range imports {
		if imp.Range.Contains(line, col) {
			return imp, true
		}
	}
	return Import{}, false
}

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]+:`)

// IsExternal reports whether request points outside the filesystem: a URL,
// a protocol-relative URL or a pure fragment. npm: and jsr: requests are
// module requests, not URLs.
func IsExternal(request string) bool {
	switch {
	case request == "", strings.HasPrefix(request, "#"), strings.HasPrefix(request, "//"):
		return true
	case strings.HasPrefix(request, "npm:"), strings.HasPrefix(request, "jsr:"):
		return false
	}
	return schemePattern.MatchString(request)
}

// grammar binds a tree-sitter language to the query that finds its imports
// and the function that turns one query match into imports.
type grammar struct {
	language *tree_sitter.Language
	query    func() (*tree_sitter.Query, error)
	extract  func(captures map[string]*tree_sitter.Node, src []byte) []Import
}

var grammars = map[Language]*grammar{}

func register(lang Language, language *tree_sitter.Language, source string, extract func(map[string]*tree_sitter.Node, []byte) []Import) {
	grammars[lang] = &grammar{
		language: language,
		query: sync.OnceValues(func() (*tree_sitter.Query, error) {
			q, qerr := tree_sitter.NewQuery(language, source)
			if qerr != nil {
				return nil, fmt.Errorf("invalid %s import query: %s", lang, qerr.Error())
			}
			return q, nil
		}),
		extract: extract,
	}
}

// importFrom builds an Import for the text of n, trimming surrounding quotes.
func importFrom(n *tree_sitter.Node, src []byte, category string) (Import, bool) {
	text := n.Utf8Text(src)
	start, end := n.StartPosition(), n.EndPosition()
	startCol, endCol := int(start.Column), int(end.Column)

	if len(text) >= 2 && (text[0] == '"' || text[0] == '\'') && text[len(text)-1] == text[0] {
		text = text[1 : len(text)-1]
		startCol++
		endCol--
	}
	text = strings.TrimSpace(text)
	if IsExternal(text) {
		return Import{}, false
	}
	return Import{
		Request:  text,
		Category: category,
		Range: Range{
			Start: Position{Line: int(start.Row), Column: startCol},
			End:   Position{Line: int(end.Row), Column: endCol},
		},
	}, true
}

// dedupe drops repeated matches of the same source range and orders the
// result by position. A url match yields to any other category at the same
// range, since @import url(...) is also a plain url() call.
func dedupe(imports []Import) []Import {
	seen := make(map[Position]int, len(imports))
	var out []Import
	for _, imp := range imports {
		if i, ok := seen[imp.Range.Start]; ok {
			if out[i].Category == CategoryURL {
				out[i] = imp
			}
			continue
		}
		seen[imp.Range.Start] = len(out)
		out = append(out, imp)
	}
	slices.SortStableFunc(out, func(a, b Import) int {
		if a.Range.Start.Line != b.Range.Start.Line {
			return a.Range.Start.Line - b.Range.Start.Line
		}
		return a.Range.Start.Column - b.Range.Start.Column
	})
	return out
}
