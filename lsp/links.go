/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package lsp

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"go.uber.org/zap"

	"bennypowers.dev/resolvekit/engine"
	"bennypowers.dev/resolvekit/scan"
)

// document is a scanned document.
type document struct {
	path    string
	text    string
	imports []scan.Import
}

// scanDocument scans the open text of uri, or the file on disk when the
// client has not opened it. Documents in other languages have no imports.
func (s *Server) scanDocument(uri protocol.DocumentUri) (*document, error) {
	path, err := uriToPath(uri)
	if err != nil {
		return nil, err
	}
	doc := &document{path: path}
	lang, ok := scan.LanguageFor(path)
	if !ok {
		return doc, nil
	}

	text, open := s.docs.get(uri)
	if !open {
		data, err := s.host.ReadFile(path)
		if err != nil {
			return nil, err
		}
		text = string(data)
	}
	doc.text = text

	doc.imports, err = scan.Scan(lang, []byte(text))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Server) documentLink(_ *glsp.Context, params *protocol.DocumentLinkParams) ([]protocol.DocumentLink, error) {
	doc, err := s.scanDocument(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	w := s.walkerFor(doc.path)
	links := []protocol.DocumentLink{}
	for _, imp := range doc.imports {
		res, err := w.ResolveImport(context.Background(), doc.path, imp)
		if err != nil {
			engine.Logger().Debug("unresolved import",
				zap.String("path", doc.path),
				zap.String("request", imp.Request),
				zap.Error(err))
			continue
		}
		target := pathToURI(res.Path)
		links = append(links, protocol.DocumentLink{
			Range:  toRange(doc.text, imp.Range),
			Target: &target,
		})
	}
	return links, nil
}

func (s *Server) definition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, err := s.scanDocument(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	line := int(params.Position.Line)
	col := byteColumn(lineAt(doc.text, line), int(params.Position.Character))
	imp, ok := scan.At(doc.imports, line, col)
	if !ok {
		return nil, nil
	}

	res, err := s.walkerFor(doc.path).ResolveImport(context.Background(), doc.path, imp)
	if err != nil {
		engine.Logger().Debug("unresolved definition",
			zap.String("path", doc.path),
			zap.String("request", imp.Request),
			zap.Error(err))
		return nil, nil
	}
	return protocol.Location{URI: pathToURI(res.Path)}, nil
}

// toRange converts a byte-column range to an LSP range in UTF-16 units.
func toRange(text string, r scan.Range) protocol.Range {
	return protocol.Range{
		Start: toPosition(text, r.Start),
		End:   toPosition(text, r.End),
	}
}

func toPosition(text string, p scan.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(p.Line),
		Character: protocol.UInteger(utf16Column(lineAt(text, p.Line), p.Column)),
	}
}
