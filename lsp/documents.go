/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// documents holds the text of open documents by URI.
type documents struct {
	mu   sync.RWMutex
	text map[protocol.DocumentUri]string
}

func newDocuments() *documents {
	return &documents{text: map[protocol.DocumentUri]string{}}
}

func (d *documents) open(uri protocol.DocumentUri, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text[uri] = text
}

func (d *documents) close(uri protocol.DocumentUri) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.text, uri)
}

func (d *documents) get(uri protocol.DocumentUri) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	text, ok := d.text[uri]
	return text, ok
}

// change applies content changes in order. Whole-document changes replace the
// text; ranged changes splice it.
func (d *documents) change(uri protocol.DocumentUri, changes []any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	text, ok := d.text[uri]
	if !ok {
		return fmt.Errorf("document %s is not open", uri)
	}
	for _, c := range changes {
		switch c := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			if c.Range == nil {
				text = c.Text
				continue
			}
			start := offsetOf(text, c.Range.Start)
			end := offsetOf(text, c.Range.End)
			if end < start {
				start, end = end, start
			}
			text = text[:start] + c.Text + text[end:]
		default:
			return fmt.Errorf("unsupported content change %T", c)
		}
	}
	d.text[uri] = text
	return nil
}

// uriToPath converts a file URI to a filesystem path.
func uriToPath(uri protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(uri))
	if err != nil {
		return "", fmt.Errorf("invalid document URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported URI scheme %q", u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

// pathToURI converts an absolute filesystem path to a file URI.
func pathToURI(path string) protocol.DocumentUri {
	return protocol.DocumentUri((&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String())
}

// lineAt returns line n of text without its terminator.
func lineAt(text string, n int) string {
	for i := 0; i < n; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	return strings.TrimSuffix(text, "\r")
}

// byteColumn converts a UTF-16 character offset within line to a byte offset.
func byteColumn(line string, character int) int {
	units := 0
	for i, r := range line {
		if units >= character {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// utf16Column converts a byte offset within line to a UTF-16 character offset.
func utf16Column(line string, col int) int {
	if col > len(line) {
		col = len(line)
	}
	units := 0
	for _, r := range line[:col] {
		units += utf16.RuneLen(r)
	}
	return units
}

// offsetOf converts an LSP position to a byte offset in text.
func offsetOf(text string, pos protocol.Position) int {
	offset := 0
	for i := 0; i < int(pos.Line); i++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return len(text)
		}
		offset += nl + 1
	}
	rest := text[offset:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return offset + byteColumn(rest, int(pos.Character))
}
