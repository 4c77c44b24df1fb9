/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mcp exposes module resolution to MCP clients. The server offers a
// resolve tool for arbitrary requests and an imports tool that scans a file
// and resolves what it imports.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/config"
	"bennypowers.dev/resolvekit/engine"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/graph"
	"bennypowers.dev/resolvekit/resolver"
	"bennypowers.dev/resolvekit/scan"
)

// ServerName identifies the server to clients.
const ServerName = "resolvekit"

// Server is an MCP server over one project.
type Server struct {
	root     string
	cfg      *config.Config
	readable bridge.Readable
	factory  *resolver.Factory
	walker   *graph.Walker
	server   *mcp.Server
}

// NewServer creates a Server for the project at root on host.
func NewServer(host rkfs.FileSystem, root, version string) *Server {
	cfg := config.LoadOrDefault(host, root)
	readable := bridge.NewReadable(host)
	factory := resolver.NewFactoryWithContext(readable, cfg.ContextDir(root))

	s := &Server{
		root:     root,
		cfg:      cfg,
		readable: readable,
		factory:  factory,
		walker:   graph.NewWalker(factory, readable, cfg.ResolveOptions(root)),
		server:   mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve",
		Description: "Resolve module requests to absolute file paths the way a JavaScript bundler does.",
	}, s.resolve)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "imports",
		Description: "List the imports of a JavaScript, CSS or HTML file and the files they resolve to.",
	}, s.imports)
	return s
}

// Run serves over stdin and stdout until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

// path anchors p to the project root.
func (s *Server) path(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.root, p)
}

// ResolveInput is the argument of the resolve tool.
type ResolveInput struct {
	Requests []string `json:"requests" jsonschema:"module requests to resolve"`
	Context  string   `json:"context,omitempty" jsonschema:"directory the requests are issued from, relative to the project root; defaults to the configured context"`
	Type     string   `json:"type,omitempty" jsonschema:"resolver type: normal, loader, context or css; defaults to normal"`
	Category string   `json:"category,omitempty" jsonschema:"dependency category selecting byDependency options, such as esm or commonjs"`
}

// Resolution is the outcome for one request.
type Resolution struct {
	Request  string `json:"request"`
	Path     string `json:"path,omitempty"`
	Query    string `json:"query,omitempty"`
	Fragment string `json:"fragment,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ResolveOutput is the result of the resolve tool.
type ResolveOutput struct {
	Results []Resolution `json:"results"`
}

func (s *Server) resolve(ctx context.Context, _ *mcp.CallToolRequest, in ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
	typ := in.Type
	if typ == "" {
		typ = string(engine.TypeNormal)
	}
	dir := s.cfg.ContextDir(s.root)
	if in.Context != "" {
		dir = s.path(in.Context)
	}

	opts := s.cfg.ResolveOptions(s.root)
	opts.DependencyCategory = in.Category
	r, err := s.factory.Get(typ, opts)
	if err != nil {
		return nil, ResolveOutput{}, err
	}

	out := ResolveOutput{Results: make([]Resolution, 0, len(in.Requests))}
	for _, request := range in.Requests {
		entry := Resolution{Request: request}
		res, err := r.Resolve(ctx, dir, request)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Path, entry.Query, entry.Fragment = res.Path, res.Query, res.Fragment
		}
		out.Results = append(out.Results, entry)
	}
	return nil, out, nil
}

// ImportsInput is the argument of the imports tool.
type ImportsInput struct {
	Path string `json:"path" jsonschema:"file to scan, relative to the project root"`
}

// ImportEntry is one import of a scanned file. Line and column are 1-based.
type ImportEntry struct {
	Request  string `json:"request"`
	Category string `json:"category"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ImportsOutput is the result of the imports tool.
type ImportsOutput struct {
	Path    string        `json:"path"`
	Imports []ImportEntry `json:"imports"`
}

func (s *Server) imports(ctx context.Context, _ *mcp.CallToolRequest, in ImportsInput) (*mcp.CallToolResult, ImportsOutput, error) {
	path := s.path(in.Path)
	lang, ok := scan.LanguageFor(path)
	if !ok {
		return nil, ImportsOutput{}, fmt.Errorf("unsupported file type: %s", in.Path)
	}
	src, err := s.readable.ReadToBuffer(path)
	if err != nil {
		return nil, ImportsOutput{}, fmt.Errorf("failed to read %s: %w", in.Path, err)
	}
	found, err := scan.Scan(lang, src)
	if err != nil {
		return nil, ImportsOutput{}, err
	}

	out := ImportsOutput{Path: path, Imports: make([]ImportEntry, 0, len(found))}
	for _, imp := range found {
		entry := ImportEntry{
			Request:  imp.Request,
			Category: imp.Category,
			Line:     imp.Range.Start.Line + 1,
			Column:   imp.Range.Start.Column + 1,
		}
		res, err := s.walker.ResolveImport(ctx, path, imp)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Path = res.Path
		}
		out.Imports = append(out.Imports, entry)
	}
	return nil, out, nil
}
