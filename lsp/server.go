/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package lsp implements a language server that links import requests in
// JavaScript, CSS and HTML documents to the files they resolve to.
package lsp

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/config"
	"bennypowers.dev/resolvekit/engine"
	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/graph"
	"bennypowers.dev/resolvekit/resolver"
)

// ServerName is reported to clients during initialization.
const ServerName = "resolvekit"

// Server is a resolvekit language server.
type Server struct {
	host    rkfs.FileSystem
	version string
	docs    *documents
	handler protocol.Handler

	mu     sync.RWMutex
	root   string
	walker *graph.Walker
}

// NewServer creates a Server reading project files from host.
func NewServer(host rkfs.FileSystem, version string) *Server {
	s := &Server{host: host, version: version, docs: newDocuments()}
	s.handler = protocol.Handler{
		Initialize:               s.initialize,
		Initialized:              s.initialized,
		Shutdown:                 s.shutdown,
		SetTrace:                 s.setTrace,
		TextDocumentDidOpen:      s.didOpen,
		TextDocumentDidChange:    s.didChange,
		TextDocumentDidClose:     s.didClose,
		TextDocumentDefinition:   s.definition,
		TextDocumentDocumentLink: s.documentLink,
	}
	return s
}

// RunStdio serves the protocol over stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	return glspserver.NewServer(&s.handler, ServerName, false).RunStdio()
}

// Open points the server at a project root, loading its config file.
func (s *Server) Open(root string) {
	cfg := config.LoadOrDefault(s.host, root)
	readable := bridge.NewReadable(s.host)
	factory := resolver.NewFactoryWithContext(readable, cfg.ContextDir(root))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.walker = graph.NewWalker(factory, readable, cfg.ResolveOptions(root))
	engine.Logger().Info("opened project", zap.String("root", root))
}

// Root returns the project root, or "" before a project is opened.
func (s *Server) Root() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// walkerFor returns the project walker, opening the document's directory as
// the project when the client sent no root.
func (s *Server) walkerFor(path string) *graph.Walker {
	s.mu.RLock()
	w := s.walker
	s.mu.RUnlock()
	if w != nil {
		return w
	}
	s.Open(filepath.Dir(path))
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walker
}

func (s *Server) initialize(_ *glsp.Context, params *protocol.InitializeParams) (any, error) {
	var root string
	switch {
	case params.RootURI != nil:
		path, err := uriToPath(*params.RootURI)
		if err != nil {
			return nil, err
		}
		root = path
	case params.RootPath != nil:
		root = *params.RootPath
	}
	if root != "" {
		s.Open(root)
	}

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull
	capabilities.DefinitionProvider = true
	capabilities.DocumentLinkProvider = &protocol.DocumentLinkOptions{}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(_ *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.docs.open(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) didChange(_ *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if err := s.docs.change(params.TextDocument.URI, params.ContentChanges); err != nil {
		return fmt.Errorf("didChange: %w", err)
	}
	return nil
}

func (s *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.docs.close(params.TextDocument.URI)
	return nil
}
