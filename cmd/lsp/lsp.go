/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package lsp provides the lsp command for resolvekit.
package lsp

import (
	"github.com/spf13/cobra"

	rkfs "bennypowers.dev/resolvekit/fs"
	"bennypowers.dev/resolvekit/internal/version"
	"bennypowers.dev/resolvekit/lsp"
)

// Cmd is the lsp cobra command.
var Cmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server over stdio",
	Long: `Run a language server that links import requests in JavaScript, CSS and
HTML documents to the files they resolve to, and answers go-to-definition on them.
The project root comes from the client; its config file is loaded from disk.`,
	RunE: run,
}

func init() {
	// Editors commonly pass --stdio; it is the only transport.
	Cmd.Flags().Bool("stdio", true, "Communicate over stdin and stdout")
	_ = Cmd.Flags().MarkHidden("stdio")
}

func run(cmd *cobra.Command, args []string) error {
	return lsp.NewServer(rkfs.NewOSFileSystem(), version.Get()).RunStdio()
}
