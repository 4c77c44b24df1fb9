/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package mcp provides the mcp command for resolvekit.
package mcp

import (
	"context"

	"github.com/spf13/cobra"

	"bennypowers.dev/resolvekit/cmd/project"
	"bennypowers.dev/resolvekit/internal/version"
	"bennypowers.dev/resolvekit/mcp"
)

// Cmd is the mcp cobra command.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server over stdio",
	Long: `Run a Model Context Protocol server for the project. It offers two tools:

  resolve  resolve module requests with a chosen resolver type and dependency category
  imports  list the imports of a file and the files they resolve to`,
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	p, err := project.Open()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return mcp.NewServer(p.Host, p.Root, version.Get()).Run(ctx)
}
