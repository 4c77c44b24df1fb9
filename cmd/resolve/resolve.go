/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolve provides the resolve command for resolvekit.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bennypowers.dev/resolvekit/cmd/project"
	"bennypowers.dev/resolvekit/engine"
	"bennypowers.dev/resolvekit/resolver"
)

// Cmd is the resolve cobra command.
var Cmd = &cobra.Command{
	Use:   "resolve [requests...]",
	Short: "Resolve module requests to files",
	Long: `Resolve module requests the way a bundler would, using the project's
resolve configuration, and print where each one leads.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("context", "c", "", "Directory requests are issued from (default: config context)")
	Cmd.Flags().StringP("type", "t", string(engine.TypeNormal), "Resolver type: normal, loader, context, css")
	Cmd.Flags().String("category", "", "Dependency category selecting byDependency options (e.g. esm, commonjs, url)")
	Cmd.Flags().Bool("to-context", false, "Resolve to directories instead of files")
	Cmd.Flags().StringP("format", "f", "table", "Output format: table, json")
}

// row is one line of output.
type row struct {
	Request  string `json:"request"`
	Path     string `json:"path"`
	Query    string `json:"query,omitempty"`
	Fragment string `json:"fragment,omitempty"`
}

func run(cmd *cobra.Command, args []string) error {
	contextFlag, _ := cmd.Flags().GetString("context")
	typ, _ := cmd.Flags().GetString("type")
	category, _ := cmd.Flags().GetString("category")
	format, _ := cmd.Flags().GetString("format")

	p, err := project.Open()
	if err != nil {
		return err
	}

	dir := p.ContextDir(contextFlag)
	opts := p.Config.ResolveOptions(p.Root)
	if category != "" {
		opts.DependencyCategory = category
	}
	if cmd.Flags().Changed("to-context") {
		toContext, _ := cmd.Flags().GetBool("to-context")
		opts.ResolveToContext = &toContext
	}

	r, err := p.Factory(dir).Get(typ, opts)
	if err != nil {
		return err
	}

	rows, err := resolveRequests(cmd.Context(), r, dir, args)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return writeJSON(cmd.OutOrStdout(), rows)
	case "table":
		return writeTable(cmd.OutOrStdout(), rows)
	default:
		return fmt.Errorf("unknown format %q: expected table or json", format)
	}
}

func resolveRequests(ctx context.Context, r *resolver.Resolver, dir string, requests []string) ([]row, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := r.ResolveAll(ctx, dir, requests)
	if err != nil {
		return nil, err
	}
	rows := make([]row, len(results))
	for i, res := range results {
		rows[i] = row{
			Request:  requests[i],
			Path:     res.Path,
			Query:    res.Query,
			Fragment: res.Fragment,
		}
	}
	return rows, nil
}

func writeTable(w io.Writer, rows []row) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%-40s %s%s%s\n", r.Request, r.Path, r.Query, r.Fragment); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, rows []row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
