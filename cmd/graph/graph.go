/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package graph provides the graph command for resolvekit.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/resolvekit/cmd/project"
	mgraph "bennypowers.dev/resolvekit/graph"
)

// Cmd is the graph cobra command.
var Cmd = &cobra.Command{
	Use:   "graph [requests...]",
	Short: "Print the module graph of the entries",
	Long: `Resolve each entry, follow its imports, and print the resulting module graph.
Without arguments the config file's entries are used.

Formats:
  tree  indented import tree per entry; (*) marks a module shown earlier
  json  entries and modules with their resolved imports
  dot   Graphviz digraph`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("context", "c", "", "Directory requests are issued from (default: config context)")
	Cmd.Flags().StringP("format", "f", "tree", "Output format: tree, json, dot")
	Cmd.Flags().Bool("no-cycles", false, "Fail when the graph contains an import cycle")
}

func run(cmd *cobra.Command, args []string) error {
	contextFlag, _ := cmd.Flags().GetString("context")
	format, _ := cmd.Flags().GetString("format")
	noCycles, _ := cmd.Flags().GetBool("no-cycles")

	var write func(io.Writer, *mgraph.Graph, func(string) string) error
	switch format {
	case "tree":
		write = writeTree
	case "json":
		write = writeJSON
	case "dot":
		write = writeDOT
	default:
		return fmt.Errorf("unknown format %q: expected tree, json or dot", format)
	}

	p, err := project.Open()
	if err != nil {
		return err
	}

	requests := args
	if len(requests) == 0 {
		requests, err = p.Config.ExpandEntries(p.Host, p.Root)
		if err != nil {
			return fmt.Errorf("error expanding entries: %w", err)
		}
	}
	if len(requests) == 0 {
		return fmt.Errorf("no entries: pass requests or set entries in the config file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	dir := p.ContextDir(contextFlag)
	g, err := p.Walker(dir).Walk(ctx, dir, requests)
	if err != nil {
		return err
	}

	name := relativeTo(p.Root)
	if err := write(cmd.OutOrStdout(), g, name); err != nil {
		return err
	}
	if noCycles {
		return checkCycles(g, name)
	}
	return nil
}

func checkCycles(g *mgraph.Graph, name func(string) string) error {
	cycle := g.FindCycle()
	if cycle == nil {
		return nil
	}
	names := make([]string, len(cycle))
	for i, path := range cycle {
		names[i] = name(path)
	}
	return fmt.Errorf("%w: %s", mgraph.ErrCycle, strings.Join(names, " -> "))
}

// relativeTo names modules relative to root, keeping paths outside it absolute.
func relativeTo(root string) func(string) string {
	return func(path string) string {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return path
		}
		return filepath.ToSlash(rel)
	}
}

func writeTree(w io.Writer, g *mgraph.Graph, name func(string) string) error {
	printed := map[string]bool{}
	for _, entry := range g.Entries() {
		if _, err := fmt.Fprintln(w, name(entry)); err != nil {
			return err
		}
		printed[entry] = true
		if err := writeBranches(w, g, name, entry, "", printed, map[string]bool{entry: true}); err != nil {
			return err
		}
	}
	return nil
}

func writeBranches(w io.Writer, g *mgraph.Graph, name func(string) string, node, prefix string, printed, stack map[string]bool) error {
	deps := g.Dependencies(node)
	for i, dep := range deps {
		branch, indent := "├── ", "│   "
		if i == len(deps)-1 {
			branch, indent = "└── ", "    "
		}
		var err error
		switch {
		case stack[dep]:
			_, err = fmt.Fprintf(w, "%s%s%s (cycle)\n", prefix, branch, name(dep))
		case printed[dep]:
			_, err = fmt.Fprintf(w, "%s%s%s (*)\n", prefix, branch, name(dep))
		default:
			if _, err = fmt.Fprintf(w, "%s%s%s\n", prefix, branch, name(dep)); err == nil {
				printed[dep] = true
				stack[dep] = true
				err = writeBranches(w, g, name, dep, prefix+indent, printed, stack)
				delete(stack, dep)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type jsonImport struct {
	Request  string `json:"request"`
	Category string `json:"category,omitempty"`
	Path     string `json:"path"`
}

type jsonModule struct {
	Path    string       `json:"path"`
	Imports []jsonImport `json:"imports,omitempty"`
}

type jsonGraph struct {
	Entries []string     `json:"entries"`
	Modules []jsonModule `json:"modules"`
	Cycle   []string     `json:"cycle,omitempty"`
}

func writeJSON(w io.Writer, g *mgraph.Graph, name func(string) string) error {
	out := jsonGraph{}
	for _, entry := range g.Entries() {
		out.Entries = append(out.Entries, name(entry))
	}
	for _, node := range g.Nodes() {
		m := jsonModule{Path: name(node)}
		for _, e := range g.Edges(node) {
			m.Imports = append(m.Imports, jsonImport{Request: e.Request, Category: e.Category, Path: name(e.To)})
		}
		out.Modules = append(out.Modules, m)
	}
	for _, path := range g.FindCycle() {
		out.Cycle = append(out.Cycle, name(path))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeDOT(w io.Writer, g *mgraph.Graph, name func(string) string) error {
	var b strings.Builder
	b.WriteString("digraph modules {\n")
	entries := map[string]bool{}
	for _, entry := range g.Entries() {
		entries[entry] = true
	}
	for _, node := range g.Nodes() {
		if entries[node] {
			fmt.Fprintf(&b, "  %s [shape=box];\n", strconv.Quote(name(node)))
		} else {
			fmt.Fprintf(&b, "  %s;\n", strconv.Quote(name(node)))
		}
	}
	for _, node := range g.Nodes() {
		for _, e := range g.Edges(node) {
			fmt.Fprintf(&b, "  %s -> %s [label=%s];\n",
				strconv.Quote(name(e.From)), strconv.Quote(name(e.To)), strconv.Quote(e.Request))
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
