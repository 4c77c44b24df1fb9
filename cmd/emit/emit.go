/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package emit provides the emit command for resolvekit.
package emit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bennypowers.dev/resolvekit/bridge"
	"bennypowers.dev/resolvekit/cmd/project"
	"bennypowers.dev/resolvekit/engine"
	"bennypowers.dev/resolvekit/graph"
	"bennypowers.dev/resolvekit/internal/logger"
	"bennypowers.dev/resolvekit/resolver"
)

// Cmd is the emit cobra command.
var Cmd = &cobra.Command{
	Use:   "emit [requests...]",
	Short: "Resolve entries and copy them into the output directory",
	Long: `Resolve each entry request and write the files they lead to into the
output directory. Without arguments the config file's entries are used.
With --follow, every module the entries import is emitted too.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringP("context", "c", "", "Directory requests are issued from (default: config context)")
	Cmd.Flags().StringP("out", "o", "", "Output directory (default: config output.path)")
	Cmd.Flags().Bool("clean", false, "Remove the output directory before writing")
	Cmd.Flags().Bool("dry-run", false, "Resolve and read entries without writing anything")
	Cmd.Flags().Bool("follow", false, "Also emit every module the entries import, transitively")
}

func run(cmd *cobra.Command, args []string) error {
	contextFlag, _ := cmd.Flags().GetString("context")
	outFlag, _ := cmd.Flags().GetString("out")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	follow, _ := cmd.Flags().GetBool("follow")

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
		return fmt.Errorf("nothing to emit: pass requests or set entries in the config file")
	}

	dir := p.ContextDir(contextFlag)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var paths []string
	if follow {
		paths, err = followPaths(ctx, p.Walker(dir), dir, requests)
	} else {
		var r *resolver.Resolver
		r, err = p.Factory(dir).Get(string(engine.TypeNormal), p.Config.ResolveOptions(p.Root))
		if err == nil {
			paths, err = resolvePaths(ctx, r, dir, requests)
		}
	}
	if err != nil {
		return err
	}

	assets, err := collectAssets(bridge.NewReadable(p.Host), dir, p.Root, paths)
	if err != nil {
		return err
	}

	out := engine.Output{Path: p.Config.OutputDir(p.Root), Clean: p.Config.Output.Clean}
	if outFlag != "" {
		out.Path = p.Path(outFlag)
	}
	if cmd.Flags().Changed("clean") {
		out.Clean, _ = cmd.Flags().GetBool("clean")
	}

	var emitter *engine.Emitter
	if dryRun {
		emitter = engine.NewEmitter(nil)
	} else {
		emitter = engine.NewEmitter(bridge.NewWritable(p.Host))
	}

	stats, err := emitter.Emit(ctx, out, assets)
	if err != nil {
		return err
	}
	for _, dir := range stats.Created {
		logger.Debug("created %s", dir)
	}
	for _, path := range stats.Written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if dryRun {
		logger.Info("dry run: %d files not written", len(stats.Written))
	}
	return nil
}

// resolvePaths resolves every request and returns the distinct resolved
// paths in request order.
func resolvePaths(ctx context.Context, r *resolver.Resolver, dir string, requests []string) ([]string, error) {
	results, err := r.ResolveAll(ctx, dir, requests)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(results))
	paths := make([]string, 0, len(results))
	for _, res := range results {
		if !seen[res.Path] {
			seen[res.Path] = true
			paths = append(paths, res.Path)
		}
	}
	return paths, nil
}

// followPaths walks the module graph of requests and returns every module,
// dependencies first. A graph with a cycle has no such order; its modules
// are returned sorted.
func followPaths(ctx context.Context, w *graph.Walker, dir string, requests []string) ([]string, error) {
	g, err := w.Walk(ctx, dir, requests)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if errors.Is(err, graph.ErrCycle) {
		logger.Warn("%v; emitting modules in path order", err)
		return g.Nodes(), nil
	}
	return order, err
}

// collectAssets reads each path and names it in the output tree.
func collectAssets(fs bridge.Readable, dir, root string, paths []string) ([]engine.Asset, error) {
	assets := make([]engine.Asset, 0, len(paths))
	for _, path := range paths {
		data, err := fs.ReadToBuffer(path)
		if err != nil {
			return nil, err
		}
		name, err := assetName(dir, root, path)
		if err != nil {
			return nil, err
		}
		assets = append(assets, engine.Asset{Name: name, Data: data})
	}
	return assets, nil
}

// assetName places a resolved file in the output tree: relative to the
// context directory when inside it, otherwise relative to the project root.
func assetName(dir, root, path string) (string, error) {
	for _, base := range []string{dir, root} {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel), nil
		}
	}
	return "", fmt.Errorf("%w: %s is outside the project", engine.ErrInvalidAsset, path)
}
