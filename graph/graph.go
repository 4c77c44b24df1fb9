/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package graph builds module graphs: resolved files joined by the imports
// that reach them.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrCycle is returned by TopologicalSort when the graph has an import cycle.
var ErrCycle = errors.New("import cycle")

// Edge is one import from one module to another.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Request  string `json:"request"`
	Category string `json:"category,omitempty"`
}

// Graph is a directed graph of modules keyed by absolute path.
// It is safe for concurrent use.
type Graph struct {
	mu           sync.RWMutex
	nodes        map[string]bool
	entries      map[string]bool
	dependencies map[string][]Edge
	dependents   map[string][]string
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:        make(map[string]bool),
		entries:      make(map[string]bool),
		dependencies: make(map[string][]Edge),
		dependents:   make(map[string][]string),
	}
}

// AddNode records a module. It reports whether the module was new.
func (g *Graph) AddNode(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addNode(path)
}

func (g *Graph) addNode(path string) bool {
	if g.nodes[path] {
		return false
	}
	g.nodes[path] = true
	return true
}

// AddEntry records a module as an entry point.
func (g *Graph) AddEntry(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNode(path)
	g.entries[path] = true
}

// AddEdge records an import, adding both ends as nodes. Repeating an edge
// between the same pair of modules keeps the first.
func (g *Graph) AddEdge(e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNode(e.From)
	g.addNode(e.To)
	for _, existing := range g.dependencies[e.From] {
		if existing.To == e.To {
			return
		}
	}
	g.dependencies[e.From] = append(g.dependencies[e.From], e)
	g.dependents[e.To] = append(g.dependents[e.To], e.From)
}

// Has reports whether path is a node of the graph.
func (g *Graph) Has(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[path]
}

// Nodes returns every module, sorted.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.nodes)
}

// Entries returns the entry modules, sorted.
func (g *Graph) Entries() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedKeys(g.entries)
}

// Edges returns the imports made by path, in the order they were added.
func (g *Graph) Edges(path string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.dependencies[path])
}

// Dependencies returns the modules path imports, sorted.
func (g *Graph) Dependencies(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.deps(path)
}

func (g *Graph) deps(path string) []string {
	edges := g.dependencies[path]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	slices.Sort(out)
	return out
}

// Dependents returns the modules that import path, sorted.
func (g *Graph) Dependents(path string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := slices.Clone(g.dependents[path])
	slices.Sort(out)
	return out
}

// HasCycle returns true if the graph contains an import cycle.
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns the cycle path if one exists, or nil if no cycle.
// The path starts and ends with the same module.
func (g *Graph) FindCycle() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	for _, node := range sortedKeys(g.nodes) {
		if cycle := g.findCycleDFS(node, visited, recStack, nil); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *Graph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		cycleStart := slices.Index(path, node)
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		return append(slices.Clone(path[cycleStart:]), node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.deps(node) {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// TopologicalSort returns modules in dependency order (dependencies first).
// Returns an error wrapping ErrCycle if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCycle, cycle)
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := make(map[string]bool)
	result := make([]string, 0, len(g.nodes))
	for _, node := range sortedKeys(g.nodes) {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}
	return result, nil
}

func (g *Graph) topologicalSortDFS(node string, visited map[string]bool, stack *[]string) {
	visited[node] = true

	for _, dep := range g.deps(node) {
		if !visited[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}

	*stack = append(*stack, node)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
