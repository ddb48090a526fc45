// Package graph converts a populated File Record tree into a serializable
// node/edge graph, and answers reverse-reachability ("impacted") queries
// over it.
//
// Built by walking model.DependencyRecord edges, with dynamic and
// unresolved edges represented as synthetic nodes instead of being dropped.
package graph

import (
	"encoding/json"
	"sort"

	"github.com/modwalk/cartographer/internal/model"
)

// Synthetic node prefixes for edges that do not lead to a real File
// Record, so every Dependency Record still contributes a visible edge in
// the exported graph.
const (
	DynamicPrefix    = "dynamic:"
	UnresolvedPrefix = "unresolved:"
)

// Graph is a directed dependency graph keyed by absolute file path (or a
// synthetic node for dynamic/unresolved edges).
type Graph struct {
	edges   map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

// New constructs an empty Graph.
func New() *Graph {
	return &Graph{
		edges:   make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddEdge records a directed edge from -> to. Self-edges and edges with an
// empty endpoint are ignored.
func (g *Graph) AddEdge(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	if _, ok := g.edges[from]; !ok {
		g.edges[from] = make(map[string]struct{})
	}
	g.edges[from][to] = struct{}{}

	if _, ok := g.reverse[to]; !ok {
		g.reverse[to] = make(map[string]struct{})
	}
	g.reverse[to][from] = struct{}{}
}

// Touch ensures a node appears in the graph even if it has no edges yet
// (e.g. a leaf file with zero dependencies).
func (g *Graph) Touch(n string) {
	if n == "" {
		return
	}
	if _, ok := g.edges[n]; !ok {
		g.edges[n] = make(map[string]struct{})
	}
	if _, ok := g.reverse[n]; !ok {
		g.reverse[n] = make(map[string]struct{})
	}
}

// Nodes returns every node that appears as a source or destination,
// sorted for deterministic output.
func (g *Graph) Nodes() []string {
	seen := map[string]struct{}{}
	for n := range g.edges {
		seen[n] = struct{}{}
	}
	for n := range g.reverse {
		seen[n] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Impacted returns every node that directly or indirectly depends on
// start, by walking the reverse adjacency map ("if I change this file,
// which other files are affected").
func (g *Graph) Impacted(start string) []string {
	visited := map[string]bool{}
	var dfs func(n string)
	dfs = func(n string) {
		for pred := range g.reverse[n] {
			if !visited[pred] {
				visited[pred] = true
				dfs(pred)
			}
		}
	}
	dfs(start)

	out := make([]string, 0, len(visited))
	for n := range visited {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Edge is one directed dependency edge.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Edges returns every edge in the graph, sorted for deterministic output.
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	for from, tos := range g.edges {
		for to := range tos {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// MarshalJSON renders the graph as {"nodes": [...], "edges": [{"from":...,
// "to":...}, ...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Nodes []string `json:"nodes"`
		Edges []Edge   `json:"edges"`
	}{
		Nodes: g.Nodes(),
		Edges: g.Edges(),
	})
}

// FromFileRecord walks a populated File Record tree (as returned by
// cartographer.Cartographer.Analyze) and builds an exportable Graph. Each
// Dependency Record contributes an edge; dynamic and unresolved dependencies
// point at a synthetic node (DynamicPrefix/UnresolvedPrefix + the textual
// path as written) instead of being dropped. Records of one file that lead
// to the same node share a single edge, and a file importing itself adds
// no edge (AddEdge ignores self-edges).
func FromFileRecord(root *model.FileRecord) *Graph {
	g := New()
	visited := map[*model.FileRecord]bool{}

	var walk func(f *model.FileRecord)
	walk = func(f *model.FileRecord) {
		if visited[f] {
			return
		}
		visited[f] = true
		g.Touch(f.Path)

		for _, dep := range f.Dependencies() {
			switch {
			case dep.File != nil:
				g.AddEdge(f.Path, dep.File.Path)
				walk(dep.File)
			case dep.Static:
				g.AddEdge(f.Path, UnresolvedPrefix+dep.Path)
			default:
				g.AddEdge(f.Path, DynamicPrefix+dep.Path)
			}
		}
	}
	walk(root)
	return g
}
