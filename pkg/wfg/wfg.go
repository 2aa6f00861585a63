// Package wfg implements the wait-for graph used for deadlock
// detection: nodes are processes, an edge P→Q means P waits for a
// resource Q holds, and any directed cycle is a deadlock.
package wfg

import (
	"errors"
	"slices"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/viz"
)

// ErrEmptyNodeID is returned by [Graph.AddNode] and [Graph.AddEdge]
// when a node id is empty. All nodes must have non-empty identifiers.
var ErrEmptyNodeID = errors.New("node ID must not be empty")

// Edge is a directed wait-for dependency between two processes.
type Edge struct {
	From string // Waiting process
	To   string // Process holding the wanted resource
}

// Graph is a directed graph rebuilt from scratch on every detection
// pass. Insertion order is preserved for nodes and edges so snapshots
// and cycle reports are deterministic; duplicate nodes and edges are
// absorbed silently, which keeps the builder loop free of bookkeeping.
//
// The zero value is not usable, use [New]. Graph is not safe for
// concurrent use without external synchronization.
type Graph struct {
	nodes    []string
	nodeSet  map[string]struct{}
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string
}

// New creates an empty wait-for graph.
func New() *Graph {
	return &Graph{
		nodeSet:  make(map[string]struct{}),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
	}
}

// AddNode registers a process node. Adding an existing node is a no-op.
// Returns ErrEmptyNodeID for an empty id.
func (g *Graph) AddNode(id string) error {
	if id == "" {
		return ErrEmptyNodeID
	}
	if _, exists := g.nodeSet[id]; exists {
		return nil
	}
	g.nodeSet[id] = struct{}{}
	g.nodes = append(g.nodes, id)
	return nil
}

// AddEdge records that from waits for to, registering both endpoints
// as nodes if needed. Duplicate edges are absorbed. Returns
// ErrEmptyNodeID if either id is empty.
func (g *Graph) AddEdge(from, to string) error {
	if err := g.AddNode(from); err != nil {
		return err
	}
	if err := g.AddNode(to); err != nil {
		return err
	}

	e := Edge{From: from, To: to}
	if _, exists := g.edgeSet[e]; exists {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[from] = append(g.outgoing[from], to)
	return nil
}

// HasNode reports whether the id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeSet[id]
	return ok
}

// Nodes returns all node ids in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// WaitsFor returns the ids this process has wait-for edges to.
// The returned slice should not be modified.
func (g *Graph) WaitsFor(id string) []string { return g.outgoing[id] }

// Cycles returns every cycle discovered by depth-first search, each as
// the node sequence along the cycle starting at its entry point.
// Traversal follows insertion order, so results are deterministic.
//
// Detection uses white/gray/black coloring with an explicit path
// stack: hitting a gray node means the path from that node's stack
// position to the top is a cycle. Runs in O(N+E).
func (g *Graph) Cycles() [][]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	onPath := make(map[string]int)
	var path []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		onPath[id] = len(path)
		path = append(path, id)

		for _, next := range g.outgoing[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				start := onPath[next]
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				cycles = append(cycles, cycle)
			}
		}

		path = path[:len(path)-1]
		delete(onPath, id)
		color[id] = black
	}

	for _, id := range g.nodes {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// HasCycle reports whether the graph contains at least one cycle.
func (g *Graph) HasCycle() bool { return len(g.Cycles()) > 0 }

// Deadlocked returns the union of all cycle members in first-seen
// order. Processes outside every cycle are not deadlocked even when
// they transitively wait on one.
func (g *Graph) Deadlocked() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, cycle := range g.Cycles() {
		for _, id := range cycle {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Snapshot converts the graph to its wire format, with the deadlocked
// set filled in from cycle detection.
func (g *Graph) Snapshot() viz.GraphSnapshot {
	snap := viz.GraphSnapshot{
		Nodes:           g.Nodes(),
		Edges:           make([]viz.Edge, len(g.edges)),
		DeadlockedNodes: g.Deadlocked(),
	}
	for i, e := range g.edges {
		snap.Edges[i] = viz.Edge{From: e.From, To: e.To}
	}
	return snap
}
