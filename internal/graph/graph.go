// Package graph provides a dependency graph for ordering registry components.
package graph

import (
	"errors"
	"sync"
)

// ErrCycleDetected indicates a circular dependency was found among the nodes.
var ErrCycleDetected = errors.New("circular dependency detected")

// Node is anything that can be placed in the graph by name.
type Node interface {
	// NodeName returns the unique name of the node.
	NodeName() string
	// NodeDependencies returns the names of nodes this node requires.
	NodeDependencies() []string
}

// DependencyGraph represents the "requires" relationships between named nodes.
// Insertion order is remembered so every ordering it produces is deterministic.
type DependencyGraph struct {
	mu sync.RWMutex
	// order holds node names in the order they were added.
	order []string
	// nodes is the set of known node names.
	nodes map[string]bool
	// edges maps a node to the in-graph nodes it depends on.
	edges map[string][]string
	// external maps a node to dependencies that are not part of the graph.
	external map[string][]string
	// debugLog is an optional logging function.
	debugLog func(format string, args ...interface{})
}

// New creates a new empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]bool),
		edges:    make(map[string][]string),
		external: make(map[string][]string),
		debugLog: func(format string, args ...interface{}) {}, // no-op by default
	}
}

// SetDebugLog sets the debug logging function.
func (g *DependencyGraph) SetDebugLog(fn func(format string, args ...interface{})) {
	if fn != nil {
		g.debugLog = fn
	}
}

// BuildWithin constructs the graph from nodes, keeping only dependencies that
// point at other nodes in the same set. Dependencies outside the set are
// remembered (see ExternalDependencies) but do not take part in ordering.
// Duplicate names keep their first occurrence.
func (g *DependencyGraph) BuildWithin(nodes []Node) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.debugLog("[graph.Build] building graph from %d nodes", len(nodes))

	// First pass: register all nodes.
	for _, n := range nodes {
		name := n.NodeName()
		if g.nodes[name] {
			g.debugLog("[graph.Build] duplicate node %s ignored", name)
			continue
		}
		g.nodes[name] = true
		g.order = append(g.order, name)
		g.edges[name] = nil
	}

	// Second pass: split dependencies into in-graph edges and external references.
	seen := make(map[string]bool)
	for _, n := range nodes {
		name := n.NodeName()
		if seen[name] {
			continue
		}
		seen[name] = true
		for _, dep := range n.NodeDependencies() {
			if dep == name {
				// A self-reference is a cycle of length one.
				g.edges[name] = append(g.edges[name], dep)
				continue
			}
			if g.nodes[dep] {
				g.edges[name] = append(g.edges[name], dep)
			} else {
				g.external[name] = append(g.external[name], dep)
			}
		}
	}

	g.debugLog("[graph.Build] final edges map: %v", g.edges)
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked is the internal implementation that assumes the lock is held.
func (g *DependencyGraph) hasCycleLocked() bool {
	// Color states: 0 = white (unvisited), 1 = gray (in progress), 2 = black (done).
	colors := make(map[string]int, len(g.nodes))

	var visit func(name string) bool
	visit = func(name string) bool {
		colors[name] = 1

		for _, dep := range g.edges[name] {
			switch colors[dep] {
			case 1:
				// Back edge.
				return true
			case 0:
				if visit(dep) {
					return true
				}
			}
		}

		colors[name] = 2
		return false
	}

	for _, name := range g.order {
		if colors[name] == 0 && visit(name) {
			return true
		}
	}
	return false
}

// TopologicalSort returns node names in an order where all dependencies come
// before the nodes that depend on them, using Kahn's algorithm with a FIFO
// queue seeded in insertion order.
// On a cycle it returns the partial ordering it managed to produce together
// with ErrCycleDetected.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	inDegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, name := range g.order {
		inDegree[name] = len(g.edges[name])
		for _, dep := range g.edges[name] {
			dependents[dep] = append(dependents[dep], name)
		}
	}

	queue := make([]string, 0, len(g.order))
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	result := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)

		for _, dependent := range dependents[name] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) < len(g.order) {
		g.debugLog("[graph.TopologicalSort] cycle: ordered %d of %d nodes", len(result), len(g.order))
		return result, ErrCycleDetected
	}
	return result, nil
}

// Names returns node names in insertion order.
func (g *DependencyGraph) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// GetDependencies returns the in-graph nodes the given node depends on.
func (g *DependencyGraph) GetDependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.edges[name]...)
}

// ExternalDependencies returns dependencies of name that are not in the graph.
func (g *DependencyGraph) ExternalDependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.external[name]...)
}
