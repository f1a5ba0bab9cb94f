package lock

import (
	"slices"

	"kcoord/pkg/primitives"
)

// DependencyGraph tracks wait-for relationships between requesters. An edge
// A→B means A is queued on a lock owned by B. A cycle means none of its
// members can make progress without one of them giving up.
type DependencyGraph struct {
	edges      map[primitives.RequesterID]map[primitives.RequesterID]bool
	cacheValid bool
	lastResult bool
}

// NewDependencyGraph creates an empty wait-for graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		edges: make(map[primitives.RequesterID]map[primitives.RequesterID]bool),
	}
}

// AddEdge records that waiter is blocked behind holder.
func (dg *DependencyGraph) AddEdge(waiter, holder primitives.RequesterID) {
	if waiter == holder {
		return
	}
	if dg.edges[waiter] == nil {
		dg.edges[waiter] = make(map[primitives.RequesterID]bool)
	}
	dg.edges[waiter][holder] = true
	dg.cacheValid = false
}

// RemoveRequester removes every edge that mentions r.
func (dg *DependencyGraph) RemoveRequester(r primitives.RequesterID) {
	delete(dg.edges, r)
	for waiter, holders := range dg.edges {
		delete(holders, r)
		if len(holders) == 0 {
			delete(dg.edges, waiter)
		}
	}
	dg.cacheValid = false
}

// HasCycle reports whether the graph contains a cycle. The result is cached
// until the graph changes.
func (dg *DependencyGraph) HasCycle() bool {
	if dg.cacheValid {
		return dg.lastResult
	}
	dg.lastResult = len(dg.Cycles()) > 0
	dg.cacheValid = true
	return dg.lastResult
}

// Cycles returns one representative path per cycle found by depth-first
// search, starting from the lowest requester id. Each path lists the
// requesters in wait-for order.
func (dg *DependencyGraph) Cycles() [][]primitives.RequesterID {
	visited := make(map[primitives.RequesterID]bool)
	onStack := make(map[primitives.RequesterID]int)
	var path []primitives.RequesterID
	var cycles [][]primitives.RequesterID

	var visit func(r primitives.RequesterID)
	visit = func(r primitives.RequesterID) {
		visited[r] = true
		onStack[r] = len(path)
		path = append(path, r)

		for _, next := range dg.neighbors(r) {
			if idx, ok := onStack[next]; ok {
				cycles = append(cycles, slices.Clone(path[idx:]))
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		path = path[:len(path)-1]
		delete(onStack, r)
	}

	for _, r := range dg.nodes() {
		if !visited[r] {
			visit(r)
		}
	}
	return cycles
}

// Waiting returns every requester with an outgoing edge, in id order.
func (dg *DependencyGraph) Waiting() []primitives.RequesterID {
	return dg.nodes()
}

func (dg *DependencyGraph) nodes() []primitives.RequesterID {
	out := make([]primitives.RequesterID, 0, len(dg.edges))
	for r := range dg.edges {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func (dg *DependencyGraph) neighbors(r primitives.RequesterID) []primitives.RequesterID {
	out := make([]primitives.RequesterID, 0, len(dg.edges[r]))
	for n := range dg.edges[r] {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
