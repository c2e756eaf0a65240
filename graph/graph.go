// Package graph implements the directed acyclic graph of operations keyed
// by operation id, its deterministic topological sort, and a Graphviz
// debug export.
package graph

import (
	"github.com/google/btree"

	"github.com/lw64/graphdoc/hash"
)

// Graph is a directed acyclic graph whose nodes are keyed by operation id
// and whose payloads are caller-supplied. Edges encode the reverse of
// previous_operations: add_link(a, b) means b declared a in its
// previous_operations, i.e. a must be emitted before b.
type Graph[T any] struct {
	nodes map[string]*node[T]
	// order preserves node insertion order so Dot output and any
	// iteration that doesn't care about topological order is still
	// reproducible across runs with the same input.
	order []string
}

type node[T any] struct {
	id      hash.Hash
	payload T
	// outgoing holds the hex ids of successors (nodes that declared this
	// node in their previous_operations).
	outgoing []string
	inDegree int
}

// New returns an empty Graph.
func New[T any]() *Graph[T] {
	return &Graph[T]{nodes: make(map[string]*node[T])}
}

// AddNode inserts a node, or replaces its payload if the id is already
// present. Replacing a node does not affect its edges.
func (g *Graph[T]) AddNode(id hash.Hash, payload T) {
	key := id.String()
	if existing, ok := g.nodes[key]; ok {
		existing.payload = payload
		return
	}
	g.nodes[key] = &node[T]{id: id, payload: payload}
	g.order = append(g.order, key)
}

// AddLink inserts an edge from -> to. It returns false without modifying
// the graph if either endpoint is missing.
func (g *Graph[T]) AddLink(from, to hash.Hash) bool {
	fromNode, ok := g.nodes[from.String()]
	if !ok {
		return false
	}
	toNode, ok := g.nodes[to.String()]
	if !ok {
		return false
	}
	fromNode.outgoing = append(fromNode.outgoing, to.String())
	toNode.inDegree++
	return true
}

// Len reports the number of nodes.
func (g *Graph[T]) Len() int { return len(g.nodes) }

// Payload returns the payload stored for id, if present.
func (g *Graph[T]) Payload(id hash.Hash) (T, bool) {
	n, ok := g.nodes[id.String()]
	if !ok {
		var zero T
		return zero, false
	}
	return n.payload, true
}

// readyItem orders candidates in a btree by hex id, giving Kahn's algorithm
// its deterministic lexicographic tie-break (spec §4.3 step 3).
type readyItem string

func (a readyItem) Less(than btree.Item) bool {
	return a < than.(readyItem)
}

// Sort performs the deterministic topological sort described in spec §4.3:
// Kahn's algorithm with a lexicographically-ordered ready set. It fails
// with ErrUnconnectedNode if the graph has more than one root, or
// ErrCycleDetected if a cycle prevents all nodes from being emitted (which
// includes a non-empty graph with no root). An empty graph sorts to an
// empty sequence without error.
func (g *Graph[T]) Sort() (*Sorted[T], error) {
	inDegree := make(map[string]int, len(g.nodes))
	roots := 0
	for key, n := range g.nodes {
		inDegree[key] = n.inDegree
		if n.inDegree == 0 {
			roots++
		}
	}
	// A root-less non-empty graph is necessarily a cycle (step 4 below
	// catches it when no nodes can be emitted); only two-or-more roots is
	// UnconnectedNode (spec §4.3 step 2).
	if roots > 1 {
		return nil, ErrUnconnectedNode
	}

	ready := btree.New(32)
	for key, d := range inDegree {
		if d == 0 {
			ready.ReplaceOrInsert(readyItem(key))
		}
	}

	sequence := make([]hash.Hash, 0, len(g.nodes))
	for ready.Len() > 0 {
		min := ready.Min().(readyItem)
		ready.Delete(min)

		key := string(min)
		n := g.nodes[key]
		sequence = append(sequence, n.id)

		for _, succ := range n.outgoing {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				ready.ReplaceOrInsert(readyItem(succ))
			}
		}
	}

	if len(sequence) != len(g.nodes) {
		return nil, ErrCycleDetected
	}

	var tips []hash.Hash
	for _, n := range g.nodes {
		if len(n.outgoing) == 0 {
			tips = append(tips, n.id)
		}
	}
	tips = hash.Sorted(tips)

	return &Sorted[T]{Sequence: sequence, Tips: tips, graph: g}, nil
}

// Sorted carries the emitted sequence and current tips produced by Sort.
type Sorted[T any] struct {
	Sequence []hash.Hash
	Tips     []hash.Hash
	graph    *Graph[T]
}

// Payload returns the payload stored for id.
func (s *Sorted[T]) Payload(id hash.Hash) (T, bool) {
	return s.graph.Payload(id)
}
