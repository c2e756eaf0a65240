package graph

import (
	"fmt"

	"github.com/emicklei/dot"
)

// dotLabelLen is how many leading hex characters of an operation id are
// shown on a node label — enough to disambiguate visually without making
// the rendered graph unreadable.
const dotLabelLen = 8

// Dot renders the graph as a Graphviz DOT string. It never affects Sort or
// the builder; it exists purely so a developer can visualize why two
// peers disagree about a document's tips. actionOf, when non-nil, labels
// each node with its action (e.g. "create"/"update"/"delete").
func (g *Graph[T]) Dot(actionOf func(payload T) string) string {
	d := dot.NewGraph(dot.Directed)

	tipKeys := g.tipKeys()

	rendered := make(map[string]dot.Node, len(g.order))
	for _, key := range g.order {
		n := g.nodes[key]
		label := key
		if len(label) > dotLabelLen {
			label = label[:dotLabelLen]
		}
		if actionOf != nil {
			label = fmt.Sprintf("%s\n%s", label, actionOf(n.payload))
		}
		gn := d.Node(key).Label(label)
		if tipKeys[key] {
			gn = gn.Attr("shape", "doublecircle")
		}
		rendered[key] = gn
	}

	for _, key := range g.order {
		n := g.nodes[key]
		for _, succ := range n.outgoing {
			d.Edge(rendered[key], rendered[succ])
		}
	}

	return d.String()
}

func (g *Graph[T]) tipKeys() map[string]bool {
	tips := make(map[string]bool)
	for key, n := range g.nodes {
		if len(n.outgoing) == 0 {
			tips[key] = true
		}
	}
	return tips
}
