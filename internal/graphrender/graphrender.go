// Package graphrender exports an object graph as a Graphviz DOT document
// via github.com/zboralski/lattice and its render subpackage: object
// addresses, labeled with their resolved type name, become nodes, and
// outgoing references become edges.
package graphrender

import (
	"fmt"

	"github.com/zboralski/lattice"
	latticerender "github.com/zboralski/lattice/render"

	"serpent/internal/objgraph"
	"serpent/internal/typepool"
)

// Build converts graph into a lattice.Graph, labeling each node with its
// address and resolved type name (falling back to the numeric type id if
// names is nil or the id is unknown). names is typically the abi.Decoder
// that produced graph, since Decoder embeds typepool.Interner. Edges are
// deduplicated via lattice.Graph.Dedup.
func Build(graph *objgraph.Graph, names typepool.Interner) *lattice.Graph {
	g := &lattice.Graph{}
	if graph == nil {
		return g
	}

	for addr, node := range graph.Nodes {
		g.Nodes = append(g.Nodes, nodeLabel(addr, node, names))
	}
	for addr, node := range graph.Nodes {
		caller := nodeLabel(addr, node, names)
		for _, ref := range node.Refs {
			callee, ok := graph.Get(ref)
			var calleeLabel string
			if ok {
				calleeLabel = nodeLabel(ref, callee, names)
			} else {
				calleeLabel = fmt.Sprintf("0x%x <unresolved>", ref)
			}
			g.Edges = append(g.Edges, lattice.Edge{Caller: caller, Callee: calleeLabel})
		}
	}
	g.Dedup()
	return g
}

// DOT renders graph as a DOT document titled title.
func DOT(graph *objgraph.Graph, names typepool.Interner, title string) string {
	return latticerender.DOT(Build(graph, names), title)
}

func nodeLabel(addr uint64, node objgraph.Node, names typepool.Interner) string {
	typeName := fmt.Sprintf("type#%d", node.TypeID)
	if names != nil {
		if name, ok := names.NameFromID(node.TypeID); ok {
			typeName = name
		}
	}
	return fmt.Sprintf("0x%x (%s)", addr, typeName)
}
