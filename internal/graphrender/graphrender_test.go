package graphrender_test

import (
	"testing"

	"serpent/internal/graphrender"
	"serpent/internal/objgraph"
	"serpent/internal/typepool"
)

func TestBuildLabelsNodesWithResolvedTypeNames(t *testing.T) {
	pool := typepool.New()
	widgetID := pool.IDByName("widget")
	gadgetID := pool.IDByName("gadget")

	graph := objgraph.New()
	graph.Nodes[0x1000] = objgraph.Node{Addr: 0x1000, TypeID: widgetID, Refs: []uint64{0x2000}}
	graph.Nodes[0x2000] = objgraph.Node{Addr: 0x2000, TypeID: gadgetID}

	g := graphrender.Build(graph, pool)

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(g.Edges))
	}
	if g.Edges[0].Caller != "0x1000 (widget)" {
		t.Errorf("unexpected caller label: %q", g.Edges[0].Caller)
	}
	if g.Edges[0].Callee != "0x2000 (gadget)" {
		t.Errorf("unexpected callee label: %q", g.Edges[0].Callee)
	}
}

func TestBuildFallsBackToTypeIDWithoutInterner(t *testing.T) {
	graph := objgraph.New()
	graph.Nodes[0x1000] = objgraph.Node{Addr: 0x1000, TypeID: 7}

	g := graphrender.Build(graph, nil)

	if len(g.Nodes) != 1 || g.Nodes[0] != "0x1000 (type#7)" {
		t.Fatalf("unexpected node label: %+v", g.Nodes)
	}
}

func TestBuildLabelsUnresolvedReferenceTargets(t *testing.T) {
	pool := typepool.New()
	widgetID := pool.IDByName("widget")

	graph := objgraph.New()
	graph.Nodes[0x1000] = objgraph.Node{Addr: 0x1000, TypeID: widgetID, Refs: []uint64{0xdead}}

	g := graphrender.Build(graph, pool)

	if len(g.Edges) != 1 || g.Edges[0].Callee != "0xdead <unresolved>" {
		t.Fatalf("unexpected edges: %+v", g.Edges)
	}
}

func TestDOTRendersNonEmptyDocument(t *testing.T) {
	pool := typepool.New()
	widgetID := pool.IDByName("widget")

	graph := objgraph.New()
	graph.Nodes[0x1000] = objgraph.Node{Addr: 0x1000, TypeID: widgetID, Refs: []uint64{0x1000}}

	dot := graphrender.DOT(graph, pool, "object graph test")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestBuildNilGraphIsEmpty(t *testing.T) {
	g := graphrender.Build(nil, nil)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Fatalf("expected empty graph, got %+v", g)
	}
}
