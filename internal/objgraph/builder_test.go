package objgraph_test

import (
	"context"
	"testing"

	"serpent/internal/config"
	"serpent/internal/objgraph"
	"serpent/internal/procreader"
	"serpent/internal/testdouble"
)

// Scenario 1: empty region list. build returns true and an empty graph.
func TestBuildEmptyRegions(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, nil)
	if !ok {
		t.Fatal("Build returned false for a well-configured decoder")
	}
	if graph.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", graph.Len())
	}
}

// Scenario 2: single readable region, but every address inside it is
// unreadable. build returns true; graph stays empty.
func TestBuildSingleRegionNoMatches(t *testing.T) {
	reader := testdouble.NewReader()
	for a := uint64(0x1000); a < 0x1100; a++ {
		reader.Unreadable[a] = true
	}
	decoder := testdouble.NewDecoder()

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, []procreader.MemRegion{
		{Start: 0x1000, End: 0x1100, Perm: procreader.PermRead},
	})
	if !ok {
		t.Fatal("Build returned false unexpectedly")
	}
	if graph.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", graph.Len())
	}
}

// Scenario 3 (acquisition half): a three-node cycle is fully recovered by
// BFS expansion from a single root, independent of the heuristic scan phase.
func TestBuildThreeNodeCycleViaBFS(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()

	const typeA, typeB = 0xA000, 0xB000
	decoder.AddObject(0x1000, typeA, "alpha", 32, 0, []uint64{0x2000, 0x3000}, []byte("alpha-body"))
	decoder.AddObject(0x2000, typeB, "beta", 64, 0, nil, []byte("beta-body"))
	decoder.AddObject(0x3000, typeA, "alpha", 16, 0, []uint64{0x1000}, []byte("alpha-body-2"))
	decoder.SetRoots([]uint64{0x1000})
	decoder.WriteTo(reader)

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, []procreader.MemRegion{})
	if !ok {
		t.Fatal("Build returned false unexpectedly")
	}
	if graph.Len() != 3 {
		t.Fatalf("expected 3 nodes, got %d", graph.Len())
	}

	n1, ok := graph.Get(0x1000)
	if !ok {
		t.Fatal("missing node 0x1000")
	}
	if n1.Size != 32 || len(n1.Refs) != 2 {
		t.Fatalf("unexpected node 0x1000: %+v", n1)
	}

	n3, ok := graph.Get(0x3000)
	if !ok {
		t.Fatal("missing node 0x3000")
	}
	if len(n3.Refs) != 1 || n3.Refs[0] != 0x1000 {
		t.Fatalf("unexpected node 0x3000 refs: %+v", n3.Refs)
	}

	alphaID := decoder.IDByName("alpha")
	if n1.TypeID != alphaID {
		t.Fatalf("expected node 0x1000 type id %d, got %d", alphaID, n1.TypeID)
	}
	if n3.TypeID != alphaID {
		t.Fatalf("expected node 0x3000 type id %d, got %d", alphaID, n3.TypeID)
	}
}

// Every node's size must fall in [1, 100 MiB] and its type id must be
// resolved.
func TestBuildInvariants(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()

	decoder.AddObject(0x1000, 0xA000, "widget", 48, 0, nil, []byte("widget-body"))
	decoder.SetRoots([]uint64{0x1000})
	decoder.WriteTo(reader)

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, nil)
	if !ok {
		t.Fatal("Build returned false unexpectedly")
	}
	for addr, node := range graph.Nodes {
		if node.Addr != addr {
			t.Fatalf("node keyed at %#x reports Addr %#x", addr, node.Addr)
		}
		if node.Size < 1 || uint32(node.Size) > objgraph.MaxObjectSize {
			t.Fatalf("node %#x has out-of-range size %d", addr, node.Size)
		}
		if node.TypeID == objgraph.SentinelUnknown {
			t.Fatalf("node %#x has unresolved type id", addr)
		}
		for _, ref := range node.Refs {
			if target, present := graph.Get(ref); present && target.Addr != ref {
				t.Fatalf("ref %#x resolves to mismatched node %+v", ref, target)
			}
		}
	}
}

// A zero head size is the one fatal Build error; it must short-circuit
// before any region is touched.
func TestBuildFatalZeroHeadSize(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()
	decoder.ForceHeadSize(0)

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, []procreader.MemRegion{
		{Start: 0x1000, End: 0x2000, Perm: procreader.PermRead},
	})
	if ok {
		t.Fatal("expected Build to fail for a zero head size decoder")
	}
	if graph != nil {
		t.Fatalf("expected nil graph on fatal error, got %+v", graph)
	}
}

// A Regions() failure is non-fatal: Build still returns true, with an empty
// graph, rather than propagating the error.
func TestBuildRegionsErrorIsNonFatal(t *testing.T) {
	reader := testdouble.NewReader()
	reader.ForceRegionsErr = true
	decoder := testdouble.NewDecoder()

	graph, ok := objgraph.NewBuilder().Build(context.Background(), reader, decoder, nil)
	if !ok {
		t.Fatal("expected Build to absorb the Regions() error and return true")
	}
	if graph.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", graph.Len())
	}
}

// NewBuilderWithConfig's size clamp must actually gate acceptance, not just
// be stored.
func TestBuilderWithConfigRejectsOversizeUnderTighterClamp(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()
	decoder.AddObject(0x1000, 0xA000, "widget", 48, 0, nil, []byte("widget-body"))
	decoder.SetRoots([]uint64{0x1000})
	decoder.WriteTo(reader)

	cfg := config.Default()
	cfg.MaxObjectSize = 16 // below the object's size of 48

	graph, ok := objgraph.NewBuilderWithConfig(cfg).Build(context.Background(), reader, decoder, nil)
	if !ok {
		t.Fatal("Build returned false unexpectedly")
	}
	if graph.Len() != 0 {
		t.Fatalf("expected the tighter clamp to reject the object, got %d nodes", graph.Len())
	}
}

// Build must respect context cancellation rather than scanning unboundedly.
func TestBuildRespectsCancellation(t *testing.T) {
	reader := testdouble.NewReader()
	decoder := testdouble.NewDecoder()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	graph, ok := objgraph.NewBuilder().Build(ctx, reader, decoder, []procreader.MemRegion{
		{Start: 0x1000, End: 0x100000, Perm: procreader.PermRead},
	})
	if !ok {
		t.Fatal("Build returned false unexpectedly")
	}
	if graph.Len() != 0 {
		t.Fatalf("expected empty graph after immediate cancellation, got %d nodes", graph.Len())
	}
}
