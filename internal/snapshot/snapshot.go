// Package snapshot holds the point-in-time capture of an object graph: a
// fixed-size header plus the graph itself, and the codec that turns that
// pair into the on-disk format.
package snapshot

import "serpent/internal/objgraph"

// HeaderSize is the exact byte length of the on-disk fixed header.
const HeaderSize = 20

// Header is the fixed-size prefix written ahead of every snapshot's
// compressed payload.
type Header struct {
	EpochMS   uint64
	PyMajor   uint32
	PyMinor   uint32
	NodeCount uint32
}

// Snapshot is an immutable header plus graph pair. Construct with New;
// there is no public way to mutate one after construction. A Snapshot
// value should always be handled through a pointer, never copied
// field-by-field by callers.
type Snapshot struct {
	header Header
	graph  *objgraph.Graph
}

// New captures (epochMS, major, minor, graph) and derives node_count from
// the graph's current size.
func New(epochMS uint64, major, minor uint32, graph *objgraph.Graph) *Snapshot {
	if graph == nil {
		graph = objgraph.New()
	}
	return &Snapshot{
		header: Header{
			EpochMS:   epochMS,
			PyMajor:   major,
			PyMinor:   minor,
			NodeCount: uint32(graph.Len()),
		},
		graph: graph,
	}
}

// Header returns the snapshot's header.
func (s *Snapshot) Header() Header {
	if s == nil {
		return Header{}
	}
	return s.header
}

// Graph returns the snapshot's object graph.
func (s *Snapshot) Graph() *objgraph.Graph {
	if s == nil {
		return nil
	}
	return s.graph
}
