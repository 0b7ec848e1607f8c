// Package diffengine implements the pure comparison between two snapshots:
// a classification of every address touched by either graph into added,
// removed, type-changed, content-changed, and
// structurally-reference-changed buckets.
package diffengine

import "serpent/internal/snapshot"

// DiffSet holds five disjoint-purpose address lists. An address appears in
// at most one of Added/Removed; the other lists may share addresses with
// each other and with neither of those two.
type DiffSet struct {
	Added                          []uint64
	Removed                        []uint64
	TypeChanged                    []uint64
	ContentChanged                 []uint64
	ReferencesStructurallyChanged []uint64
}

// Compare classifies every address present in old or new. Nil snapshots
// are treated as empty graphs rather than a fatal error.
func Compare(old, new *snapshot.Snapshot) DiffSet {
	oldGraph := graphOf(old)
	newGraph := graphOf(new)

	var result DiffSet
	for addr := range oldGraph {
		if _, present := newGraph[addr]; !present {
			result.Removed = append(result.Removed, addr)
		}
	}
	for addr, newNode := range newGraph {
		oldNode, present := oldGraph[addr]
		if !present {
			result.Added = append(result.Added, addr)
			continue
		}

		if oldNode.TypeID != newNode.TypeID {
			result.TypeChanged = append(result.TypeChanged, addr)
		} else if oldNode.ContentHash != newNode.ContentHash {
			result.ContentChanged = append(result.ContentChanged, addr)
		}

		if !sameRefSet(oldNode.Refs, newNode.Refs) {
			result.ReferencesStructurallyChanged = append(result.ReferencesStructurallyChanged, addr)
		}
	}
	return result
}

func graphOf(s *snapshot.Snapshot) map[uint64]nodeView {
	g := s.Graph()
	if g == nil {
		return nil
	}
	out := make(map[uint64]nodeView, g.Len())
	for addr, node := range g.Nodes {
		out[addr] = nodeView{TypeID: node.TypeID, ContentHash: node.ContentHash, Refs: node.Refs}
	}
	return out
}

type nodeView struct {
	TypeID      uint32
	ContentHash uint32
	Refs        []uint64
}

// sameRefSet compares two address lists as unordered sets: order carries
// no meaning for a reference list, so equality is set equality.
func sameRefSet(a, b []uint64) bool {
	setA, setB := toSet(a), toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for addr := range setA {
		if !setB[addr] {
			return false
		}
	}
	return true
}

func toSet(addrs []uint64) map[uint64]bool {
	set := make(map[uint64]bool, len(addrs))
	for _, a := range addrs {
		set[a] = true
	}
	return set
}
