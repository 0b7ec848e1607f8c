package snapmgr_test

import (
	"testing"

	"serpent/internal/objgraph"
	"serpent/internal/snapmgr"
	"serpent/internal/snapshot"
)

func snap(epoch uint64) *snapshot.Snapshot {
	return snapshot.New(epoch, 3, 10, objgraph.New())
}

// Scenario 6: retention with max=2.
func TestRetentionEvictsOldest(t *testing.T) {
	m := snapmgr.New(2)
	s1, s2, s3 := snap(1), snap(2), snap(3)

	m.Add(s1)
	m.Add(s2)
	m.Add(s3)

	if got := m.Count(); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
	if got := m.Get(0); got != s3 {
		t.Fatalf("Get(0) = %+v, want s3", got)
	}
	if got := m.Get(1); got != s2 {
		t.Fatalf("Get(1) = %+v, want s2", got)
	}
	if got := m.Get(2); got != nil {
		t.Fatalf("Get(2) = %+v, want nil", got)
	}
}

func TestLatestReturnsJustAdded(t *testing.T) {
	m := snapmgr.New(3)
	m.Add(snap(1))
	s2 := snap(2)
	m.Add(s2)

	if got := m.Latest(); got != s2 {
		t.Fatalf("Latest() = %+v, want s2", got)
	}
}

func TestAddNilIsRejectedSilently(t *testing.T) {
	m := snapmgr.New(2)
	m.Add(nil)
	if got := m.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0 after adding nil", got)
	}
}

func TestMaxCoercedUpToOne(t *testing.T) {
	m := snapmgr.New(0)
	if got := m.Max(); got != 1 {
		t.Fatalf("Max() = %d, want 1", got)
	}

	m2 := snapmgr.New(-3)
	if got := m2.Max(); got != 1 {
		t.Fatalf("Max() = %d, want 1", got)
	}
}

func TestCountNeverExceedsMax(t *testing.T) {
	m := snapmgr.New(1)
	for i := uint64(0); i < 10; i++ {
		m.Add(snap(i))
		if got := m.Count(); got > m.Max() {
			t.Fatalf("Count() = %d exceeds Max() = %d", got, m.Max())
		}
	}
}
