package diffreport_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"serpent/internal/diffengine"
	"serpent/internal/diffreport"
	"serpent/internal/objgraph"
	"serpent/internal/snapshot"
)

func TestRenderTextListsEachBucket(t *testing.T) {
	old := snapshot.New(1, 3, 10, objgraph.New())
	new := snapshot.New(2, 3, 10, objgraph.New())
	diff := diffengine.DiffSet{Added: []uint64{0x10}, Removed: []uint64{0x20}}

	var buf bytes.Buffer
	if err := diffreport.Render(diff, old, new, &buf, diffreport.FormatText); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "0x10") || !strings.Contains(out, "0x20") {
		t.Fatalf("expected both addresses in text output, got:\n%s", out)
	}
}

func TestRenderJSONRoundTripsAddresses(t *testing.T) {
	old := snapshot.New(1, 3, 10, objgraph.New())
	new := snapshot.New(2, 3, 10, objgraph.New())
	diff := diffengine.DiffSet{TypeChanged: []uint64{0x30}}

	var buf bytes.Buffer
	if err := diffreport.Render(diff, old, new, &buf, diffreport.FormatJSON); err != nil {
		t.Fatalf("Render: %v", err)
	}

	var decoded struct {
		TypeChanged []uint64 `json:"type_changed"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(decoded.TypeChanged) != 1 || decoded.TypeChanged[0] != 0x30 {
		t.Fatalf("unexpected type_changed: %v", decoded.TypeChanged)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	old := snapshot.New(1, 3, 10, objgraph.New())
	new := snapshot.New(2, 3, 10, objgraph.New())
	var buf bytes.Buffer
	if err := diffreport.Render(diffengine.DiffSet{}, old, new, &buf, diffreport.Format("xml")); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}
