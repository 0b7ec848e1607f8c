// Package diffreport renders a diffengine.DiffSet to a human-readable or
// JSON stream: a thin, format-dispatching layer over the pure comparison
// diffengine.Compare produces.
package diffreport

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"serpent/internal/diffengine"
	"serpent/internal/snapshot"
)

// Format selects the rendering produced by Render.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// jsonReport is the JSON-tagged wire shape for FormatJSON. Field names
// match DiffSet's without the Go-exported noun repetition.
type jsonReport struct {
	OldEpochMS                     uint64   `json:"old_epoch_ms"`
	NewEpochMS                     uint64   `json:"new_epoch_ms"`
	Added                          []uint64 `json:"added"`
	Removed                        []uint64 `json:"removed"`
	TypeChanged                    []uint64 `json:"type_changed"`
	ContentChanged                 []uint64 `json:"content_changed"`
	ReferencesStructurallyChanged []uint64 `json:"references_structurally_changed"`
}

// Render writes diff to w in the requested format. old and new may be nil;
// their headers are reported as zero epochs in that case.
func Render(diff diffengine.DiffSet, old, new *snapshot.Snapshot, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(diff, old, new, w)
	case FormatText:
		return renderText(diff, old, new, w)
	default:
		return fmt.Errorf("diffreport: unknown format %q", format)
	}
}

func renderJSON(diff diffengine.DiffSet, old, new *snapshot.Snapshot, w io.Writer) error {
	report := jsonReport{
		OldEpochMS:                     old.Header().EpochMS,
		NewEpochMS:                     new.Header().EpochMS,
		Added:                          sortedCopy(diff.Added),
		Removed:                        sortedCopy(diff.Removed),
		TypeChanged:                    sortedCopy(diff.TypeChanged),
		ContentChanged:                 sortedCopy(diff.ContentChanged),
		ReferencesStructurallyChanged: sortedCopy(diff.ReferencesStructurallyChanged),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func renderText(diff diffengine.DiffSet, old, new *snapshot.Snapshot, w io.Writer) error {
	fmt.Fprintf(w, "diff %d -> %d\n", old.Header().EpochMS, new.Header().EpochMS)
	printAddrs(w, "added", diff.Added)
	printAddrs(w, "removed", diff.Removed)
	printAddrs(w, "type_changed", diff.TypeChanged)
	printAddrs(w, "content_changed", diff.ContentChanged)
	printAddrs(w, "references_structurally_changed", diff.ReferencesStructurallyChanged)
	return nil
}

func printAddrs(w io.Writer, label string, addrs []uint64) {
	addrs = sortedCopy(addrs)
	fmt.Fprintf(w, "%s (%d):\n", label, len(addrs))
	for _, a := range addrs {
		fmt.Fprintf(w, "  0x%x\n", a)
	}
}

func sortedCopy(addrs []uint64) []uint64 {
	out := append([]uint64(nil), addrs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
