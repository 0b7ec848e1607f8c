package main

import (
	"flag"
	"fmt"
	"os"

	"serpent/internal/graphrender"
	"serpent/internal/snapshot"
)

// cmdGraph renders a snapshot's object graph as Graphviz DOT. Snapshots
// don't carry the name<->id mapping a live decoder holds (see
// DESIGN.md), so nodes are labeled with their bare numeric type id; scan's
// own --dot flag is the way to get resolved type names, since it still has
// the decoder in hand.
func cmdGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	in := fs.String("in", "", "snapshot path")
	out := fs.String("out", "", "DOT output path (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("--in is required")
	}

	snap, err := snapshot.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("graph: %s does not exist", *in)
	}

	doc := graphrender.DOT(snap.Graph(), nil, *in)
	if *out == "" {
		fmt.Print(doc)
		return nil
	}
	if err := os.WriteFile(*out, []byte(doc), 0644); err != nil {
		return fmt.Errorf("graph: writing %s: %w", *out, err)
	}
	fmt.Printf("wrote dot graph to %s\n", *out)
	return nil
}
