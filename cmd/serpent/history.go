package main

import (
	"flag"
	"fmt"

	"serpent/internal/config"
	"serpent/internal/snapmgr"
	"serpent/internal/snapshot"
)

func cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	max := fs.Int("max", config.Default().MaxSnapshots, "snapshot manager retention depth")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		return fmt.Errorf("history requires one or more snapshot paths")
	}

	mgr := snapmgr.New(*max)
	for _, path := range paths {
		snap, err := snapshot.ReadFile(path)
		if err != nil {
			return fmt.Errorf("history: reading %s: %w", path, err)
		}
		if snap == nil {
			fmt.Printf("skip %s: does not exist\n", path)
			continue
		}
		mgr.Add(snap)
	}

	fmt.Printf("retained %d of %d added, max=%d\n", mgr.Count(), len(paths), mgr.Max())
	for i := 0; i < mgr.Count(); i++ {
		snap := mgr.Get(i)
		h := snap.Header()
		fmt.Printf("  [%d] epoch_ms=%d nodes=%d\n", i, h.EpochMS, h.NodeCount)
	}
	return nil
}
