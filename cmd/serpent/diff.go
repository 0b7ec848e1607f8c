package main

import (
	"flag"
	"fmt"
	"os"

	"serpent/internal/diffengine"
	"serpent/internal/diffreport"
	"serpent/internal/snapshot"
)

func cmdDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	oldPath := fs.String("old", "", "older snapshot path")
	newPath := fs.String("new", "", "newer snapshot path")
	format := fs.String("format", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *oldPath == "" || *newPath == "" {
		return fmt.Errorf("--old and --new are required")
	}

	oldSnap, err := snapshot.ReadFile(*oldPath)
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", *oldPath, err)
	}
	newSnap, err := snapshot.ReadFile(*newPath)
	if err != nil {
		return fmt.Errorf("diff: reading %s: %w", *newPath, err)
	}

	diff := diffengine.Compare(oldSnap, newSnap)
	return diffreport.Render(diff, oldSnap, newSnap, os.Stdout, diffreport.Format(*format))
}
