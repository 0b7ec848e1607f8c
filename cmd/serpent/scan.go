package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"serpent/internal/config"
	"serpent/internal/graphrender"
	"serpent/internal/objgraph"
	"serpent/internal/pluginreg"
	"serpent/internal/snapshot"

	_ "serpent/internal/abi/cpython310"
	_ "serpent/internal/procreader/linuxreader"
)

func cmdScan(args []string) error {
	cfg := config.Default()

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	pid := fs.Int("pid", 0, "target process id")
	out := fs.String("out", "", "output snapshot path")
	major := fs.Int("major", 3, "interpreter major version")
	minor := fs.Int("minor", 10, "interpreter minor version")
	dot := fs.String("dot", "", "also write a Graphviz DOT rendering of the graph to this path")
	maxObjectSize := fs.Uint("max-object-size", uint(cfg.MaxObjectSize), "suspicious-size clamp, in bytes")
	hashBytes := fs.Int("hash-bytes", cfg.ContentHashBytes, "bytes of object body hashed for content_changed detection")
	maxScanWords := fs.Int("max-scan-words", cfg.MaxScanWords, "per-object reference scan cap, in words")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.MaxObjectSize = uint32(*maxObjectSize)
	cfg.ContentHashBytes = *hashBytes
	cfg.MaxScanWords = *maxScanWords

	if *pid == 0 {
		return fmt.Errorf("--pid is required")
	}
	if *out == "" {
		return fmt.Errorf("--out is required")
	}

	reader, err := pluginreg.Reader(runtime.GOOS)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if !reader.Attach(*pid) {
		return fmt.Errorf("scan: failed to attach to pid %d", *pid)
	}
	defer reader.Detach()

	decoder, err := pluginreg.Decoder(*major, *minor, reader)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if decoder == nil {
		return fmt.Errorf("scan: no decoder registered for %d.%d", *major, *minor)
	}
	if setter, ok := decoder.(interface{ SetMaxScanWords(int) }); ok {
		setter.SetMaxScanWords(cfg.MaxScanWords)
	}

	graph, ok := objgraph.NewBuilderWithConfig(cfg).Build(context.Background(), reader, decoder, nil)
	if !ok {
		return fmt.Errorf("scan: build failed")
	}

	snap := snapshot.New(uint64(time.Now().UnixMilli()), uint32(*major), uint32(*minor), graph)
	if err := snapshot.WriteFile(snap, *out); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if *dot != "" {
		doc := graphrender.DOT(graph, decoder, fmt.Sprintf("pid %d snapshot", *pid))
		if err := os.WriteFile(*dot, []byte(doc), 0644); err != nil {
			return fmt.Errorf("scan: writing dot: %w", err)
		}
		fmt.Printf("wrote dot graph to %s\n", *dot)
	}

	fmt.Printf("wrote %d nodes to %s\n", graph.Len(), *out)
	return nil
}
