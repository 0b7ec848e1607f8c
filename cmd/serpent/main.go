package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = cmdScan(os.Args[2:])
	case "inspect":
		err = cmdInspect(os.Args[2:])
	case "diff":
		err = cmdDiff(os.Args[2:])
	case "history":
		err = cmdHistory(os.Args[2:])
	case "graph":
		err = cmdGraph(os.Args[2:])
	case "selftest":
		err = cmdSelftest(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `serpent — out-of-process object graph snapshots

Usage:
  serpent scan     --pid <n> --out <file>         Attach, build a graph, write a snapshot
  serpent inspect  <pid> <addr-hex> [major minor]  Print an object's type name and up to 10 regions
  serpent diff     --old <file> --new <file>       Compare two snapshots
  serpent history  [--max <n>] <file...>           Replay a sequence of snapshots through a Manager
  serpent graph    --in <file> [--out <file>]      Render a snapshot's graph as Graphviz DOT
  serpent selftest                                 Run the in-process self-test using selfreader

Flags:
  --pid <n>              Target process id
  --out <file>           Output snapshot path (scan) or DOT path (graph)
  --in <file>            Input snapshot path
  --old <file>           Older snapshot path (diff)
  --new <file>           Newer snapshot path (diff)
  --format <fmt>         diff output format: text (default) or json
  --major <n>            Interpreter major version (default 3)
  --minor <n>            Interpreter minor version (default 10)
  --max <n>              Snapshot Manager retention depth
  --dot <file>           scan: also write a DOT rendering of the graph
  --max-object-size <n>  scan: suspicious-size clamp, in bytes
  --hash-bytes <n>       scan: bytes of object body hashed per node
  --max-scan-words <n>   scan: per-object reference scan cap, in words
`)
}
