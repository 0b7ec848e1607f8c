// Package config holds the tunable knobs a scan run exposes: the
// suspicious-size clamp, content-hash breadth, snapshot retention depth,
// and per-object reference-scan cap. Collected into one struct so both the CLI and direct
// library callers can construct a run's configuration the same way.
package config

// Config carries the runtime-tunable knobs used across objgraph, cpython310,
// and snapmgr. The zero value is not directly usable; call Default() or
// fill in every field explicitly.
type Config struct {
	// MaxObjectSize is the upper bound on an accepted node's size, in
	// bytes.
	MaxObjectSize uint32
	// ContentHashBytes is N in "hash of the first N bytes of the object
	// body".
	ContentHashBytes int
	// MaxSnapshots is the Snapshot Manager's retention depth, coerced
	// upward to 1 by snapmgr.New.
	MaxSnapshots int
	// MaxScanWords bounds the per-object reference scan a Decoder's
	// References implementation performs, a safety valve against
	// pathologically large objects.
	MaxScanWords int
}

// Default returns a conservative baseline: a 100 MiB size clamp, a
// 64-byte content hash, 5 retained snapshots, and a 1<<20 word
// reference-scan cap.
func Default() Config {
	return Config{
		MaxObjectSize:    100 * 1024 * 1024,
		ContentHashBytes: 64,
		MaxSnapshots:     5,
		MaxScanWords:     1 << 20,
	}
}
