package cpython310

import (
	"serpent/internal/abi"
	"serpent/internal/pluginreg"
	"serpent/internal/procreader"
)

func init() {
	pluginreg.RegisterDecoder(3, 10, func(r procreader.Reader) abi.Decoder {
		return New(resolveRoots(r))
	})
}

// resolveRoots is a best-effort stand-in for per-interpreter root
// discovery. Precise root addresses (module table, builtins, sysdict) are
// normally resolved from the target's symbol table by a caller with access
// to it; lacking that here, this registration starts with no roots, which
// means the builder's BFS expansion phase contributes nothing beyond what
// the heuristic scan phase already finds on its own.
func resolveRoots(r procreader.Reader) []uint64 {
	return nil
}
