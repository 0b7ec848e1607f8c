// Package pluginreg is a static compile-time registration table for
// Reader and Decoder implementations, in the idiom of database/sql's
// driver registry: each concrete implementation registers a factory from
// its own init(), and callers look it up by a conventional key (an OS
// name, or an interpreter major.minor pair) instead of loading a shared
// object by filename.
package pluginreg

import (
	"fmt"
	"sync"

	"serpent/internal/abi"
	"serpent/internal/procreader"
)

// ReaderFactory constructs a fresh procreader.Reader for one OS.
type ReaderFactory func() procreader.Reader

// DecoderFactory constructs a fresh abi.Decoder for one interpreter
// version, given the attached Reader it may use to resolve its own BFS
// roots. The Decoder does not retain r beyond construction.
type DecoderFactory func(r procreader.Reader) abi.Decoder

type decoderKey struct {
	major, minor int
}

var (
	mu        sync.Mutex
	readers   = make(map[string]ReaderFactory)
	decoders  = make(map[decoderKey]DecoderFactory)
)

// RegisterReader installs factory under the given OS name (e.g. "linux",
// "darwin", "windows", matching runtime.GOOS). Intended to be called from
// an init() in the package that implements the Reader.
func RegisterReader(os string, factory ReaderFactory) {
	mu.Lock()
	defer mu.Unlock()
	readers[os] = factory
}

// Reader looks up the Reader registered for os. Failure to resolve a
// Reader is fatal: the caller gets a non-nil error rather than a nil, nil
// pair.
func Reader(os string) (procreader.Reader, error) {
	mu.Lock()
	factory, ok := readers[os]
	mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("pluginreg: no reader registered for os %q", os)
	}
	return factory(), nil
}

// RegisterDecoder installs factory under the given interpreter
// major.minor version. Intended to be called from an init() in the
// package that implements the Decoder.
func RegisterDecoder(major, minor int, factory DecoderFactory) {
	mu.Lock()
	defer mu.Unlock()
	decoders[decoderKey{major, minor}] = factory
}

// Decoder looks up the Decoder registered for major.minor, constructing it
// against r. A missing Decoder returns (nil, nil) — the caller decides
// whether that is fatal.
func Decoder(major, minor int, r procreader.Reader) (abi.Decoder, error) {
	mu.Lock()
	factory, ok := decoders[decoderKey{major, minor}]
	mu.Unlock()
	if !ok {
		return nil, nil
	}
	return factory(r), nil
}
