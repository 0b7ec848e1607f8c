// Package abi defines the capability contract for decoding one version of
// the target interpreter's object layout. Decoder implementations are
// version-specific (one per supported Python minor version) and are always
// handed a procreader.Reader for any call that touches target memory; they
// never cache it.
package abi

import (
	"strings"

	"serpent/internal/procreader"
	"serpent/internal/typepool"
)

// Malformed-result markers. TypeName returns a string with one of these
// prefixes instead of an error when resolution fails; the Graph Builder
// treats any such result as a non-fatal skip, not a propagated error.
const (
	ErrPrefixErr  = "<err"
	ErrPrefixNull = "<null"
)

// IsErrorTypeName reports whether name is one of the distinguished failure
// markers TypeName may return.
func IsErrorTypeName(name string) bool {
	return strings.HasPrefix(name, ErrPrefixErr) || strings.HasPrefix(name, ErrPrefixNull)
}

// Decoder knows the object layout of one interpreter version.
type Decoder interface {
	typepool.Interner

	// HeadSize returns the byte length of the fixed object header (type
	// pointer + refcount). A zero result is a fatal configuration error.
	HeadSize() int

	// ObTypeFromHead extracts the type-object address from a header
	// snapshot of length HeadSize(). Returns 0 on malformed input.
	ObTypeFromHead(head []byte) uint64

	// IsTypeObject is a confidence test that typeAddr denotes a type
	// object.
	IsTypeObject(typeAddr uint64, r procreader.Reader) bool

	// TypeName resolves a short ASCII type name for the object at
	// objAddr, or an ErrPrefixErr/ErrPrefixNull string on failure.
	TypeName(objAddr uint64, r procreader.Reader) string

	// TypeIDFromTypeAddr resolves the type at typeAddr to a name, then
	// interns it via the embedded Interner. Returns
	// typepool.SentinelUnknown on any error.
	TypeIDFromTypeAddr(typeAddr uint64, r procreader.Reader) uint32

	// ObjectSize returns the byte length of the object at objAddr.
	ObjectSize(objAddr, typeAddr uint64, r procreader.Reader) int

	// ObjectFlags returns the decoder-defined flag bitset for the object.
	ObjectFlags(objAddr uint64, head []byte, r procreader.Reader) uint32

	// References returns the outgoing edges of the object at objAddr.
	References(objAddr, typeAddr uint64, r procreader.Reader) []uint64

	// ContentHash hashes the first min(nBytes, size) bytes of the object
	// body.
	ContentHash(objAddr uint64, size int, r procreader.Reader, nBytes int) uint32

	// BFSRoots returns addresses of well-known per-interpreter root
	// containers (module table, builtins, sysdict, ...).
	BFSRoots(r procreader.Reader) []uint64

	VersionString() string
	Major() int
	Minor() int
}
