// Package cpython310 is a reference abi.Decoder for CPython 3.10's object
// layout. Field offsets below are taken from CPython 3.10's
// Include/cpython/object.h PyObject/PyVarObject/PyTypeObject layout on a
// 64-bit build with no debug or free-threading ABI flags; treat them as a
// best-effort default rather than a portability guarantee across patch
// builds (custom allocators, debug builds, or other word sizes need their
// own Decoder).
package cpython310

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"serpent/internal/abi"
	"serpent/internal/procreader"
	"serpent/internal/typepool"
)

const (
	// PyObject / PyVarObject head layout.
	headSize      = 16 // ob_refcnt (8) + ob_type (8)
	varHeadSize   = 24 // head + ob_size (8)
	offObType     = 8
	offObSize     = 16

	// PyTypeObject field offsets, relative to the start of the type object.
	offTpName       = 24
	offTpBasicsize  = 32
	offTpItemsize   = 40
	offTpFlags      = 168
	offTpDictoffset = 288

	// Py_TPFLAGS_TYPE_SUBCLASS marks a type object whose instances are
	// themselves types.
	tpFlagsTypeSubclass = uint64(1) << 31

	maxTypeNameLen      = 256
	defaultMaxScanWords = 1 << 20 // hard cap on per-object reference scan, in words
)

// Decoder implements abi.Decoder for CPython 3.10.
type Decoder struct {
	pool         *typepool.Pool
	roots        []uint64
	maxScanWords int
}

var _ abi.Decoder = (*Decoder)(nil)

// New returns a Decoder for CPython 3.10. roots are the addresses of the
// interpreter's well-known root containers (module table, builtins,
// sysdict, ...); resolving those addresses from the target's symbol table
// is the caller's responsibility.
func New(roots []uint64) *Decoder {
	return &Decoder{pool: typepool.New(), roots: roots, maxScanWords: defaultMaxScanWords}
}

// SetMaxScanWords overrides the per-object reference-scan cap References
// applies. Values <= 0 are ignored, leaving the previous cap in place.
func (d *Decoder) SetMaxScanWords(n int) {
	if n > 0 {
		d.maxScanWords = n
	}
}

func (d *Decoder) HeadSize() int { return headSize }

func (d *Decoder) ObTypeFromHead(head []byte) uint64 {
	if len(head) < headSize {
		return 0
	}
	return binary.LittleEndian.Uint64(head[offObType:])
}

// IsTypeObject tests whether typeAddr is a type object by checking the
// Py_TPFLAGS_TYPE_SUBCLASS bit on its own tp_flags, CPython's
// self-describing marker for "this is itself a type".
func (d *Decoder) IsTypeObject(typeAddr uint64, r procreader.Reader) bool {
	if typeAddr == 0 {
		return false
	}
	var flagsBuf [8]byte
	if !r.Read(typeAddr+offTpFlags, flagsBuf[:]) {
		return false
	}
	flags := binary.LittleEndian.Uint64(flagsBuf[:])
	return flags&tpFlagsTypeSubclass != 0
}

// TypeName resolves tp_name on the object's type and returns its last
// dotted component. Returns an ErrPrefix-marked string on any failure.
func (d *Decoder) TypeName(objAddr uint64, r procreader.Reader) string {
	var head [headSize]byte
	if !r.Read(objAddr, head[:]) {
		return "<err:head-read>"
	}
	typeAddr := d.ObTypeFromHead(head[:])
	if typeAddr == 0 {
		return "<null:type>"
	}
	return d.typeNameFromAddr(typeAddr, r)
}

func (d *Decoder) typeNameFromAddr(typeAddr uint64, r procreader.Reader) string {
	var ptrBuf [8]byte
	if !r.Read(typeAddr+offTpName, ptrBuf[:]) {
		return "<err:tp_name-ptr-read>"
	}
	namePtr := binary.LittleEndian.Uint64(ptrBuf[:])
	if namePtr == 0 {
		return "<null:tp_name>"
	}

	raw, ok := readCString(r, namePtr, maxTypeNameLen)
	if !ok {
		return "<err:tp_name-string-read>"
	}
	return lastDotted(raw)
}

// TypeIDFromTypeAddr resolves a name via typeNameFromAddr and interns it.
func (d *Decoder) TypeIDFromTypeAddr(typeAddr uint64, r procreader.Reader) uint32 {
	name := d.typeNameFromAddr(typeAddr, r)
	if abi.IsErrorTypeName(name) {
		return typepool.SentinelUnknown
	}
	return d.pool.IDByName(name)
}

// ObjectSize computes tp_basicsize + ob_size*tp_itemsize for variable-size
// objects, falling back to tp_basicsize alone when tp_itemsize is 0.
func (d *Decoder) ObjectSize(objAddr, typeAddr uint64, r procreader.Reader) int {
	var buf [8]byte
	if !r.Read(typeAddr+offTpBasicsize, buf[:]) {
		return 0
	}
	basicsize := int64(binary.LittleEndian.Uint64(buf[:]))

	if !r.Read(typeAddr+offTpItemsize, buf[:]) {
		return int(basicsize)
	}
	itemsize := int64(binary.LittleEndian.Uint64(buf[:]))
	if itemsize == 0 {
		return int(basicsize)
	}

	if !r.Read(objAddr+offObSize, buf[:]) {
		return int(basicsize)
	}
	obSize := int64(binary.LittleEndian.Uint64(buf[:]))
	if obSize < 0 {
		obSize = -obSize
	}
	return int(basicsize + obSize*itemsize)
}

// ObjectFlags surfaces the type's tp_flags as the node's opaque flag
// bitset, truncated to 32 bits.
func (d *Decoder) ObjectFlags(objAddr uint64, head []byte, r procreader.Reader) uint32 {
	typeAddr := d.ObTypeFromHead(head)
	if typeAddr == 0 {
		return 0
	}
	var buf [8]byte
	if !r.Read(typeAddr+offTpFlags, buf[:]) {
		return 0
	}
	return uint32(binary.LittleEndian.Uint64(buf[:]))
}

// References conservatively scans the object body for aligned 8-byte values
// that land inside a currently-mapped region, treating each as a candidate
// outgoing reference. This mirrors the heuristic alignment walk the Graph
// Builder itself uses at region scale, applied within one object; it is a
// deliberate simplification documented in DESIGN.md rather than a
// per-container-type CPython layout decoder (tuple/list/dict internals).
func (d *Decoder) References(objAddr, typeAddr uint64, r procreader.Reader) []uint64 {
	size := d.ObjectSize(objAddr, typeAddr, r)
	if size <= headSize {
		return nil
	}

	regions, err := r.Regions()
	if err != nil || len(regions) == 0 {
		return nil
	}

	body := make([]byte, size-headSize)
	if !r.Read(objAddr+headSize, body) {
		return nil
	}

	var refs []uint64
	words := len(body) / 8
	if words > d.maxScanWords {
		words = d.maxScanWords
	}
	for i := 0; i < words; i++ {
		off := i * 8
		cand := binary.LittleEndian.Uint64(body[off : off+8])
		if cand == 0 {
			continue
		}
		if inAnyRegion(cand, regions) {
			refs = append(refs, cand)
		}
	}
	return refs
}

func inAnyRegion(addr uint64, regions []procreader.MemRegion) bool {
	for _, reg := range regions {
		if addr >= reg.Start && addr < reg.End {
			return true
		}
	}
	return false
}

// ContentHash hashes the first min(nBytes, size) bytes of the object body
// with xxhash, truncated to 32 bits.
func (d *Decoder) ContentHash(objAddr uint64, size int, r procreader.Reader, nBytes int) uint32 {
	n := nBytes
	if size < n {
		n = size
	}
	if n <= 0 {
		return 0
	}
	buf := make([]byte, n)
	if !r.Read(objAddr, buf) {
		return 0
	}
	return uint32(xxhash.Sum64(buf))
}

// BFSRoots returns the pre-resolved root addresses this Decoder was
// constructed with.
func (d *Decoder) BFSRoots(r procreader.Reader) []uint64 {
	return d.roots
}

func (d *Decoder) VersionString() string { return "3.10" }
func (d *Decoder) Major() int            { return 3 }
func (d *Decoder) Minor() int            { return 10 }

// Interner passthrough (serpent/internal/typepool.Interner).
func (d *Decoder) IDByName(name string) uint32         { return d.pool.IDByName(name) }
func (d *Decoder) NameFromID(id uint32) (string, bool) { return d.pool.NameFromID(id) }
func (d *Decoder) Clear()                              { d.pool.Clear() }

func readCString(r procreader.Reader, addr uint64, maxLen int) (string, bool) {
	buf := make([]byte, maxLen)
	if !r.Read(addr, buf) {
		// Fall back to reading progressively smaller chunks in case the
		// string is near an unmapped page boundary.
		for n := maxLen - 1; n >= 1; n-- {
			small := buf[:n]
			if r.Read(addr, small) {
				buf = small
				break
			}
		}
		if len(buf) == maxLen {
			return "", false
		}
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), true
		}
	}
	return string(buf), true
}

func lastDotted(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[i+1:]
		}
	}
	return s
}

