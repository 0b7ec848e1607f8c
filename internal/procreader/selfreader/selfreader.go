// Package selfreader implements procreader.Reader against the calling
// process's own address space. It exists so the scanning pipeline can be
// exercised end-to-end (CLI selftest subcommand, integration tests)
// without a second target process to attach to.
package selfreader

import (
	"unsafe"

	"serpent/internal/procreader"
)

// Reader reads memory that belongs to arenas the caller hands it via Map.
// There is no general facility in Go for enumerating or reading arbitrary
// process memory (the runtime does not expose it, nor should it); instead
// the reader is seeded with byte slices the caller wants visible to a scan,
// keyed by the address their first byte occupies.
type Reader struct {
	attached bool
	blocks   map[uint64][]byte
}

// New returns a Reader with no memory mapped.
func New() *Reader {
	return &Reader{blocks: make(map[uint64][]byte)}
}

// Map exposes data as readable at the address of its first element.
// Callers typically pass a slice backing a struct they just allocated, using
// uintptr(unsafe.Pointer(&v)) as addr.
func (r *Reader) Map(addr uint64, data []byte) {
	r.blocks[addr] = data
}

// AddrOf returns the runtime address of the first byte of v.
func AddrOf(v []byte) uint64 {
	if len(v) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&v[0])))
}

// Attach marks the reader ready; pid is ignored since the target is always
// the calling process.
func (r *Reader) Attach(pid int) bool {
	r.attached = true
	return true
}

// Detach clears all mapped blocks.
func (r *Reader) Detach() {
	r.attached = false
	r.blocks = make(map[uint64][]byte)
}

// Read copies len(out) bytes starting at addr from whichever mapped block
// contains that range, or fails if addr..addr+len(out) isn't fully covered
// by one mapped block.
func (r *Reader) Read(addr uint64, out []byte) bool {
	if !r.attached {
		return false
	}
	for start, data := range r.blocks {
		end := start + uint64(len(data))
		if addr >= start && addr+uint64(len(out)) <= end {
			copy(out, data[addr-start:])
			return true
		}
	}
	return false
}

// Regions returns one synthetic region per mapped block.
func (r *Reader) Regions() ([]procreader.MemRegion, error) {
	regions := make([]procreader.MemRegion, 0, len(r.blocks))
	for start, data := range r.blocks {
		regions = append(regions, procreader.MemRegion{
			Start: start,
			End:   start + uint64(len(data)),
			Perm:  procreader.PermRead | procreader.PermWrite,
			Name:  "[self]",
		})
	}
	return regions, nil
}
