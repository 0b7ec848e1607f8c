// Package testdouble provides in-memory fakes for procreader.Reader and
// abi.Decoder so the rest of serpent can be unit tested deterministically,
// without a live target process or a real interpreter build.
package testdouble

import (
	"fmt"

	"serpent/internal/procreader"
)

// Reader is an in-memory procreader.Reader backed by byte blocks the test
// installs with SetBytes, plus an explicit region list.
type Reader struct {
	attached bool
	pid      int
	blocks   map[uint64][]byte
	regions  []procreader.MemRegion
	// Unreadable, if set, marks addresses that must fail Read regardless of
	// whether they fall inside a mapped block — used to simulate partial
	// reads within an otherwise-mapped region.
	Unreadable map[uint64]bool
	// ForceRegionsErr makes Regions() return an error, to exercise the
	// Graph Builder's region-enumeration failure path.
	ForceRegionsErr bool
}

// NewReader returns an empty Reader.
func NewReader() *Reader {
	return &Reader{
		blocks:     make(map[uint64][]byte),
		Unreadable: make(map[uint64]bool),
	}
}

// SetBytes installs data as readable starting at addr.
func (r *Reader) SetBytes(addr uint64, data []byte) {
	r.blocks[addr] = data
}

// AddRegion appends a region to the list Regions() returns.
func (r *Reader) AddRegion(region procreader.MemRegion) {
	r.regions = append(r.regions, region)
}

// Attach always succeeds and records pid.
func (r *Reader) Attach(pid int) bool {
	r.attached = true
	r.pid = pid
	return true
}

// Detach marks the reader unattached; installed blocks and regions survive
// so a test can inspect prior state, matching the original mock's "idempotent,
// data outlives detach for inspection" convenience.
func (r *Reader) Detach() {
	r.attached = false
}

// Attached reports whether Attach has been called more recently than Detach.
func (r *Reader) Attached() bool { return r.attached }

// PID returns the pid passed to the most recent Attach.
func (r *Reader) PID() int { return r.pid }

// Read copies len(out) bytes from the block covering addr. Returns false if
// no installed block fully covers the requested range, or if any byte in
// the range was marked Unreadable.
func (r *Reader) Read(addr uint64, out []byte) bool {
	for a := addr; a < addr+uint64(len(out)); a++ {
		if r.Unreadable[a] {
			return false
		}
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

// Regions returns the installed region list, or an error if ForceRegionsErr
// is set.
func (r *Reader) Regions() ([]procreader.MemRegion, error) {
	if r.ForceRegionsErr {
		return nil, fmt.Errorf("testdouble: forced regions error")
	}
	return r.regions, nil
}
