// Package linuxreader implements procreader.Reader against /proc on Linux.
//
// It reads /proc/<pid>/maps for region enumeration and /proc/<pid>/mem for
// byte access. Attach here is a best-effort existence-and-permission check
// rather than a full ptrace session — actual process-suspension semantics
// are an OS capability outside what procreader.Reader contracts for (see
// serpent/internal/procreader).
package linuxreader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"serpent/internal/procreader"
)

// Reader reads the memory of a Linux process through procfs.
type Reader struct {
	pid int
	mem *os.File
}

// New returns an unattached Linux process reader.
func New() *Reader {
	return &Reader{}
}

// Attach opens /proc/<pid>/mem for reading. Re-attaching first detaches.
func (r *Reader) Attach(pid int) bool {
	r.Detach()

	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return false
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return false
	}

	r.pid = pid
	r.mem = f
	return true
}

// Detach releases the open /proc/<pid>/mem handle. Safe to call repeatedly.
func (r *Reader) Detach() {
	if r.mem != nil {
		r.mem.Close()
		r.mem = nil
	}
	r.pid = 0
}

// Read copies exactly len(out) bytes from the target's address space.
// Returns false on any partial read, including reads that span an
// unmapped gap between regions.
func (r *Reader) Read(addr uint64, out []byte) bool {
	if r.mem == nil || len(out) == 0 {
		return false
	}
	n, err := r.mem.ReadAt(out, int64(addr))
	return err == nil && n == len(out)
}

// Regions parses /proc/<pid>/maps into a slice of procreader.MemRegion.
// Order follows the kernel's listing, which is ascending by address within
// one call but not guaranteed stable across calls as the target mutates its
// address space.
func (r *Reader) Regions() ([]procreader.MemRegion, error) {
	if r.pid == 0 {
		return nil, fmt.Errorf("linuxreader: not attached")
	}

	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", r.pid))
	if err != nil {
		return nil, fmt.Errorf("linuxreader: open maps: %w", err)
	}
	defer f.Close()

	var regions []procreader.MemRegion
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		region, ok := parseMapsLine(sc.Text())
		if !ok {
			continue
		}
		regions = append(regions, region)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("linuxreader: scan maps: %w", err)
	}
	return regions, nil
}

// parseMapsLine decodes one /proc/<pid>/maps line, e.g.:
//
//	7f1234500000-7f1234521000 rw-p 00000000 00:00 0   [heap]
func parseMapsLine(line string) (procreader.MemRegion, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return procreader.MemRegion{}, false
	}

	bounds := strings.SplitN(fields[0], "-", 2)
	if len(bounds) != 2 {
		return procreader.MemRegion{}, false
	}
	start, err := strconv.ParseUint(bounds[0], 16, 64)
	if err != nil {
		return procreader.MemRegion{}, false
	}
	end, err := strconv.ParseUint(bounds[1], 16, 64)
	if err != nil {
		return procreader.MemRegion{}, false
	}

	var perm procreader.Perm
	flags := fields[1]
	if len(flags) >= 3 {
		if flags[0] == 'r' {
			perm |= procreader.PermRead
		}
		if flags[1] == 'w' {
			perm |= procreader.PermWrite
		}
		if flags[2] == 'x' {
			perm |= procreader.PermExec
		}
	}

	var name string
	if len(fields) >= 6 {
		name = strings.Join(fields[5:], " ")
	}

	return procreader.MemRegion{Start: start, End: end, Perm: perm, Name: name}, true
}
