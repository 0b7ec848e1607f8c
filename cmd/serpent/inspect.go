package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"serpent/internal/pluginreg"

	_ "serpent/internal/abi/cpython310"
	_ "serpent/internal/procreader/linuxreader"
)

// cmdInspect is the reference front-end: attach to pid, print the type
// name of the object at addr, then up to 10 memory regions formatted
// "0xSTART - 0xEND [rwx]".
func cmdInspect(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: serpent inspect <pid> <addr-hex> [major minor]")
	}

	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("inspect: invalid pid %q: %w", args[0], err)
	}
	addr, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[1]), "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("inspect: invalid addr %q: %w", args[1], err)
	}

	major, minor := 3, 10
	if len(args) >= 4 {
		if major, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("inspect: invalid major %q: %w", args[2], err)
		}
		if minor, err = strconv.Atoi(args[3]); err != nil {
			return fmt.Errorf("inspect: invalid minor %q: %w", args[3], err)
		}
	}

	reader, err := pluginreg.Reader(runtime.GOOS)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if !reader.Attach(pid) {
		return fmt.Errorf("inspect: failed to attach to pid %d", pid)
	}
	defer reader.Detach()

	decoder, err := pluginreg.Decoder(major, minor, reader)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if decoder == nil {
		return fmt.Errorf("inspect: no decoder registered for %d.%d", major, minor)
	}

	fmt.Println(decoder.TypeName(addr, reader))

	regions, err := reader.Regions()
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	if len(regions) > 10 {
		regions = regions[:10]
	}
	for _, r := range regions {
		fmt.Printf("0x%x - 0x%x [%s]\n", r.Start, r.End, r.Perm)
	}
	return nil
}
