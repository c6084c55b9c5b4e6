// Package memprobe implements the host side of memory_probe: a pointer-
// chain walk read out of a target process's address space through
// /proc/<pid>/mem. The original overlay ran injected into the game's own
// process and dereferenced the chain directly (follow_pointer_chain in
// overlay/src/lib.rs); this overlay is a separate process, so the same
// chase has to go through the kernel's cross-process read path instead.
package memprobe

import (
	"fmt"
	"os"
)

// Reader walks a memory_probe pointer chain inside one target process.
type Reader struct {
	pid int
}

// NewReader targets pid. The config DSL (ParseMemorySpec) carries no PID of
// its own — see DESIGN.md — so callers resolve the target process out of
// band and pass it in here.
func NewReader(pid int) *Reader { return &Reader{pid: pid} }

// Follow reads a ptrSize-wide pointer at base, adds offsets[0], reads the
// pointer there, adds offsets[1], and so on; after the last offset it
// reads a final 8-byte value at the resulting address and returns it.
// Mirrors follow_pointer_chain: a nil pointer at any hop reports 0 rather
// than an error, matching the original's silent-zero behavior.
func (r *Reader) Follow(ptrSize uint8, base uint64, offsets []int32) (uint64, error) {
	mem, err := os.Open(fmt.Sprintf("/proc/%d/mem", r.pid))
	if err != nil {
		return 0, fmt.Errorf("memprobe: open process memory: %w", err)
	}
	defer mem.Close()

	width := 8
	if ptrSize == 32 {
		width = 4
	}

	addr := base
	for _, off := range offsets {
		p, err := readWidth(mem, addr, width)
		if err != nil {
			return 0, fmt.Errorf("memprobe: read pointer at 0x%x: %w", addr, err)
		}
		if p == 0 {
			return 0, nil
		}
		addr = uint64(int64(p) + int64(off))
	}

	v, err := readWidth(mem, addr, 8)
	if err != nil {
		return 0, fmt.Errorf("memprobe: read value at 0x%x: %w", addr, err)
	}
	return v, nil
}

func readWidth(mem *os.File, addr uint64, width int) (uint64, error) {
	buf := make([]byte, width)
	if _, err := mem.ReadAt(buf, int64(addr)); err != nil {
		return 0, err
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, nil
}
