// Command kernel is ParvaOS's freestanding entry point. It is linked as
// a flat ELF image and jumped to by the preceding boot stage with
// interrupts disabled, a usable stack, and the memory-map descriptor the
// boot contract promises (spec.md §6) left at a fixed, identity-mapped
// physical address. Everything from here on is ordinary Go: this
// function parses that descriptor, builds internal/kernel.Kernel, and
// runs it forever.
package main

import (
	"unsafe"

	"parvaos/internal/kconfig"
	"parvaos/internal/kernel"
	"parvaos/internal/mem"
)

// memMapAddr is where the boot stage leaves the memory-map descriptor:
// a uint64 entry count followed by that many {start, len} uint64 pairs,
// both in bytes. Reserved by the same boot handoff contract that fixes
// kconfig.GDTBase/IDTBase.
const memMapAddr = uintptr(0x500)

// rawRegion mirrors one boot-stage memory-map entry's on-wire layout.
type rawRegion struct {
	Start uint64
	Len   uint64
}

// readMemoryMap parses the boot-stage descriptor into mem.Region values,
// dropping any region too small to hold a single frame.
func readMemoryMap() []mem.Region {
	count := *(*uint64)(unsafe.Pointer(memMapAddr))
	entries := (*[1 << 16]rawRegion)(unsafe.Pointer(memMapAddr + 8))[:count:count]

	regions := make([]mem.Region, 0, count)
	for _, e := range entries {
		if e.Len < kconfig.PageSize {
			continue
		}
		regions = append(regions, mem.Region{Start: mem.Pa(e.Start), Len: uintptr(e.Len)})
	}
	return regions
}

func main() {
	k := kernel.New(readMemoryMap())
	k.Run()
}
