// Package paging walks and extends the active 4-level x86-64 page table,
// using the direct map to reach physical pages without a recursive
// mapping trick. Grounded on Biscuit's pg2pmap/pgbits helpers
// (biscuit/src/mem/dmap.go), generalized from a per-process Vm_t to the
// single kernel address space spec.md §2.5/§4.2 describes.
//
// Like Biscuit's fs package tests its block cache against a fake
// Blockmem_i/Disk_i instead of a real disk, this package talks to memory
// through the Space interface so Map/Translate can be exercised with an
// in-process fake table instead of a real CR3-backed address space.
package paging

import (
	"parvaos/internal/kconfig"
	"parvaos/internal/mem"
)

// PTE flag bits.
const (
	FlagPresent Pa = 1 << 0
	FlagWrite   Pa = 1 << 1
	FlagHuge    Pa = 1 << 7
	addrMask    Pa = 0x000FFFFFFFFFF000
)

// Pa mirrors mem.Pa for page-table entry values (an entry holds flags in
// its low bits and a frame address in addrMask).
type Pa = mem.Pa

// table is one 512-entry page-table page.
type table [512]Pa

// Space abstracts access to the active root page table and to physical
// frames as addressable page-table pages. HardwareSpace implements it
// against the real CR3 register and the direct map; tests implement it
// against a plain Go map.
type Space interface {
	// Root returns the physical address of the top-level table.
	Root() mem.Pa
	// Table returns a mutable view of the page-table page at frame p.
	Table(p mem.Pa) *table
	// Invalidate flushes the TLB entry covering vaddr, if any.
	Invalidate(vaddr uintptr)
}

func indices(vaddr uintptr) [4]int {
	return [4]int{
		int((vaddr >> 39) & 0x1FF),
		int((vaddr >> 30) & 0x1FF),
		int((vaddr >> 21) & 0x1FF),
		int((vaddr >> 12) & 0x1FF),
	}
}

// Mapper owns the frame allocator used to create intermediate tables and
// the address space it walks.
type Mapper struct {
	space  Space
	frames *mem.FrameAllocator
}

// NewMapper binds a frame allocator and address space for use by Map.
func NewMapper(space Space, frames *mem.FrameAllocator) *Mapper {
	return &Mapper{space: space, frames: frames}
}

// Map walks (creating as needed) the 4 levels of page table for vaddr and
// writes a leaf entry pointing at a freshly allocated, zeroed frame with
// the given flags, then invalidates the TLB for that page (spec.md
// §4.2). It returns the physical frame backing the mapping.
func (m *Mapper) Map(vaddr uintptr, flags Pa) mem.Pa {
	idx := indices(vaddr)
	tbl := m.space.Table(m.space.Root())
	for level := 0; level < 3; level++ {
		e := &tbl[idx[level]]
		if *e&FlagPresent == 0 {
			frame := m.frames.Alloc()
			*m.space.Table(frame) = table{}
			*e = Pa(frame) | FlagPresent | FlagWrite
		}
		tbl = m.space.Table(*e & addrMask)
	}

	leaf := &tbl[idx[3]]
	frame := m.frames.Alloc()
	*m.space.Table(frame) = table{}
	*leaf = Pa(frame) | flags | FlagPresent

	m.space.Invalidate(vaddr)
	return frame
}

// MapRange maps every page in [base, base+size).
func (m *Mapper) MapRange(base uintptr, size int, flags Pa) {
	for off := 0; off < size; off += kconfig.PageSize {
		m.Map(base+uintptr(off), flags)
	}
}

// Translate walks the table read-only and returns the physical frame
// mapped at vaddr, or ok=false if no leaf entry is present.
func (m *Mapper) Translate(vaddr uintptr) (mem.Pa, bool) {
	idx := indices(vaddr)
	tbl := m.space.Table(m.space.Root())
	for level := 0; level < 3; level++ {
		e := tbl[idx[level]]
		if e&FlagPresent == 0 {
			return 0, false
		}
		tbl = m.space.Table(e & addrMask)
	}
	leaf := tbl[idx[3]]
	if leaf&FlagPresent == 0 {
		return 0, false
	}
	return mem.Pa(leaf & addrMask), true
}
