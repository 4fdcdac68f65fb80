package paging

import (
	"parvaos/internal/cpu"
	"parvaos/internal/mem"
)

// HardwareSpace implements Space against the real CR3 register and the
// physical-offset direct map (spec.md §4.2).
type HardwareSpace struct{}

// Root reads CR3 and masks off the flag bits, per spec.md §4.2: "read its
// physical address from the current root-page-table register".
func (HardwareSpace) Root() mem.Pa {
	return mem.Pa(cpu.ReadCR3() &^ 0xFFF)
}

// Table reinterprets frame p as a page-table page via the direct map.
func (HardwareSpace) Table(p mem.Pa) *table {
	return (*table)(mem.Dmap(p))
}

// Invalidate issues INVLPG for vaddr.
func (HardwareSpace) Invalidate(vaddr uintptr) {
	cpu.Invlpg(vaddr)
}
