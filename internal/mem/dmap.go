package mem

import (
	"unsafe"

	"parvaos/internal/kconfig"
)

// Dmap converts a physical address into its direct-mapped virtual
// address: physical memory up to the usable limit is linearly mapped at
// kconfig.PhysOffset (spec.md §3), exactly as Biscuit's Dmap does
// against its own VDIRECT constant.
func Dmap(p Pa) unsafe.Pointer {
	return unsafe.Pointer(kconfig.PhysOffset + uintptr(p))
}

// Dmap8 returns a byte slice view of a direct-mapped frame, useful for
// block-device buffers and page-table scratch space.
func Dmap8(p Pa) []byte {
	ptr := (*[kconfig.PageSize]byte)(Dmap(p))
	return ptr[:]
}

// DmapV2P converts a direct-mapped virtual address back to its physical
// address; panics if v does not lie in the direct map range.
func DmapV2P(v unsafe.Pointer) Pa {
	va := uintptr(v)
	if va < kconfig.PhysOffset {
		panic("mem: address isn't in the direct map")
	}
	return Pa(va - kconfig.PhysOffset)
}
