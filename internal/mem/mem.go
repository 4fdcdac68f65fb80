// Package mem implements the frame allocator over the bootloader-supplied
// memory map and the physical-offset direct map, grounded directly on
// Biscuit's mem.Physmem_t/Dmap (biscuit/src/mem/mem.go, dmap.go). Unlike
// Biscuit's refcounted allocator (needed for a preemptive multi-process
// kernel), spec.md's workload never frees frames, so the allocator here
// is a simple monotonic cursor over the usable regions (spec.md §3).
package mem

import (
	"fmt"

	"parvaos/internal/kconfig"
)

// Pa is a physical address.
type Pa uintptr

// Region describes one usable range from the bootloader memory map.
type Region struct {
	Start Pa
	Len   uintptr // bytes
}

// FrameAllocator hands out physical frames monotonically from the
// regions the bootloader reported usable. Deallocation is a documented
// no-op: "no frame is returned twice" is trivially true because nothing
// is ever returned (spec.md §3).
type FrameAllocator struct {
	regions []Region
	region  int    // index into regions of the region currently being consumed
	cursor  Pa     // next frame address within regions[region]
	total   uint64 // frames handed out so far
}

// NewFrameAllocator builds an allocator over the regions, which must be
// sorted by Start and rounded to frame boundaries by the caller (the
// boot handoff contract guarantees this per spec.md §6).
func NewFrameAllocator(regions []Region) *FrameAllocator {
	fa := &FrameAllocator{regions: regions}
	if len(regions) > 0 {
		fa.cursor = regions[0].Start
	}
	return fa
}

// Alloc returns the next free frame's physical address. It panics if the
// memory map is exhausted: a fresh boot that runs out of frames during
// bring-up has no recovery path (mirrors heap.Alloc's OOM policy,
// spec.md §7).
func (fa *FrameAllocator) Alloc() Pa {
	for fa.region < len(fa.regions) {
		r := fa.regions[fa.region]
		end := r.Start + Pa(r.Len)
		if fa.cursor+Pa(kconfig.PageSize) <= end {
			p := fa.cursor
			fa.cursor += Pa(kconfig.PageSize)
			fa.total++
			return p
		}
		fa.region++
		if fa.region < len(fa.regions) {
			fa.cursor = fa.regions[fa.region].Start
		}
	}
	panic(fmt.Sprintf("mem: frame allocator exhausted after %d frames", fa.total))
}

// Allocated reports how many frames have been handed out.
func (fa *FrameAllocator) Allocated() uint64 { return fa.total }

// UsableLimit returns the highest physical address reported usable,
// i.e. the extent that the direct map (Dmap) must cover.
func (fa *FrameAllocator) UsableLimit() Pa {
	var max Pa
	for _, r := range fa.regions {
		if end := r.Start + Pa(r.Len); end > max {
			max = end
		}
	}
	return max
}
