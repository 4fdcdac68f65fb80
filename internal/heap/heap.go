// Package heap implements the linked-list, first-fit kernel heap
// allocator that serves the bounded virtual region mapped at bring-up
// (spec.md §2.6, §4.3). The free list is kept sorted by address so Free
// can coalesce with both neighbors in one pass, the way a textbook
// first-fit allocator (and Biscuit's own approach of keeping block
// metadata inline with the data it describes) would.
package heap

import (
	"fmt"
	"unsafe"
)

const minBlockSize = 32 // header + minimum usable payload

// blockHeader sits at the start of every block, free or allocated.
type blockHeader struct {
	size uintptr // total size of this block, including the header
	next *blockHeader
}

const headerSize = unsafe.Sizeof(blockHeader{})

// backptrSize is the width of the word Alloc stashes immediately below
// every address it hands out, recording that block's blockAddr so Free
// can find the header again regardless of how much alignment padding
// sits between the header and the returned pointer.
const backptrSize = unsafe.Sizeof(uintptr(0))

// Allocator is a first-fit, address-sorted free-list allocator over a
// single fixed virtual range [base, base+size).
type Allocator struct {
	base  uintptr
	size  uintptr
	free  *blockHeader
	inUse uintptr
}

// New initializes an allocator over a single block spanning the whole
// range. The caller is responsible for having mapped every page in that
// range before calling New (spec.md §4.3: "map every page of the range
// ... Initialize a linked-list allocator covering that range").
func New(base, size uintptr) *Allocator {
	if size < headerSize {
		panic("heap: region too small")
	}
	root := (*blockHeader)(unsafe.Pointer(base))
	root.size = size
	root.next = nil
	return &Allocator{base: base, size: size, free: root}
}

func align(v, a uintptr) uintptr {
	return (v + a - 1) &^ (a - 1)
}

// Alloc returns the address of a block of at least size bytes, aligned
// to align (which must be a power of two), splitting a larger free block
// if the remainder is still usable. It panics if no sufficiently large
// aligned block exists — spec.md §4.3 documents this as acceptable
// because allocation sizes are sized conservatively by callers.
func (a *Allocator) Alloc(size, alignment uintptr) uintptr {
	if alignment == 0 {
		alignment = 1
	}

	var prev *blockHeader
	for b := a.free; b != nil; b = b.next {
		blockAddr := uintptr(unsafe.Pointer(b))
		// Reserve a back-pointer word right after the header before
		// aligning, so alignedData-backptrSize always lands at or past
		// the header's end — never inside it — no matter how much
		// alignment padding follows.
		dataAddr := blockAddr + headerSize + backptrSize
		alignedData := align(dataAddr, alignment)
		total := align((alignedData+size)-blockAddr, 8)

		if b.size >= total {
			a.takeBlock(prev, b, blockAddr, total)
			a.inUse += b.size
			*(*uintptr)(unsafe.Pointer(alignedData - backptrSize)) = blockAddr
			return alignedData
		}
		prev = b
	}
	panic(fmt.Sprintf("heap: out of memory allocating %d bytes (align %d)", size, alignment))
}

// takeBlock removes b from the free list, splitting off a trailing free
// remainder if it's large enough to be useful on its own.
func (a *Allocator) takeBlock(prev, b *blockHeader, blockAddr, used uintptr) {
	remainder := b.size - used
	next := b.next

	if remainder >= minBlockSize {
		rem := (*blockHeader)(unsafe.Pointer(blockAddr + used))
		rem.size = remainder
		rem.next = next
		next = rem
		b.size = used
	}

	if prev == nil {
		a.free = next
	} else {
		prev.next = next
	}
}

// Free returns the block starting at dataAddr (as returned by Alloc) to
// the free list, inserted in address order and coalesced with whichever
// neighbor(s) are adjacent.
func (a *Allocator) Free(dataAddr uintptr) {
	// The block start lies at least headerSize+backptrSize below dataAddr,
	// further when Alloc added alignment padding; recover it from the
	// back-pointer Alloc stashed just below the address it returned.
	blockAddr := *(*uintptr)(unsafe.Pointer(dataAddr - backptrSize))
	b := (*blockHeader)(unsafe.Pointer(blockAddr))
	a.inUse -= b.size

	var prev *blockHeader
	cur := a.free
	for cur != nil && uintptr(unsafe.Pointer(cur)) < blockAddr {
		prev = cur
		cur = cur.next
	}

	b.next = cur
	if prev == nil {
		a.free = b
	} else {
		prev.next = b
	}

	a.coalesce(prev, b)
}

func (a *Allocator) coalesce(prev, b *blockHeader) {
	if next := b.next; next != nil {
		if uintptr(unsafe.Pointer(b))+b.size == uintptr(unsafe.Pointer(next)) {
			b.size += next.size
			b.next = next.next
		}
	}
	if prev != nil {
		if uintptr(unsafe.Pointer(prev))+prev.size == uintptr(unsafe.Pointer(b)) {
			prev.size += b.size
			prev.next = b.next
		}
	}
}

// FreeBytes returns the total size of all blocks currently on the free
// list, including their headers — used by the heap round-trip property
// (spec.md §8) to confirm full coalescing after a sequence of frees.
func (a *Allocator) FreeBytes() uintptr {
	var total uintptr
	for b := a.free; b != nil; b = b.next {
		total += b.size
	}
	return total
}

// InUse returns the number of bytes currently allocated (including
// per-block header overhead).
func (a *Allocator) InUse() uintptr { return a.inUse }
