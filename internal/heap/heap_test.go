package heap

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func newTestHeap(t *testing.T, size int) (*Allocator, []byte) {
	t.Helper()
	buf := make([]byte, size)
	base := uintptr(unsafe.Pointer(&buf[0]))
	return New(base, uintptr(size)), buf
}

func TestAllocWithinBounds(t *testing.T) {
	a, buf := newTestHeap(t, 4096)
	base := uintptr(unsafe.Pointer(&buf[0]))
	end := base + uintptr(len(buf))

	p := a.Alloc(64, 8)
	if p < base || p+64 > end {
		t.Fatalf("allocation %#x..%#x escaped heap bounds %#x..%#x", p, p+64, base, end)
	}
}

func TestAllocRespectsAlignment(t *testing.T) {
	a, _ := newTestHeap(t, 4096)
	p := a.Alloc(10, 64)
	if p%64 != 0 {
		t.Fatalf("expected 64-byte aligned address, got %#x", p)
	}
}

func TestFreeRecoversAlignedBlock(t *testing.T) {
	a, _ := newTestHeap(t, 4096)
	initial := a.FreeBytes()

	p := a.Alloc(10, 64)
	if p%64 != 0 {
		t.Fatalf("expected 64-byte aligned address, got %#x", p)
	}
	a.Free(p)

	require.Equal(t, initial, a.FreeBytes(), "expected aligned block to coalesce back to initial free bytes")
	require.Zero(t, a.InUse())

	// Alloc again to confirm the free list wasn't corrupted by Free
	// reading a bogus header.
	q := a.Alloc(10, 64)
	if q != p {
		t.Fatalf("expected freed aligned block to be reused, got %#x then %#x", p, q)
	}
}

func TestAllocWriteRoundTrip(t *testing.T) {
	a, _ := newTestHeap(t, 4096)
	p := a.Alloc(16, 8)
	dst := (*[16]byte)(unsafe.Pointer(p))
	for i := range dst {
		dst[i] = byte(i)
	}
	for i := range dst {
		if dst[i] != byte(i) {
			t.Fatalf("byte %d: expected %d got %d", i, i, dst[i])
		}
	}
}

func TestFreeReverseOrderCoalescesFully(t *testing.T) {
	a, _ := newTestHeap(t, 8192)
	initial := a.FreeBytes()

	sizes := []uintptr{32, 64, 128, 16, 256}
	ptrs := make([]uintptr, len(sizes))
	for i, s := range sizes {
		ptrs[i] = a.Alloc(s, 8)
	}
	for i := len(ptrs) - 1; i >= 0; i-- {
		a.Free(ptrs[i])
	}

	require.Equal(t, initial, a.FreeBytes(), "expected full coalesce back to initial free bytes")
	require.Zero(t, a.InUse())
}

func TestFreeForwardOrderCoalescesFully(t *testing.T) {
	a, _ := newTestHeap(t, 8192)
	initial := a.FreeBytes()

	sizes := []uintptr{40, 80, 20, 200}
	ptrs := make([]uintptr, len(sizes))
	for i, s := range sizes {
		ptrs[i] = a.Alloc(s, 8)
	}
	for _, p := range ptrs {
		a.Free(p)
	}

	require.Equal(t, initial, a.FreeBytes(), "expected full coalesce back to initial free bytes")
}

func TestAllocExhaustionPanics(t *testing.T) {
	a, _ := newTestHeap(t, 256)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic when heap is exhausted")
		}
	}()
	a.Alloc(1<<20, 8)
}

func TestAllocAfterFreeReusesSpace(t *testing.T) {
	a, _ := newTestHeap(t, 512)
	p1 := a.Alloc(64, 8)
	a.Free(p1)
	p2 := a.Alloc(64, 8)
	if p1 != p2 {
		t.Fatalf("expected freed block to be reused, got %#x then %#x", p1, p2)
	}
}
