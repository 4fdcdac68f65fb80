// Package interrupts installs the descriptor tables (GDT/IDT/TSS),
// remaps the legacy PIC, and dispatches CPU exceptions and hardware
// IRQs. The low-level ISR entry stubs (which must run in assembly long
// enough to save registers and call back into Go) live in vectors_amd64.s;
// everything about what an exception or IRQ *means* lives here, in plain
// Go, so it can be unit tested against synthetic vector numbers without
// ever trapping for real.
package interrupts

import (
	"encoding/binary"

	"parvaos/internal/cpu"
)

// gdtEntry is one 8-byte x86-64 GDT descriptor.
type gdtEntry struct {
	limitLow   uint16
	baseLow    uint16
	baseMid    uint8
	access     uint8
	granularity uint8
	baseHigh   uint8
}

// tssDescriptor is the 16-byte descriptor used for the 64-bit TSS.
type tssDescriptor struct {
	low  gdtEntry
	base uint32
	_    uint32
}

const (
	selNull = 0x00
	selKernelCode = 0x08
	selKernelData = 0x10
	selTSS        = 0x18 // occupies two GDT slots (16 bytes)
)

// TSS is the 64-bit task state segment. Only the IST slots are used: a
// cooperative kernel has no ring transitions to size RSP0-2 for, but
// IST1 backs the double-fault handler with a dedicated stack so that a
// faulting kernel stack does not itself cause a triple fault.
type TSS struct {
	_       uint32
	rsp     [3]uint64
	_       uint64
	ist     [7]uint64
	_       [2]uint32
	ioMapBase uint16
}

const doubleFaultIST = 1

// GDT holds the flat code/data segments plus the TSS used for IST.
type GDT struct {
	entries [5]uint64
	tss     tssDescriptor
	tssObj  TSS
	istStack []byte
}

// NewGDT builds the flat GDT Biscuit-style kernels use: one null
// descriptor, one 64-bit code segment, one data segment, and a TSS
// descriptor carrying the IST1 stack for double fault.
func NewGDT(istStackTop uintptr) *GDT {
	g := &GDT{}
	g.entries[0] = 0
	g.entries[1] = 0x00AF9A000000FFFF // kernel code: exec/read, long mode
	g.entries[2] = 0x00CF92000000FFFF // kernel data: read/write
	g.tssObj.ist[doubleFaultIST-1] = uint64(istStackTop)
	g.tssObj.ioMapBase = uint16(binarySizeOfTSS())
	return g
}

func binarySizeOfTSS() int { return 104 }

func loadGDTFromBuf(buf []byte) {
	cpu.LoadGDT(&buf[0])
}

// gdtr returns the 10-byte GDTR image (2-byte limit, 8-byte base) that
// cpu.LoadGDT expects.
func (g *GDT) gdtr(base uintptr) []byte {
	limit := uint16(len(g.entries)*8 + 16 - 1)
	buf := make([]byte, 10)
	binary.LittleEndian.PutUint16(buf[0:2], limit)
	binary.LittleEndian.PutUint64(buf[2:10], uint64(base))
	return buf
}
