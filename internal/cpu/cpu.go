// Package cpu declares the handful of privileged x86 primitives that no
// Go library can provide: port I/O, interrupt enable/disable, halt,
// descriptor-table loads, TLB invalidation, and the cooperative context
// switch. These are implemented in cpu_amd64.s, the same way the Go
// runtime itself drops to assembly for instructions with no HLL
// equivalent. Everything above this package is ordinary Go.
package cpu

// Out8 writes a byte to the given I/O port.
func Out8(port uint16, val uint8)

// In8 reads a byte from the given I/O port.
func In8(port uint16) uint8

// Out16 writes a 16-bit word to the given I/O port.
func Out16(port uint16, val uint16)

// In16 reads a 16-bit word from the given I/O port.
func In16(port uint16) uint16

// Out32 writes a 32-bit word to the given I/O port.
func Out32(port uint16, val uint32)

// In32 reads a 32-bit word from the given I/O port.
func In32(port uint16) uint32

// EnableInterrupts executes STI.
func EnableInterrupts()

// DisableInterrupts executes CLI.
func DisableInterrupts()

// Halt executes HLT, parking the core until the next interrupt.
func Halt()

// LoadGDT loads the global descriptor table from the given pointer/limit
// pair, encoded as a 10-byte GDTR image (2-byte limit, 8-byte base).
func LoadGDT(gdtr *byte)

// LoadIDT loads the interrupt descriptor table from a GDTR-shaped image.
func LoadIDT(idtr *byte)

// LoadTR loads the task register with the given GDT selector.
func LoadTR(selector uint16)

// Invlpg invalidates the TLB entry for the page containing vaddr.
func Invlpg(vaddr uintptr)

// ReadCR2 returns the faulting address recorded by the last page fault.
func ReadCR2() uintptr

// ReadCR3 returns the physical address of the active top-level page table.
func ReadCR3() uintptr

// SwitchStack saves the current stack pointer into *savedSP, switches to
// newSP, and returns when some other call to SwitchStack switches back to
// the stack whose pointer was saved at savedSP. This is the sole
// mechanism by which proc.YieldNow performs a cooperative context switch.
func SwitchStack(savedSP *uintptr, newSP uintptr)
