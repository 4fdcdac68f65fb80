package interrupts

import (
	"fmt"
	"io"
)

// IRQHandler is invoked for a hardware interrupt after EOI bookkeeping is
// decided but before it is sent; returning lets the caller send EOI
// exactly once, matching spec.md §4.1 ("each send end-of-interrupt to the
// PIC after their handler runs").
type IRQHandler func()

// HaltFunc parks the CPU forever; swapped out in tests so a fatal
// exception can be observed instead of actually halting the process.
type HaltFunc func()

// Controller owns the exception/IRQ dispatch tables and the fatal-halt
// policy from spec.md §4.1/§7: every exception handler logs vector,
// error code and RIP over serial then halts, except that double fault
// always runs on its own stack and page fault / GP fault are explicitly
// named fatal cases.
type Controller struct {
	log   io.Writer
	halt  HaltFunc
	irqs  [16]IRQHandler
	ports interface {
		Out8(port uint16, val uint8)
		In8(port uint16) uint8
	}
	heapRange func(addr uintptr) bool
}

// NewController wires a Controller to its serial log sink and halt policy.
func NewController(log io.Writer, halt HaltFunc) *Controller {
	return &Controller{log: log, halt: halt}
}

// SetHeapRangeChecker installs the predicate used to decide whether a
// page fault address falls inside a legitimate kernel range (identity
// map or heap). Outside that range a page fault is always fatal
// (spec.md §4.1).
func (c *Controller) SetHeapRangeChecker(f func(addr uintptr) bool) {
	c.heapRange = f
}

// RegisterIRQ installs the handler run for a given IRQ line (0-15).
func (c *Controller) RegisterIRQ(irq int, h IRQHandler) {
	c.irqs[irq] = h
}

// DispatchIRQ is called by the vector stub for IRQ0-15 (vector-0x20).
// It never allocates, never touches the filesystem, never touches the
// framebuffer (spec.md §5): the registered handlers for timer and
// keyboard are themselves held to that contract.
func (c *Controller) DispatchIRQ(irq int) {
	if h := c.irqs[irq]; h != nil {
		h()
	}
}

// DispatchException is called by the vector stub for vectors 0-31. It
// implements the CPUException policy of spec.md §7: log then halt,
// always, with double fault singled out only in that its stub ran on
// IST1 rather than the interrupted stack.
func (c *Controller) DispatchException(f Frame, faultAddr uintptr) {
	fmt.Fprintf(c.log, "CPU EXCEPTION %d (%s) errcode=%#x rip=%#x\n",
		f.Vector, ExceptionName(f.Vector), f.ErrorCode, f.RIP)

	if f.Vector == VecPageFault {
		fmt.Fprintf(c.log, "  page fault address=%#x\n", faultAddr)
		if c.heapRange != nil && c.heapRange(faultAddr) {
			fmt.Fprintf(c.log, "  (within mapped range; treating as fatal anyway: no demand paging)\n")
		}
	}

	c.halt()
}
