package interrupts

import "parvaos/internal/kio"

var global *Controller

// Init builds the GDT (with its IST1 double-fault stack), the IDT, remaps
// the PIC to vectors 0x20-0x2F, and installs ctl as the process-wide
// dispatch target reached by the assembly vector stubs. Interrupts are
// NOT enabled here; the caller enables them only after this returns and
// the IST stack is confirmed mapped (spec.md §4.1).
func Init(ports kio.PortIO, gdtBase, idtBase, istStackTop uintptr, ctl *Controller) (*GDT, *IDT) {
	gdt := NewGDT(istStackTop)
	idt := NewIDT(ctl.log)

	for v := 0; v < 32; v++ {
		ist := uint8(0)
		if v == VecDoubleFault {
			ist = doubleFaultIST
		}
		idt.SetGate(v, stubAddr(v), ist)
	}
	for irq := 0; irq < 16; irq++ {
		idt.SetGate(VecIRQBase+irq, stubAddr(VecIRQBase+irq), 0)
	}

	installGDT(gdt, gdtBase)
	installIDT(idt, idtBase)

	RemapPIC(ports, VecIRQBase, VecIRQBase+8)

	global = ctl
	return gdt, idt
}

// stubAddr resolves vector v's assembly trampoline entry point. The
// trampolines are emitted in vectors_amd64.s, one per vector, each of
// which pushes v (and a dummy error code where the CPU doesn't push one)
// before jumping to the shared dispatcher.
func stubAddr(v int) uint64 {
	return vectorStubTable[v]
}

// onException is called by the shared assembly dispatcher for vectors
// 0-31. It is exported via //go:linkname equivalent registration: Go
// code never calls it directly, the stub does.
func onException(vector int, errorCode uint64, rip uintptr, faultAddr uintptr) {
	if global == nil {
		return
	}
	f := Frame{Vector: vector, ErrorCode: errorCode, RIP: rip, HasError: hasErrorCode[vector]}
	global.DispatchException(f, faultAddr)
}

// onIRQ is called by the shared dispatcher for vectors 0x20-0x2F.
func onIRQ(irq int) {
	if global == nil {
		return
	}
	global.DispatchIRQ(irq)
	SendEOI(kio.Ports, irq)
}
