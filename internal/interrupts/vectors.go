package interrupts

import (
	"reflect"
	"unsafe"
)

// The 48 raw trampoline entry points defined in vectors_amd64.s. Each
// pushes its vector number (the 24 exception stubs whose vector carries
// no hardware error code first push a zero placeholder, so the frame
// layout is uniform) and jumps to the shared entry path, which saves
// registers and calls the dispatcher that in turn calls onException or
// onIRQ.
var rawVectorStubs [48]func()

func init() {
	stubs := []func(){
		stub0, stub1, stub2, stub3, stub4, stub5, stub6, stub7,
		stub8, stub9, stub10, stub11, stub12, stub13, stub14, stub15,
		stub16, stub17, stub18, stub19, stub20, stub21, stub22, stub23,
		stub24, stub25, stub26, stub27, stub28, stub29, stub30, stub31,
		irqStub0, irqStub1, irqStub2, irqStub3, irqStub4, irqStub5, irqStub6, irqStub7,
		irqStub8, irqStub9, irqStub10, irqStub11, irqStub12, irqStub13, irqStub14, irqStub15,
	}
	copy(rawVectorStubs[:], stubs)
	for i, s := range stubs {
		vectorStubTable[i] = uint64(funcEntry(s))
	}
}

var vectorStubTable [48]uint64

// funcEntry extracts the machine code entry address of an assembly stub
// declared as a zero-argument Go function. This is how the IDT's gate
// offset is populated without a linker script: each stub is an ordinary
// TEXT symbol, addressable like any other func value.
func funcEntry(f func()) uintptr {
	return reflect.ValueOf(f).Pointer()
}

// installGDT copies the GDT's in-memory image to the fixed physical
// address reserved for it and loads it.
func installGDT(g *GDT, base uintptr) {
	dst := (*[5]uint64)(unsafe.Pointer(base))
	*dst = g.entries
	gdtr := g.gdtr(base)
	loadGDTFromBuf(gdtr)
}

// installIDT copies the IDT's in-memory image to its fixed address and
// loads it.
func installIDT(t *IDT, base uintptr) {
	dst := (*[256]idtEntry)(unsafe.Pointer(base))
	*dst = t.entries
	idtr := t.idtr(base)
	loadIDTFromBuf(idtr)
}
