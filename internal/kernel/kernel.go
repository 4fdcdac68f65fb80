// Package kernel wires every subsystem into the single aggregate spec.md
// §9's design note calls for: "a single Kernel aggregate created on
// entry, holding each subsystem; references passed explicitly. Where
// that is impractical (IRQ handlers), use a single top-level mutable
// slot guarded by a spin lock, initialized once during bring-up and
// never rewritten." The explicit fields below are that aggregate; the
// package-level slots in internal/kio (Ports, Console) and
// internal/interrupts (global) are the handful of IRQ-reachable
// exceptions the note carves out.
package kernel

import (
	"parvaos/internal/ata"
	"parvaos/internal/cpu"
	"parvaos/internal/display"
	"parvaos/internal/heap"
	"parvaos/internal/interrupts"
	"parvaos/internal/kconfig"
	"parvaos/internal/keyboard"
	"parvaos/internal/kio"
	"parvaos/internal/mem"
	"parvaos/internal/paging"
	"parvaos/internal/parvafs"
	"parvaos/internal/proc"
	"parvaos/internal/terminal"
	"parvaos/internal/timer"
	"parvaos/internal/window"
)

// Kernel aggregates every subsystem brought up during boot. Built once
// by New and then driven by Run; nothing outside this package holds a
// second copy of any of these pointers except where a subsystem itself
// documents a necessary global (kio.Ports, kio.Console).
type Kernel struct {
	Frames     *mem.FrameAllocator
	Mapper     *paging.Mapper
	Heap       *heap.Allocator
	Interrupts *interrupts.Controller
	Timer      *timer.Timer
	Keyboard   *keyboard.Controller
	Ring       *keyboard.Ring
	Scheduler  *proc.Scheduler
	ATA        *ata.Controller
	Devices    []ata.Device
	FS         *parvafs.FS
	Grid       *display.Grid
	Window     *window.Window
	Terminal   *terminal.Terminal
}

// New performs the bring-up sequence of spec.md §2 / §4 in order: frame
// allocator over the bootloader-reported regions, page tables and heap,
// interrupt plumbing (not yet enabled), the cooperative scheduler, the
// ATA bus probe and an opportunistic ParvaFS mount, and finally the
// single terminal window. regions must already be sorted and
// frame-aligned per the boot handoff contract (spec.md §6).
func New(regions []mem.Region) *Kernel {
	k := &Kernel{}

	k.Frames = mem.NewFrameAllocator(regions)
	k.Mapper = paging.NewMapper(paging.HardwareSpace{}, k.Frames)
	k.Mapper.MapRange(kconfig.HeapBase, kconfig.HeapSize, paging.FlagWrite)
	k.Mapper.MapRange(kconfig.IST1Base, kconfig.IST1Size, paging.FlagWrite)
	k.Heap = heap.New(kconfig.HeapBase, kconfig.HeapSize)

	kio.Console = kio.NewSerial(kio.Ports)

	k.Interrupts = interrupts.NewController(kio.Console, cpu.Halt)
	k.Interrupts.SetHeapRangeChecker(func(addr uintptr) bool {
		return addr >= kconfig.HeapBase && addr < kconfig.HeapBase+kconfig.HeapSize
	})
	interrupts.Init(kio.Ports, kconfig.GDTBase, kconfig.IDTBase, kconfig.IST1Base+kconfig.IST1Size, k.Interrupts)

	k.Scheduler = proc.New(k.Heap, proc.HardwareSwitcher{})

	k.Timer = timer.New(kio.Ports, kconfig.TimerHz)
	k.Timer.OnTick(k.Scheduler.TimerTick)
	k.Interrupts.RegisterIRQ(0, k.Timer.IRQHandler)

	k.Ring = keyboard.NewRing(kconfig.KeyboardRingSize)
	k.Keyboard = keyboard.NewController(kio.Ports, k.Ring)
	k.Interrupts.RegisterIRQ(1, k.Keyboard.IRQHandler)

	cpu.EnableInterrupts()

	k.ATA = ata.New(kio.Ports, k.Scheduler)
	k.Devices = k.ATA.Probe()
	k.FS = tryMount(k.ATA, k.Devices)

	k.Grid = display.NewDefault()
	// Leave a margin around the window well past 1 cell on every edge, so
	// Move mode (spec.md §4.9/§8) has real room to shift the origin in
	// either axis instead of being clamped after a single step.
	k.Window = window.New(k.Grid, kconfig.WindowMarginRows, kconfig.WindowMarginCols,
		kconfig.ScreenRows-2*kconfig.WindowMarginRows, kconfig.ScreenCols-2*kconfig.WindowMarginCols, "ParvaOS")
	k.Terminal = terminal.New(k.Grid, k.Window, k.Ring, k.ATA, k.Devices, k.FS, terminal.HardwareRebooter{}, terminal.HardwareShutdowner{}, k.Scheduler)

	return k
}

// tryMount attempts to mount ParvaFS on the first probed device,
// returning nil (leaving the shell to run "install") if none is present
// or the volume isn't formatted. Extracted from New so the device-choice
// policy can be exercised against fakes without a real bus.
func tryMount(ctl *ata.Controller, devices []ata.Device) *parvafs.FS {
	dev, ok := chooseDevice(devices)
	if !ok {
		return nil
	}
	fs, err := parvafs.Mount(parvafs.AtaDevice{Controller: ctl, Device: dev})
	if err != 0 {
		return nil
	}
	return fs
}

// chooseDevice picks the first probed device as the boot volume (spec.md
// §9 names no multi-disk policy; this kernel only ever uses one disk).
func chooseDevice(devices []ata.Device) (ata.Device, bool) {
	if len(devices) == 0 {
		return ata.Device{}, false
	}
	return devices[0], true
}

// Run hands the terminal's input-wait loop to the scheduler as a spawned
// task (spec.md §4.6: the shell "runs as a cooperative task ... and does
// so in its input-wait loop") and then idles forever, yielding and
// halting between rounds so the process table stays live even with only
// one task in it. It never returns; the shell's "reboot"/"shutdown"
// commands leave the loop via HardwareRebooter/HardwareShutdowner instead
// of a return path.
func (k *Kernel) Run() {
	k.Scheduler.Spawn(func() { k.Terminal.Loop(cpu.Halt) })
	for {
		k.Scheduler.YieldNow()
		k.Scheduler.Idle(cpu.Halt)
	}
}
