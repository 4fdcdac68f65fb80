// Package kconfig centralizes the build-time constants that size the
// kernel's memory layout, scheduler, and device timing. Biscuit spreads
// the same kind of constant across mem.go/dmap.go; ParvaOS keeps them in
// one place since there is only one address space to describe.
package kconfig

const (
	// PageSize is the size in bytes of a physical frame and a virtual page.
	PageSize = 1 << 12

	// PhysOffset is the fixed virtual address at which all usable physical
	// memory is linearly mapped ("direct map" in Biscuit's terminology).
	PhysOffset = uintptr(0xF00000000000)

	// HeapBase is the start of the kernel heap's virtual range.
	HeapBase = uintptr(0xFFFF800000000000)

	// HeapSize is the length in bytes of the kernel heap's virtual range.
	HeapSize = 16 * 1024 * 1024

	// MaxTasks bounds the cooperative process table.
	MaxTasks = 16

	// TaskStackSize is the stack allocated to each spawned task.
	TaskStackSize = 64 * 1024

	// TimerHz is the programmed frequency of PIT channel 0.
	TimerHz = 100

	// KeyboardRingSize is the capacity of the decoded-input ring buffer.
	KeyboardRingSize = 256

	// ScreenRows and ScreenCols describe the 80x25 text-mode viewport.
	ScreenRows = 25
	ScreenCols = 80

	// WindowMarginRows and WindowMarginCols inset the single terminal
	// window from the screen edge on every side, leaving 2x that much
	// clamp room in window.Shift's Move-mode origin (spec.md §4.9).
	WindowMarginRows = 4
	WindowMarginCols = 4

	// SectorSize is the size in bytes of one ATA sector / ParvaFS block.
	SectorSize = 512

	// SuperblockAddr is the fixed LBA of the ParvaFS superblock.
	// (1<<20)/512 reserves the first megabyte of the disk for boot.
	SuperblockAddr = (1 << 20) / 512

	// MaxBlocks bounds the number of data blocks the bitmap can describe.
	MaxBlocks = 1 << 20

	// BitsPerBitmapSector is the number of allocation bits one bitmap
	// sector holds after its 4-byte reserved header (508 bytes * 8 bits).
	BitsPerBitmapSector = (SectorSize - 4) * 8

	// BitmapSectors is the number of sectors spanned by the bitmap region.
	BitmapSectors = MaxBlocks / 8

	// DataAddrOffset is the LBA of the first data block, just past the
	// superblock and the bitmap region.
	DataAddrOffset = SuperblockAddr + 2 + BitmapSectors

	// ChainedPayloadSize is the usable payload of one chained data block
	// (512 bytes minus the 4-byte big-endian next-pointer).
	ChainedPayloadSize = SectorSize - 4

	// SuperblockMagic identifies a formatted ParvaFS disk.
	SuperblockMagic = "PARVA FS"

	// VGATextAddr is the physical address of the legacy 80x25 VGA text
	// mode framebuffer (2 bytes/cell: ASCII + attribute).
	VGATextAddr = uintptr(0xB8000)

	// GDTBase and IDTBase are the fixed physical addresses the GDT and
	// IDT images are installed at during bring-up (identity-mapped low
	// memory, reserved by the boot handoff contract, spec.md §6).
	GDTBase = uintptr(0x00000800)
	IDTBase = uintptr(0x00001000)

	// IST1Base and IST1Size locate the dedicated double-fault stack mapped
	// at bring-up (stacks grow down, so the pointer installed in the TSS is
	// IST1Base+IST1Size).
	IST1Base = uintptr(0xFFFF900000000000)
	IST1Size = 3 * PageSize

	// QEMUExitPort is the isa-debug-exit port used by "shutdown".
	QEMUExitPort = 0xF4

	// QEMUExitSuccess is written to QEMUExitPort to signal a clean exit;
	// the host test runner observes exit code (0x10<<1)|1 = 33.
	QEMUExitSuccess = 0x10
)
