// Package kio provides byte-level port I/O and the serial debug console.
// Every other subsystem that touches hardware (PIC, PIT, keyboard
// controller, ATA, text framebuffer) goes through the PortIO interface
// here rather than calling internal/cpu directly, so that subsystem
// logic can be tested against a fake bus, the same way Biscuit's fs and
// vm packages are tested against fake Blockmem_i/Disk_i implementations.
package kio

import "parvaos/internal/cpu"

// PortIO abstracts raw IN/OUT access to the legacy x86 I/O space.
type PortIO interface {
	Out8(port uint16, val uint8)
	In8(port uint16) uint8
	Out16(port uint16, val uint16)
	In16(port uint16) uint16
	Out32(port uint16, val uint32)
	In32(port uint16) uint32
}

// HardwarePorts is the real PortIO backed by the IN/OUT instructions.
type HardwarePorts struct{}

func (HardwarePorts) Out8(port uint16, val uint8)   { cpu.Out8(port, val) }
func (HardwarePorts) In8(port uint16) uint8         { return cpu.In8(port) }
func (HardwarePorts) Out16(port uint16, val uint16) { cpu.Out16(port, val) }
func (HardwarePorts) In16(port uint16) uint16       { return cpu.In16(port) }
func (HardwarePorts) Out32(port uint16, val uint32) { cpu.Out32(port, val) }
func (HardwarePorts) In32(port uint16) uint32       { return cpu.In32(port) }

// Ports is the process-wide port-I/O backend: a plain package variable
// initialised to HardwarePorts{}, per spec.md's design note on ownership:
// real hardware access cannot be threaded as a constructor argument
// through an interrupt handler, so it lives here instead.
var Ports PortIO = HardwarePorts{}
