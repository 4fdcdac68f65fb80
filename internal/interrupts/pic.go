package interrupts

import "parvaos/internal/kio"

// Legacy dual-8259 PIC ports.
const (
	picMasterCmd  = 0x20
	picMasterData = 0x21
	picSlaveCmd   = 0xA0
	picSlaveData  = 0xA1

	icw1Init = 0x11
	icw4_8086 = 0x01
	picEOI    = 0x20
)

// RemapPIC reprograms the PIC pair so IRQ0-7 land on masterOffset and
// IRQ8-15 land on slaveOffset, instead of colliding with CPU exception
// vectors 0-15 (spec.md §4.1: offsets 0x20 / 0x28).
func RemapPIC(ports kio.PortIO, masterOffset, slaveOffset uint8) {
	masterMask := ports.In8(picMasterData)
	slaveMask := ports.In8(picSlaveData)

	ports.Out8(picMasterCmd, icw1Init)
	ports.Out8(picSlaveCmd, icw1Init)
	ports.Out8(picMasterData, masterOffset)
	ports.Out8(picSlaveData, slaveOffset)
	ports.Out8(picMasterData, 4) // tell master PIC there's a slave at IRQ2
	ports.Out8(picSlaveData, 2)  // tell slave PIC its cascade identity
	ports.Out8(picMasterData, icw4_8086)
	ports.Out8(picSlaveData, icw4_8086)

	ports.Out8(picMasterData, masterMask)
	ports.Out8(picSlaveData, slaveMask)
}

// SendEOI acknowledges an IRQ. IRQs from the slave PIC (irq >= 8) require
// an EOI to both PICs.
func SendEOI(ports kio.PortIO, irq int) {
	if irq >= 8 {
		ports.Out8(picSlaveCmd, picEOI)
	}
	ports.Out8(picMasterCmd, picEOI)
}

// SetMask enables (mask=false) or disables (mask=true) a single IRQ line.
func SetMask(ports kio.PortIO, irq int, mask bool) {
	port := uint16(picMasterData)
	line := uint(irq)
	if irq >= 8 {
		port = picSlaveData
		line -= 8
	}
	v := ports.In8(port)
	if mask {
		v |= 1 << line
	} else {
		v &^= 1 << line
	}
	ports.Out8(port, v)
}
