package kio

// COM1 UART registers, offsets from the base port.
const (
	com1Base    = 0x3F8
	regData     = com1Base + 0
	regIntEn    = com1Base + 1
	regFIFOCtrl = com1Base + 2
	regLineCtrl = com1Base + 3
	regModemCtrl = com1Base + 4
	regLineStat = com1Base + 5
)

// Serial is the COM1 debug console, used as the sink for every
// subsystem's ambient logging (the kernel has no disk-backed log before
// ParvaFS mounts, and the framebuffer is reserved for the shell).
type Serial struct {
	ports PortIO
}

// NewSerial programs COM1 for 38400 8N1 with FIFOs enabled.
func NewSerial(ports PortIO) *Serial {
	s := &Serial{ports: ports}
	s.ports.Out8(regIntEn, 0x00)
	s.ports.Out8(regLineCtrl, 0x80) // enable DLAB
	s.ports.Out8(regData, 0x03)     // divisor low: 38400 baud
	s.ports.Out8(regIntEn, 0x00)    // divisor high
	s.ports.Out8(regLineCtrl, 0x03) // 8N1, DLAB off
	s.ports.Out8(regFIFOCtrl, 0xC7) // enable + clear FIFOs, 14-byte trigger
	s.ports.Out8(regModemCtrl, 0x0B)
	return s
}

func (s *Serial) transmitEmpty() bool {
	return s.ports.In8(regLineStat)&0x20 != 0
}

// Write implements io.Writer, blocking until each byte is transmitted.
func (s *Serial) Write(p []byte) (int, error) {
	for _, b := range p {
		for !s.transmitEmpty() {
		}
		s.ports.Out8(regData, b)
	}
	return len(p), nil
}

// Console is the process-wide serial writer, initialized once during
// bring-up (internal/kernel.New) and never reassigned.
var Console *Serial
