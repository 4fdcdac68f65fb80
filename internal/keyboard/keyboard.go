// Package keyboard decodes scancode-set-1 bytes from the 8042 keyboard
// controller into tagged input events, preserving special keys (Esc,
// Tab, Space, WASD, arrows, Backspace, Enter) so the windowing and
// terminal layers can tell movement commands from character input
// (spec.md §4.5).
package keyboard

import "parvaos/internal/kio"

const (
	dataPort   = 0x60
	statusPort = 0x64
	outputFull = 1 << 0
)

// Key identifies a special, non-printable key.
type Key int

const (
	KeyNone Key = iota
	KeyEsc
	KeyTab
	KeyBackspace
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

// Event is a single decoded keyboard input, either a printable character
// or a special key, carrying the live modifier state.
type Event struct {
	Char  byte
	Key   Key
	Shift bool
	Ctrl  bool
	Alt   bool
}

// scancode-set-1 make codes for keys with no ASCII mapping.
const (
	scLShift   = 0x2A
	scRShift   = 0x36
	scLCtrl    = 0x1D
	scLAlt     = 0x38
	scEsc      = 0x01
	scTab      = 0x0F
	scBackspace = 0x0E
	scEnter    = 0x1C
	scSpace    = 0x39
	breakBit   = 0x80
)

var extendedMap = map[byte]Key{
	0x48: KeyUp,
	0x50: KeyDown,
	0x4B: KeyLeft,
	0x4D: KeyRight,
}

// unshifted/shifted ASCII tables for the printable portion of scancode
// set 1 (0x02-0x0B digit row + qwerty rows), indexed by scancode.
var lowerTable = map[byte]byte{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x39: ' ',
}

var upperTable = map[byte]byte{
	0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%',
	0x07: '^', 0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')',
	0x10: 'Q', 0x11: 'W', 0x12: 'E', 0x13: 'R', 0x14: 'T',
	0x15: 'Y', 0x16: 'U', 0x17: 'I', 0x18: 'O', 0x19: 'P',
	0x1E: 'A', 0x1F: 'S', 0x20: 'D', 0x21: 'F', 0x22: 'G',
	0x23: 'H', 0x24: 'J', 0x25: 'K', 0x26: 'L',
	0x2C: 'Z', 0x2D: 'X', 0x2E: 'C', 0x2F: 'V', 0x30: 'B',
	0x31: 'N', 0x32: 'M',
	0x39: ' ',
}

// Controller owns the decode state machine and feeds a Ring.
type Controller struct {
	ports kio.PortIO
	ring  *Ring

	shift, ctrl, alt bool
	extendPending    bool
}

// NewController binds a Controller to the ring it feeds.
func NewController(ports kio.PortIO, ring *Ring) *Controller {
	return &Controller{ports: ports, ring: ring}
}

// IRQHandler is registered as the IRQ1 handler. It reads exactly one
// scancode byte per call and pushes at most one decoded event.
func (c *Controller) IRQHandler() {
	if c.ports.In8(statusPort)&outputFull == 0 {
		return
	}
	sc := c.ports.In8(dataPort)
	c.Feed(sc)
}

// Feed decodes a single raw scancode byte. Exposed directly so tests can
// inject a sequence of scancodes without a fake port bus.
func (c *Controller) Feed(sc byte) {
	if sc == 0xE0 {
		c.extendPending = true
		return
	}
	extended := c.extendPending
	c.extendPending = false

	brk := sc&breakBit != 0
	code := sc &^ breakBit

	switch code {
	case scLShift, scRShift:
		c.shift = !brk
		return
	case scLCtrl:
		c.ctrl = !brk
		return
	case scLAlt:
		c.alt = !brk
		return
	}

	if brk {
		return // only make codes generate events
	}

	ev := Event{Shift: c.shift, Ctrl: c.ctrl, Alt: c.alt}

	if extended {
		if k, ok := extendedMap[code]; ok {
			ev.Key = k
			c.ring.Push(ev)
		}
		return
	}

	switch code {
	case scEsc:
		ev.Key = KeyEsc
	case scTab:
		ev.Key = KeyTab
	case scBackspace:
		ev.Key = KeyBackspace
	case scEnter:
		ev.Key = KeyEnter
	default:
		table := lowerTable
		if c.shift {
			table = upperTable
		}
		ch, ok := table[code]
		if !ok {
			return
		}
		ev.Char = ch
		if code == scSpace {
			ev.Key = KeyNone
		}
	}
	c.ring.Push(ev)
}
