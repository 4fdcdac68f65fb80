// Package timer programs the 8253/8254 PIT and keeps a monotonic tick
// counter (spec.md §2.3, §4.4). The IRQ0 handler only increments the
// counter and calls the hook registered with OnTick; it never allocates,
// never touches the FS or framebuffer (spec.md §5).
package timer

import (
	"sync/atomic"

	"parvaos/internal/kio"
)

const (
	pitChannel0   = 0x40
	pitCommand    = 0x43
	pitBaseFreq   = 1193182
	pitModeSquare = 0x36 // channel 0, lobyte/hibyte, square wave, binary
)

// Timer owns the tick counter and the hook invoked from IRQ0.
type Timer struct {
	ticks uint64
	onTick func()
}

// New programs PIT channel 0 for hz ticks per second.
func New(ports kio.PortIO, hz int) *Timer {
	divisor := pitBaseFreq / hz
	ports.Out8(pitCommand, pitModeSquare)
	ports.Out8(pitChannel0, uint8(divisor&0xFF))
	ports.Out8(pitChannel0, uint8((divisor>>8)&0xFF))
	return &Timer{}
}

// OnTick registers the function called from interrupt context on every
// tick, after the counter has been incremented. Kernel bring-up registers
// proc.Scheduler.TimerTick here, which only counts ticks; the hook must
// not block or allocate.
func (t *Timer) OnTick(f func()) { t.onTick = f }

// IRQHandler is registered as the IRQ0 handler.
func (t *Timer) IRQHandler() {
	atomic.AddUint64(&t.ticks, 1)
	if t.onTick != nil {
		t.onTick()
	}
}

// Ticks returns the current tick count.
func (t *Timer) Ticks() uint64 {
	return atomic.LoadUint64(&t.ticks)
}
