package keyboard

import "sync/atomic"

// Ring is a bounded lock-free single-producer/single-consumer FIFO of
// decoded input events, matching spec.md §5's ordering rule: the IRQ
// handler (producer) only touches atomic head/tail, never a lock a
// cooperative task might be holding. Overflow drops the newest event
// (spec.md §3).
type Ring struct {
	buf        []Event
	head, tail uint32 // atomically updated; head==tail means empty
}

// NewRing allocates a ring of the given capacity, which must be a power
// of two.
func NewRing(capacity int) *Ring {
	if capacity&(capacity-1) != 0 {
		panic("keyboard: ring capacity must be a power of two")
	}
	return &Ring{buf: make([]Event, capacity)}
}

func (r *Ring) mask(i uint32) uint32 { return i & uint32(len(r.buf)-1) }

// Push is called from interrupt context. It returns false if the ring
// was full and the event was dropped.
func (r *Ring) Push(e Event) bool {
	head := atomic.LoadUint32(&r.head)
	tail := atomic.LoadUint32(&r.tail)
	if head-tail == uint32(len(r.buf)) {
		return false
	}
	r.buf[r.mask(head)] = e
	atomic.StoreUint32(&r.head, head+1)
	return true
}

// Pop is called from the terminal task. It returns false if the ring is
// empty.
func (r *Ring) Pop() (Event, bool) {
	tail := atomic.LoadUint32(&r.tail)
	head := atomic.LoadUint32(&r.head)
	if tail == head {
		return Event{}, false
	}
	e := r.buf[r.mask(tail)]
	atomic.StoreUint32(&r.tail, tail+1)
	return e, true
}

// Len reports the number of pending events.
func (r *Ring) Len() int {
	return int(atomic.LoadUint32(&r.head) - atomic.LoadUint32(&r.tail))
}
