package keyboard

import "testing"

func TestFeedLowercaseLetter(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	c.Feed(0x1E) // 'a' make code
	ev, ok := r.Pop()
	if !ok || ev.Char != 'a' {
		t.Fatalf("expected 'a', got %+v ok=%v", ev, ok)
	}
}

func TestFeedShiftedLetter(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	c.Feed(scLShift)
	c.Feed(0x1E)
	c.Feed(scLShift | breakBit)
	ev, ok := r.Pop()
	if !ok || ev.Char != 'A' {
		t.Fatalf("expected 'A', got %+v ok=%v", ev, ok)
	}
}

func TestFeedSpecialKeys(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	c.Feed(scEsc)
	c.Feed(scTab)
	c.Feed(scEnter)
	c.Feed(scBackspace)

	want := []Key{KeyEsc, KeyTab, KeyEnter, KeyBackspace}
	for _, w := range want {
		ev, ok := r.Pop()
		if !ok || ev.Key != w {
			t.Fatalf("expected %v, got %+v ok=%v", w, ev, ok)
		}
	}
}

func TestFeedExtendedArrow(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	c.Feed(0xE0)
	c.Feed(0x48) // up arrow
	ev, ok := r.Pop()
	if !ok || ev.Key != KeyUp {
		t.Fatalf("expected up arrow, got %+v ok=%v", ev, ok)
	}
}

func TestFeedBreakCodeProducesNoEvent(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	c.Feed(0x1E | breakBit)
	if r.Len() != 0 {
		t.Fatalf("expected no event on break code")
	}
}

func TestFIFOOrder(t *testing.T) {
	r := NewRing(16)
	c := NewController(nil, r)
	scancodes := []byte{0x1E, 0x1F, 0x20} // a, s, d
	for _, sc := range scancodes {
		c.Feed(sc)
	}
	want := "asd"
	for i := 0; i < len(want); i++ {
		ev, ok := r.Pop()
		if !ok || ev.Char != want[i] {
			t.Fatalf("position %d: expected %q, got %+v", i, want[i], ev)
		}
	}
}

func TestRingOverflowDropsNewest(t *testing.T) {
	r := NewRing(2)
	ok1 := r.Push(Event{Char: 'a'})
	ok2 := r.Push(Event{Char: 'b'})
	ok3 := r.Push(Event{Char: 'c'})
	if !ok1 || !ok2 {
		t.Fatalf("expected first two pushes to succeed")
	}
	if ok3 {
		t.Fatalf("expected third push to be dropped")
	}
	ev, _ := r.Pop()
	if ev.Char != 'a' {
		t.Fatalf("expected FIFO order preserved, got %+v", ev)
	}
}
