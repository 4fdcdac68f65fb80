package proc

import (
	"testing"
	"unsafe"

	"parvaos/internal/kconfig"
)

// fakeStacks bump-allocates real addresses out of a Go-owned buffer, the
// way heap_test.go's newTestHeap backs the real allocator onto a slice:
// Spawn now writes an actual trampoline frame into the address it gets
// back, so a fake that returned bogus arithmetic (as this once did) would
// corrupt memory instead of merely being unrealistic.
type fakeStacks struct {
	buf  []byte
	next uintptr
}

func newFakeStacks(t *testing.T, tasks int) *fakeStacks {
	t.Helper()
	buf := make([]byte, (tasks+1)*kconfig.TaskStackSize)
	return &fakeStacks{buf: buf, next: uintptr(unsafe.Pointer(&buf[0]))}
}

func (f *fakeStacks) Alloc(size, align uintptr) uintptr {
	addr := (f.next + align - 1) &^ (align - 1)
	f.next = addr + size
	return addr
}

type recordingSwitcher struct {
	calls int
}

func (r *recordingSwitcher) Switch(savedSP *uintptr, newSP uintptr) {
	r.calls++
}

func TestSpawnFillsTableInOrder(t *testing.T) {
	s := New(newFakeStacks(t, 16), &recordingSwitcher{})
	ids := make([]int, 0, 16)
	for i := 0; i < 16; i++ {
		id := s.Spawn(func() {})
		if id < 0 {
			t.Fatalf("spawn %d unexpectedly failed", i)
		}
		ids = append(ids, id)
	}
	if s.Spawn(func() {}) != -1 {
		t.Fatalf("expected 17th spawn to fail, table capacity is 16")
	}
	if s.Count() != 16 {
		t.Fatalf("expected 16 live tasks, got %d", s.Count())
	}
}

func TestYieldNowRoundRobinFairness(t *testing.T) {
	s := New(newFakeStacks(t, 16), &recordingSwitcher{})
	idA := s.Spawn(func() {})
	idB := s.Spawn(func() {})

	// seed one task as already Running, as the scheduler's entry point
	// would before the first yield.
	idxA := s.indexOf(idA)
	s.tasks[idxA].state = StateRunning
	s.current = idxA

	counts := map[int]int{idA: 0, idB: 0}
	const rounds = 21
	for i := 0; i < rounds; i++ {
		s.YieldNow()
		counts[s.tasks[s.current].id]++
	}

	diff := counts[idA] - counts[idB]
	if diff < -1 || diff > 1 {
		t.Fatalf("expected counts to differ by at most 1, got A=%d B=%d", counts[idA], counts[idB])
	}
}

func TestYieldNowSkipsDoneTasks(t *testing.T) {
	s := New(newFakeStacks(t, 16), &recordingSwitcher{})
	idA := s.Spawn(func() {})
	idB := s.Spawn(func() {})
	idxA := s.indexOf(idA)
	s.tasks[idxA].state = StateRunning
	s.current = idxA

	s.tasks[s.indexOf(idB)].state = StateDone

	before := s.current
	s.YieldNow()
	if s.current != before {
		t.Fatalf("expected yield to be a no-op with no other Ready task")
	}
}

func TestFinishMarksCurrentDone(t *testing.T) {
	s := New(newFakeStacks(t, 16), &recordingSwitcher{})
	id := s.Spawn(func() {})
	idx := s.indexOf(id)
	s.tasks[idx].state = StateRunning
	s.current = idx

	s.Finish()
	if s.State(id) != StateDone {
		t.Fatalf("expected task marked Done")
	}
}

// TestSpawnSeedsTrampolineFrame checks the frame seedStack writes matches
// exactly what cpu.SwitchStack's pop sequence (R15,R14,R13,R12,BX,BP,
// then RET) expects to read back on the first switch into a new task:
// the two live slots are the entry closure pointer and *Scheduler, and
// the return address is taskTrampoline's own code address.
func TestSpawnSeedsTrampolineFrame(t *testing.T) {
	s := New(newFakeStacks(t, 1), &recordingSwitcher{})
	entry := func() {}
	id := s.Spawn(entry)
	idx := s.indexOf(id)

	sp := s.tasks[idx].sp
	frame := (*[taskFrameWords]uintptr)(unsafe.Pointer(sp))
	for i := 0; i < 4; i++ {
		if frame[i] != 0 {
			t.Fatalf("expected callee-saved slot %d zeroed, got %#x", i, frame[i])
		}
	}
	if frame[4] != closurePtr(entry) {
		t.Fatalf("expected BX slot to hold entry's closure pointer")
	}
	if frame[5] != uintptr(unsafe.Pointer(s)) {
		t.Fatalf("expected BP slot to hold *Scheduler")
	}
	if frame[6] != trampolinePC() {
		t.Fatalf("expected return address slot to hold taskTrampoline's PC")
	}
}

// indexOf is a small test helper; proc_test.go lives in package proc so
// it can reach the unexported task table directly, the way Biscuit's own
// _test.go files reach unexported fields of fs/vm structures.
func (s *Scheduler) indexOf(id int) int {
	for i := range s.tasks {
		if s.tasks[i].id == id {
			return i
		}
	}
	return -1
}
