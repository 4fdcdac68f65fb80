// Package proc implements the fixed-capacity cooperative task table and
// round-robin scheduler of spec.md §2.7/§4.6. There is no preemption: a
// task only relinquishes the CPU at an explicit YieldNow call, which
// performs the actual stack switch via internal/cpu.SwitchStack.
package proc

import (
	"sync/atomic"
	"unsafe"

	"parvaos/internal/kconfig"
)

// State is a task's scheduling state.
type State int

const (
	StateUnused State = iota
	StateReady
	StateRunning
	StateDone
)

// StackAllocator carves out a fresh stack for a spawned task (normally
// heap.Allocator.Alloc); abstracted so tests can supply a trivial
// allocator instead of mapping real heap pages.
type StackAllocator interface {
	Alloc(size, align uintptr) uintptr
}

// Switcher performs the raw two-argument stack switch. HardwareSwitcher
// wraps internal/cpu.SwitchStack; tests substitute a fake that just
// records calls, since a real stack switch cannot be driven host-side
// without the task actually having a valid entry trampoline on it.
type Switcher interface {
	Switch(savedSP *uintptr, newSP uintptr)
}

// task is one entry in the fixed-capacity table.
type task struct {
	id    int
	state State
	sp    uintptr // saved stack pointer when not Running
}

// taskFrameWords is the number of uintptr-sized slots seedStack writes
// below a new task's stack top: four callee-saved slots SwitchStack pops
// as R15/R14/R13/R12 (zeroed; a fresh task has nothing there worth
// preserving), BX (the task's entry closure pointer), BP (the *Scheduler,
// smuggled through entry's call since compiled Go code never clobbers
// BP), and the return address SwitchStack's trailing RET lands on.
const taskFrameWords = 7

// seedStack writes an initial frame shaped exactly like the one
// cpu.SwitchStack expects to pop (PUSHQ BP/BX/R12/R13/R14/R15, in that
// order, followed by the caller's return address) so that the first
// switch into this task doesn't RET into whatever garbage happened to be
// on the freshly allocated stack — it RETs into taskTrampoline instead,
// which then calls entry.
func (s *Scheduler) seedStack(stackTop uintptr, entry func()) uintptr {
	sp := stackTop - taskFrameWords*unsafe.Sizeof(uintptr(0))
	frame := (*[taskFrameWords]uintptr)(unsafe.Pointer(sp))
	frame[0] = 0                           // R15
	frame[1] = 0                           // R14
	frame[2] = 0                           // R13
	frame[3] = 0                           // R12
	frame[4] = closurePtr(entry)           // BX: entry's closure pointer
	frame[5] = uintptr(unsafe.Pointer(s))  // BP: *Scheduler, for taskDone
	frame[6] = trampolinePC()              // return address
	return sp
}

// closurePtr extracts the closure pointer a func value carries — the
// representation the Go ABI already uses as the "context" register (DX on
// amd64) when calling through a func value, per runtime.gogo's own
// goroutine bootstrap.
func closurePtr(f func()) uintptr {
	return *(*uintptr)(unsafe.Pointer(&f))
}

// taskTrampolineFunc lets trampolinePC recover taskTrampoline's bare code
// address the same way: a non-capturing top-level function's closure
// struct holds nothing but its own PC.
var taskTrampolineFunc func() = taskTrampoline

func trampolinePC() uintptr {
	return **(**uintptr)(unsafe.Pointer(&taskTrampolineFunc))
}

// taskTrampoline is implemented in trampoline_amd64.s. It runs with BX
// holding the new task's entry closure pointer and BP holding *Scheduler
// (both placed there by seedStack); it calls entry, then hands off to
// taskDone so a returning task's stack is abandoned safely instead of
// falling off the end.
func taskTrampoline()

// taskDone marks the scheduler's current task Done and parks it on
// YieldNow forever; called from the trampoline after entry returns, so a
// task that falls off the end of its function body behaves like one that
// never called Finish itself.
func taskDone(s *Scheduler) {
	s.Finish()
	for {
		s.YieldNow()
	}
}

// Scheduler owns the task table and the round-robin cursor. Capacity is
// fixed at kconfig.MaxTasks (spec.md §3: "Fixed-capacity table (e.g. 16
// entries)").
type Scheduler struct {
	tasks   [kconfig.MaxTasks]task
	current int // index of the Running task, -1 if none
	stacks  StackAllocator
	sw      Switcher
	nextID  int
	ticks   uint64
}

// New builds an empty scheduler.
func New(stacks StackAllocator, sw Switcher) *Scheduler {
	s := &Scheduler{current: -1, stacks: stacks, sw: sw}
	for i := range s.tasks {
		s.tasks[i].state = StateUnused
	}
	return s
}

// Spawn allocates a stack and installs entry as a new Ready task. It
// returns the task id, or -1 if the table is full.
func (s *Scheduler) Spawn(entry func()) int {
	for i := range s.tasks {
		if s.tasks[i].state == StateUnused {
			stackBase := s.stacks.Alloc(kconfig.TaskStackSize, 16)
			stackTop := stackBase + kconfig.TaskStackSize
			s.nextID++
			s.tasks[i] = task{
				id:    s.nextID,
				state: StateReady,
				sp:    s.seedStack(stackTop, entry),
			}
			return s.tasks[i].id
		}
	}
	return -1
}

// Count reports how many tasks are not Unused.
func (s *Scheduler) Count() int {
	n := 0
	for i := range s.tasks {
		if s.tasks[i].state != StateUnused {
			n++
		}
	}
	return n
}

// State returns the state of the task with the given id, or
// StateUnused if no such task exists.
func (s *Scheduler) State(id int) State {
	for i := range s.tasks {
		if s.tasks[i].id == id {
			return s.tasks[i].state
		}
	}
	return StateUnused
}

// Finish marks the currently running task Done. Called by a task's entry
// function upon return, analogous to a thread returning from its start
// routine.
func (s *Scheduler) Finish() {
	if s.current >= 0 {
		s.tasks[s.current].state = StateDone
	}
}

// nextReady returns the index of the next Ready task after `from`,
// scanning round-robin, or -1 if none is Ready.
func (s *Scheduler) nextReady(from int) int {
	n := len(s.tasks)
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if s.tasks[i].state == StateReady {
			return i
		}
	}
	return -1
}

// YieldNow switches to the next Ready task in round-robin order. If the
// caller's task is still Running (not Done), it is marked Ready again so
// it will be revisited on a later yield. It is a no-op if no other task
// is Ready.
func (s *Scheduler) YieldNow() {
	next := s.nextReady(s.current)
	if next < 0 {
		return
	}

	prev := s.current
	if prev >= 0 && s.tasks[prev].state == StateRunning {
		s.tasks[prev].state = StateReady
	}

	s.tasks[next].state = StateRunning
	s.current = next

	var savedSP *uintptr
	if prev >= 0 {
		savedSP = &s.tasks[prev].sp
	} else {
		var discard uintptr
		savedSP = &discard
	}
	s.sw.Switch(savedSP, s.tasks[next].sp)
}

// Idle halts the CPU until the next interrupt when no task is Ready;
// called from the kernel's top-level loop between scheduling rounds
// (spec.md §4.6: "hlt with interrupts enabled").
func (s *Scheduler) Idle(halt func()) {
	if s.nextReady(s.current) >= 0 {
		return
	}
	halt()
}

// TimerTick is the hook timer.Timer.OnTick registers (spec.md §2.3/§4.4:
// "IRQ0 ... calls proc.TimerTick()"). It only bumps the tick count the
// PIT interrupt has raised; cooperative yield eligibility is still
// decided at an explicit YieldNow call, never from IRQ context.
func (s *Scheduler) TimerTick() {
	atomic.AddUint64(&s.ticks, 1)
}

// Ticks returns the number of PIT ticks observed so far.
func (s *Scheduler) Ticks() uint64 {
	return atomic.LoadUint64(&s.ticks)
}
