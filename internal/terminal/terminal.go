// Package terminal implements the line editor, input router, and shell
// dispatch table of spec.md §4.10: it owns a cursor position within the
// window's interior, forwards keystrokes to the window manager while it
// is out of Normal mode, and otherwise builds up a command line and runs
// it against ParvaFS and the probed ATA device on Enter.
package terminal

import (
	"parvaos/internal/ata"
	"parvaos/internal/display"
	"parvaos/internal/keyboard"
	"parvaos/internal/parvafs"
	"parvaos/internal/window"
)

// Rebooter triggers a CPU reset, normally via the 8042 controller's
// pulse-reset command.
type Rebooter interface {
	Reboot()
}

// Shutdowner requests the hosting emulator exit, normally via QEMU's
// isa-debug-exit port, falling back to parking the CPU.
type Shutdowner interface {
	Shutdown()
}

// Scheduler is the cooperative-yield surface Loop needs from
// proc.Scheduler: give up the CPU to any other Ready task, and park the
// core when none is Ready. *proc.Scheduler satisfies this structurally.
type Scheduler interface {
	YieldNow()
	Idle(halt func())
}

const promptString = "> "

// Terminal is the shell: a line editor plus the spec.md §4.10 dispatch
// table, bound to one window's interior and one (possibly unmounted) FS.
type Terminal struct {
	grid *display.Grid
	win  *window.Window
	ring *keyboard.Ring

	ataCtl  *ata.Controller
	devices []ata.Device
	fs      *parvafs.FS

	reboot   Rebooter
	shutdown Shutdowner
	sched    Scheduler

	cursorRow, cursorCol int
	line                 []byte
}

// New builds a Terminal bound to grid/win for output, ring for input,
// ataCtl/devices for the "install" command's target device, fs if a
// ParvaFS volume was already mounted during boot (nil if none was), and
// sched so Loop can yield the way spec.md §4.6 requires of the shell's
// input-wait loop.
func New(grid *display.Grid, win *window.Window, ring *keyboard.Ring, ataCtl *ata.Controller, devices []ata.Device, fs *parvafs.FS, reboot Rebooter, shutdown Shutdowner, sched Scheduler) *Terminal {
	t := &Terminal{
		grid: grid, win: win, ring: ring,
		ataCtl: ataCtl, devices: devices, fs: fs,
		reboot: reboot, shutdown: shutdown, sched: sched,
	}
	t.win.Redraw()
	t.Print(promptString)
	return t
}

// PollOnce pops at most one event from the ring and routes it; a no-op
// if the ring is empty.
func (t *Terminal) PollOnce() {
	ev, ok := t.ring.Pop()
	if !ok {
		return
	}
	t.HandleEvent(ev)
}

// Loop runs the shell as the cooperative task spec.md §4.6 names: poll
// one input event, then yield before checking again, so it "does so in
// its input-wait loop" instead of busy-spinning the one core across every
// other Ready task. halt parks the core when no task is Ready (the same
// halt the top-level kernel loop used to call directly).
func (t *Terminal) Loop(halt func()) {
	for {
		t.PollOnce()
		t.sched.YieldNow()
		t.sched.Idle(halt)
	}
}

// HandleEvent routes one decoded keyboard event according to the
// window's current mode (spec.md §4.9): Normal forwards to the line
// editor, Move/Fullscreen consume Tab/WASD/Esc/Space as window commands.
func (t *Terminal) HandleEvent(ev keyboard.Event) {
	switch t.win.Mode() {
	case window.ModeNormal:
		if ev.Key == keyboard.KeyTab {
			t.win.EnterMove()
			return
		}
		t.handleLineInput(ev)
	case window.ModeMove:
		if ev.Key == keyboard.KeyEsc {
			t.win.ExitToNormal()
			return
		}
		switch ev.Char {
		case 'w':
			t.win.Shift(-1, 0)
		case 's':
			t.win.Shift(1, 0)
		case 'a':
			t.win.Shift(0, -1)
		case 'd':
			t.win.Shift(0, 1)
		case ' ':
			t.win.ToggleFullscreen()
		}
	case window.ModeFullscreen:
		if ev.Char == ' ' {
			t.win.ToggleFullscreen()
		}
	}
}

func (t *Terminal) handleLineInput(ev keyboard.Event) {
	switch ev.Key {
	case keyboard.KeyEnter:
		t.submit()
	case keyboard.KeyBackspace:
		t.backspace()
	default:
		if ev.Char != 0 {
			t.line = append(t.line, ev.Char)
			t.Print(string(ev.Char))
		}
	}
}

func (t *Terminal) submit() {
	line := string(t.line)
	t.line = t.line[:0]
	t.Print("\n")
	t.Execute(line)
	t.Print(promptString)
}

func (t *Terminal) backspace() {
	if len(t.line) == 0 {
		return
	}
	t.line = t.line[:len(t.line)-1]

	_, _, _, cols := t.win.Interior()
	if t.cursorCol > 0 {
		t.cursorCol--
	} else if t.cursorRow > 0 {
		t.cursorRow--
		t.cursorCol = cols - 1
	} else {
		return
	}
	row, col, _, _ := t.win.Interior()
	t.grid.Put(row+t.cursorRow, col+t.cursorCol, ' ', display.ColorWhite, display.ColorBlack)
}

// Print writes s into the window's interior starting at the current
// cursor position, wrapping and scrolling the interior as needed.
func (t *Terminal) Print(s string) {
	row, col, rows, cols := t.win.Interior()
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '\n' {
			t.cursorRow++
			t.cursorCol = 0
		} else {
			t.grid.Put(row+t.cursorRow, col+t.cursorCol, ch, display.ColorWhite, display.ColorBlack)
			t.cursorCol++
			if t.cursorCol >= cols {
				t.cursorCol = 0
				t.cursorRow++
			}
		}
		if t.cursorRow >= rows {
			t.scrollInterior()
			t.cursorRow = rows - 1
		}
	}
}

// PrintLine prints s followed by a newline.
func (t *Terminal) PrintLine(s string) {
	t.Print(s)
	t.Print("\n")
}

// scrollInterior shifts the window's interior content up by one row,
// independent of display.Grid.Scroll (which would also shift the
// window's own border out of place).
func (t *Terminal) scrollInterior() {
	row, col, rows, cols := t.win.Interior()
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols; c++ {
			cell := t.grid.At(row+r+1, col+c)
			t.grid.Put(row+r, col+c, cell.Ch, cell.Fg, cell.Bg)
		}
	}
	for c := 0; c < cols; c++ {
		t.grid.Put(row+rows-1, col+c, ' ', display.ColorWhite, display.ColorBlack)
	}
}

// clear wipes the interior and resets the cursor (spec.md §4.10 "clear").
func (t *Terminal) clear() {
	row, col, rows, cols := t.win.Interior()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.grid.Put(row+r, col+c, ' ', display.ColorWhite, display.ColorBlack)
		}
	}
	t.cursorRow, t.cursorCol = 0, 0
}
