package terminal

import (
	"strings"
	"testing"

	"parvaos/internal/ata"
	"parvaos/internal/display"
	"parvaos/internal/kconfig"
	"parvaos/internal/keyboard"
	"parvaos/internal/kerrno"
	"parvaos/internal/parvafs"
	"parvaos/internal/window"
)

type memDevice struct {
	sectors map[uint32][kconfig.SectorSize]byte
}

func newMemDevice() *memDevice { return &memDevice{sectors: map[uint32][kconfig.SectorSize]byte{}} }

func (m *memDevice) ReadSector(lba uint32, buf []byte) kerrno.Err_t {
	s := m.sectors[lba]
	copy(buf, s[:])
	return 0
}

func (m *memDevice) WriteSector(lba uint32, buf []byte) kerrno.Err_t {
	var s [kconfig.SectorSize]byte
	copy(s[:], buf)
	m.sectors[lba] = s
	return 0
}

type recordingRebooter struct{ count int }

func (r *recordingRebooter) Reboot() { r.count++ }

type recordingShutdowner struct{ count int }

func (r *recordingShutdowner) Shutdown() { r.count++ }

func newTestTerminal(t *testing.T, fs *parvafs.FS) (*Terminal, *display.Grid, *recordingRebooter, *recordingShutdowner) {
	t.Helper()
	grid := display.New(25, 80)
	// Leave slack around the window on every edge so Move mode (tested in
	// TestTabEntersMoveModeAndConsumesKeystrokes) has somewhere to shift
	// the origin to; a window sized to fill its grid has none.
	win := window.New(grid, 0, 0, 20, 70, "term")
	ring := keyboard.NewRing(64)
	reboot := &recordingRebooter{}
	shutdown := &recordingShutdowner{}
	term := New(grid, win, ring, nil, nil, fs, reboot, shutdown, nil)
	return term, grid, reboot, shutdown
}

func interiorText(grid *display.Grid, win *window.Window) string {
	row, col, rows, cols := win.Interior()
	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ch := grid.At(row+r, col+c).Ch
			if ch == 0 {
				ch = ' '
			}
			b.WriteByte(ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestHelpPrintsCommandList(t *testing.T) {
	term, grid, _, _ := newTestTerminal(t, nil)
	win := term.win
	term.Execute("help")
	text := interiorText(grid, win)
	if !strings.Contains(text, "help") {
		t.Fatalf("expected output to contain a line about 'help', got:\n%s", text)
	}
}

func TestUnknownCommandPrintsNotFound(t *testing.T) {
	term, grid, _, _ := newTestTerminal(t, nil)
	term.Execute("bogus")
	if !strings.Contains(interiorText(grid, term.win), "command not found") {
		t.Fatalf("expected 'command not found' for an unknown command")
	}
}

func TestListWithoutMountReportsNotMounted(t *testing.T) {
	term, grid, _, _ := newTestTerminal(t, nil)
	term.Execute("list")
	if !strings.Contains(interiorText(grid, term.win), kerrno.NotMounted.String()) {
		t.Fatalf("expected NotMounted message when no FS is mounted")
	}
}

func TestCrfileEditReadRoundTrip(t *testing.T) {
	dev := newMemDevice()
	fs, err := parvafs.Format(dev)
	if err != 0 {
		t.Fatalf("format failed: %v", err)
	}
	term, grid, _, _ := newTestTerminal(t, fs)

	term.Execute("crfile greet")
	term.Execute("edit greet hello")
	term.Execute("read greet")

	if !strings.Contains(interiorText(grid, term.win), "hello") {
		t.Fatalf("expected 'hello' in terminal output after edit+read")
	}
}

func TestCrfileDuplicateReportsAlreadyExists(t *testing.T) {
	dev := newMemDevice()
	fs, err := parvafs.Format(dev)
	if err != 0 {
		t.Fatalf("format failed: %v", err)
	}
	term, grid, _, _ := newTestTerminal(t, fs)

	term.Execute("crfile a")
	term.Execute("crfile a")
	if !strings.Contains(interiorText(grid, term.win), kerrno.AlreadyExists.String()) {
		t.Fatalf("expected 'already exists' message on duplicate crfile")
	}
}

func TestShutdownInvokesShutdowner(t *testing.T) {
	term, _, _, shutdown := newTestTerminal(t, nil)
	term.Execute("shutdown")
	if shutdown.count != 1 {
		t.Fatalf("expected shutdown to be invoked once, got %d", shutdown.count)
	}
}

func TestRebootInvokesRebooter(t *testing.T) {
	term, _, reboot, _ := newTestTerminal(t, nil)
	term.Execute("reboot")
	if reboot.count != 1 {
		t.Fatalf("expected reboot to be invoked once, got %d", reboot.count)
	}
}

func TestTabEntersMoveModeAndConsumesKeystrokes(t *testing.T) {
	term, _, _, _ := newTestTerminal(t, nil)
	term.HandleEvent(keyboard.Event{Key: keyboard.KeyTab})
	if term.win.Mode() != window.ModeMove {
		t.Fatalf("expected Tab to enter Move mode")
	}

	term.HandleEvent(keyboard.Event{Char: 'd'})
	term.HandleEvent(keyboard.Event{Char: 'd'})
	term.HandleEvent(keyboard.Event{Char: 'd'})
	_, col := term.win.Origin()
	if col != 3 {
		t.Fatalf("expected 3 'd' presses in Move mode to shift column by 3, got %d", col)
	}

	term.HandleEvent(keyboard.Event{Key: keyboard.KeyEsc})
	if term.win.Mode() != window.ModeNormal {
		t.Fatalf("expected Esc to return to Normal mode")
	}
}

func TestKeyboardFIFOOrderPreserved(t *testing.T) {
	term, grid, _, _ := newTestTerminal(t, nil)
	ctl := keyboard.NewController(nil, term.ring)
	// feed scancodes for 'h' then 'i' directly (scancode set 1: h=0x23, i=0x17)
	ctl.Feed(0x23)
	ctl.Feed(0x17)

	term.PollOnce()
	term.PollOnce()

	text := interiorText(grid, term.win)
	if !strings.Contains(text, "hi") {
		t.Fatalf("expected typed characters 'h' then 'i' to appear in order, got:\n%s", text)
	}
}

func TestAtaDeviceAdapterSatisfiesBlockDevice(t *testing.T) {
	var _ parvafs.BlockDevice = parvafs.AtaDevice{Controller: &ata.Controller{}, Device: ata.Device{}}
}
