// Package window implements the single-focused-window manager of
// spec.md §3/§4.9: one window over a rectangular subregion of the
// display grid, with Normal, Move, and Fullscreen modes.
package window

import "parvaos/internal/display"

// Mode is the window manager's input-routing state.
type Mode int

const (
	ModeNormal Mode = iota
	ModeMove
	ModeFullscreen
)

// Window is the single active window. Interior content (the terminal's
// cell buffer) is owned by the caller; Window only tracks geometry, mode,
// and blitting that geometry's border/title onto the shared Grid.
type Window struct {
	grid   *display.Grid
	row    int
	col    int
	rows   int
	cols   int
	title  string
	mode   Mode
	saved  struct {
		row, col, rows, cols int
	}
}

// New places a window of the given geometry on grid. Bounds are not
// validated here; callers are expected to pass a geometry that already
// satisfies origin+extent <= screen (spec.md §3's Window invariant).
func New(grid *display.Grid, row, col, rows, cols int, title string) *Window {
	return &Window{grid: grid, row: row, col: col, rows: rows, cols: cols, title: title}
}

// Mode reports the window's current mode.
func (w *Window) Mode() Mode { return w.mode }

// Origin reports the window's top-left corner.
func (w *Window) Origin() (row, col int) { return w.row, w.col }

// Extent reports the window's size.
func (w *Window) Extent() (rows, cols int) { return w.rows, w.cols }

// Interior returns the usable content area inside the border (one cell
// inset on every side, two rows reserved at the top for the title bar).
func (w *Window) Interior() (row, col, rows, cols int) {
	return w.row + 2, w.col + 1, w.rows - 3, w.cols - 2
}

// EnterMove switches to Move mode (entered by Tab per spec.md §4.9).
func (w *Window) EnterMove() {
	w.mode = ModeMove
}

// ExitToNormal returns to Normal mode (Esc while in Move).
func (w *Window) ExitToNormal() {
	w.mode = ModeNormal
}

// Shift moves the window's origin by (dRow, dCol), clamped so the window
// stays fully on screen. Only valid in Move mode; a no-op otherwise.
func (w *Window) Shift(dRow, dCol int) {
	if w.mode != ModeMove {
		return
	}
	w.row = clamp(w.row+dRow, 0, w.grid.Rows()-w.rows)
	w.col = clamp(w.col+dCol, 0, w.grid.Cols()-w.cols)
	w.redraw()
}

// ToggleFullscreen switches between Fullscreen and the prior geometry
// (Space while in Move, per spec.md §4.9). A no-op outside Move and
// Fullscreen.
func (w *Window) ToggleFullscreen() {
	switch w.mode {
	case ModeMove:
		w.saved.row, w.saved.col, w.saved.rows, w.saved.cols = w.row, w.col, w.rows, w.cols
		w.row, w.col = 0, 0
		w.rows, w.cols = w.grid.Rows(), w.grid.Cols()
		w.mode = ModeFullscreen
	case ModeFullscreen:
		w.row, w.col = w.saved.row, w.saved.col
		w.rows, w.cols = w.saved.rows, w.saved.cols
		w.mode = ModeMove
	default:
		return
	}
	w.redraw()
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// box-drawing bytes for a single-line border, CP437 encoding.
const (
	boxHorizontal  byte = 0xC4
	boxVertical    byte = 0xB3
	boxTopLeft     byte = 0xDA
	boxTopRight    byte = 0xBF
	boxBottomLeft  byte = 0xC0
	boxBottomRight byte = 0xD9
)

// redraw re-blits the window's border, title bar, and blank interior
// into the shadow grid and marks the whole region dirty (spec.md §4.9:
// "Redraw after any mode change re-blits the window background").
func (w *Window) redraw() {
	fg, bg := display.ColorWhite, display.ColorBlue

	for c := 0; c < w.cols; c++ {
		ch := boxHorizontal
		switch c {
		case 0:
			ch = boxTopLeft
		case w.cols - 1:
			ch = boxTopRight
		}
		w.grid.Put(w.row, w.col+c, ch, fg, bg)
	}
	for c := 0; c < w.cols; c++ {
		ch := byte(' ')
		if c < len(w.title) {
			ch = w.title[c]
		}
		w.grid.Put(w.row+1, w.col+c, ch, fg, bg)
	}
	for r := 2; r < w.rows-1; r++ {
		for c := 0; c < w.cols; c++ {
			ch := byte(' ')
			switch c {
			case 0, w.cols - 1:
				ch = boxVertical
			}
			w.grid.Put(w.row+r, w.col+c, ch, fg, bg)
		}
	}
	for c := 0; c < w.cols; c++ {
		ch := boxHorizontal
		switch c {
		case 0:
			ch = boxBottomLeft
		case w.cols - 1:
			ch = boxBottomRight
		}
		w.grid.Put(w.row+w.rows-1, w.col+c, ch, fg, bg)
	}
	w.grid.MarkDirty(w.row, w.col, w.row+w.rows, w.col+w.cols)
}

// Redraw exposes redraw for initial placement (callers draw the window
// once after construction, then again after every mode change).
func (w *Window) Redraw() {
	w.redraw()
}
