// Package display implements the shadow text framebuffer of spec.md
// §3/§4.9: an 80x25 grid of (char, fg, bg) cells mirrored in kernel
// memory, with a dirty bit per cell so Flush only re-touches the
// hardware bytes that actually changed. Logical state is kept in
// ordinary memory and reaches the volatile device only when Flush runs.
package display

import "parvaos/internal/kconfig"

// Color is a 4-bit VGA text-mode color index.
type Color uint8

const (
	ColorBlack Color = iota
	ColorBlue
	ColorGreen
	ColorCyan
	ColorRed
	ColorMagenta
	ColorBrown
	ColorLightGray
	ColorDarkGray
	ColorLightBlue
	ColorLightGreen
	ColorLightCyan
	ColorLightRed
	ColorLightMagenta
	ColorYellow
	ColorWhite
)

// Cell is one character cell: a byte plus foreground/background color.
type Cell struct {
	Ch byte
	Fg Color
	Bg Color
}

func (c Cell) attr() byte {
	return byte(c.Bg)<<4 | byte(c.Fg)
}

// HardwareWriter abstracts the volatile memory-mapped VGA text buffer;
// the real implementation writes through an unsafe pointer at
// kconfig.VGATextAddr, tests substitute an in-memory byte slice.
type HardwareWriter interface {
	WriteCell(index int, ch byte, attr byte)
}

// Grid is the shadow framebuffer: logical cell contents plus a dirty bit
// per cell, flushed to hardware only on demand.
type Grid struct {
	rows, cols int
	cells      []Cell
	dirty      []bool
}

// New builds a Grid sized rows x cols, entirely dirty (so the first
// Flush paints the whole screen).
func New(rows, cols int) *Grid {
	g := &Grid{rows: rows, cols: cols, cells: make([]Cell, rows*cols), dirty: make([]bool, rows*cols)}
	for i := range g.dirty {
		g.dirty[i] = true
	}
	return g
}

// NewDefault builds a Grid sized to the standard 80x25 text mode.
func NewDefault() *Grid {
	return New(kconfig.ScreenRows, kconfig.ScreenCols)
}

func (g *Grid) index(row, col int) int { return row*g.cols + col }

// Rows and Cols report the grid's dimensions.
func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Put sets one cell's contents and marks it dirty, if it changed and is
// within bounds; out-of-bounds coordinates are silently ignored (the
// window manager is responsible for clamping).
func (g *Grid) Put(row, col int, ch byte, fg, bg Color) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return
	}
	i := g.index(row, col)
	next := Cell{Ch: ch, Fg: fg, Bg: bg}
	if g.cells[i] != next {
		g.cells[i] = next
		g.dirty[i] = true
	}
}

// At returns the current contents of one cell.
func (g *Grid) At(row, col int) Cell {
	return g.cells[g.index(row, col)]
}

// Scroll shifts every row up by one, clearing the bottom row, and marks
// the entire viewport dirty (spec.md §4.9).
func (g *Grid) Scroll(blank Cell) {
	copy(g.cells, g.cells[g.cols:])
	for i := (g.rows - 1) * g.cols; i < len(g.cells); i++ {
		g.cells[i] = blank
	}
	for i := range g.dirty {
		g.dirty[i] = true
	}
}

// MarkDirty marks every cell in [row0,row1) x [col0,col1) dirty without
// changing its contents, used by the window manager to force a redraw
// of a region after a mode change (spec.md §4.9).
func (g *Grid) MarkDirty(row0, col0, row1, col1 int) {
	for r := row0; r < row1 && r < g.rows; r++ {
		if r < 0 {
			continue
		}
		for c := col0; c < col1 && c < g.cols; c++ {
			if c < 0 {
				continue
			}
			g.dirty[g.index(r, c)] = true
		}
	}
}

// Flush writes every dirty cell to hw and clears its dirty bit. Returns
// the number of cells written, mostly useful for tests.
func (g *Grid) Flush(hw HardwareWriter) int {
	n := 0
	for i, dirty := range g.dirty {
		if !dirty {
			continue
		}
		hw.WriteCell(i, g.cells[i].Ch, g.cells[i].attr())
		g.dirty[i] = false
		n++
	}
	return n
}
