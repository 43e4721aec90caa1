package vt

// Screen is a fixed cols x rows grid of cells with a cursor position.
// Overflow past the last row scrolls: the top row is dropped and a
// blank row appended.
type Screen struct {
	Cols, Rows     int
	CursorX        int
	CursorY        int
	rows           [][]Cell
}

// NewScreen allocates a blank cols x rows grid with the cursor at the
// origin.
func NewScreen(cols, rows int) *Screen {
	s := &Screen{Cols: cols, Rows: rows}
	s.rows = make([][]Cell, rows)
	for i := range s.rows {
		s.rows[i] = blankRow(cols)
	}
	return s
}

func blankRow(cols int) []Cell {
	r := make([]Cell, cols)
	for i := range r {
		r[i] = DefaultCell()
	}
	return r
}

// Row returns the cells of row y; callers must not retain it past the
// next mutation.
func (s *Screen) Row(y int) []Cell {
	return s.rows[y]
}

// Set stores cell at (x, y). Writes outside the grid are ignored.
func (s *Screen) Set(x, y int, cell Cell) {
	if y < 0 || y >= s.Rows || x < 0 || x >= s.Cols {
		return
	}
	s.rows[y][x] = cell
}

// Get reads the cell at (x, y).
func (s *Screen) Get(x, y int) Cell {
	return s.rows[y][x]
}

// ScrollUp drops the top row and appends a blank row at the bottom.
func (s *Screen) ScrollUp() {
	copy(s.rows, s.rows[1:])
	s.rows[s.Rows-1] = blankRow(s.Cols)
}

// ClampCursor keeps the cursor within [0,cols) x [0,rows).
func (s *Screen) ClampCursor() {
	if s.CursorX < 0 {
		s.CursorX = 0
	}
	if s.CursorX >= s.Cols {
		s.CursorX = s.Cols - 1
	}
	if s.CursorY < 0 {
		s.CursorY = 0
	}
	if s.CursorY >= s.Rows {
		s.CursorY = s.Rows - 1
	}
}

// EraseDisplay implements CSI J: mode 0 erases cursor-to-end, 1
// erases start-to-cursor, 2 or 3 erases everything.
func (s *Screen) EraseDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseLineFrom(s.CursorY, s.CursorX)
		for y := s.CursorY + 1; y < s.Rows; y++ {
			s.rows[y] = blankRow(s.Cols)
		}
	case 1:
		for y := 0; y < s.CursorY; y++ {
			s.rows[y] = blankRow(s.Cols)
		}
		s.eraseLineTo(s.CursorY, s.CursorX)
	default:
		for y := 0; y < s.Rows; y++ {
			s.rows[y] = blankRow(s.Cols)
		}
	}
}

// EraseLine implements CSI K, row-local to the cursor's row.
func (s *Screen) EraseLine(mode int) {
	switch mode {
	case 0:
		s.eraseLineFrom(s.CursorY, s.CursorX)
	case 1:
		s.eraseLineTo(s.CursorY, s.CursorX)
	default:
		s.rows[s.CursorY] = blankRow(s.Cols)
	}
}

func (s *Screen) eraseLineFrom(y, x int) {
	for c := x; c < s.Cols; c++ {
		s.rows[y][c] = DefaultCell()
	}
}

func (s *Screen) eraseLineTo(y, x int) {
	for c := 0; c <= x && c < s.Cols; c++ {
		s.rows[y][c] = DefaultCell()
	}
}

// Resize reshapes the grid to new dimensions, preserving existing
// content top-left-aligned and filling new cells with the default. The
// cursor is clamped into the new bounds.
func (s *Screen) Resize(cols, rows int) {
	newRows := make([][]Cell, rows)
	for y := 0; y < rows; y++ {
		nr := blankRow(cols)
		if y < len(s.rows) {
			n := cols
			if len(s.rows[y]) < n {
				n = len(s.rows[y])
			}
			copy(nr, s.rows[y][:n])
		}
		newRows[y] = nr
	}
	s.rows = newRows
	s.Cols = cols
	s.Rows = rows
	s.ClampCursor()
}

// Render renders row y as a string, trimming nothing (trailing spaces
// are part of the fixed-width row).
func (s *Screen) Render(y int) string {
	runes := make([]rune, s.Cols)
	for x, c := range s.rows[y] {
		runes[x] = c.Ch
	}
	return string(runes)
}
