package vt

import "unicode/utf8"

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateDCS
)

// Emulator feeds a raw PTY/SSH byte stream through a small ECMA-48/
// VT100 state machine and maintains a Screen. It understands cursor
// motion, scrolling, and the CSI erase/position subset; SGR, OSC and
// DCS sequences are consumed without altering the grid.
type Emulator struct {
	Screen *Screen

	state   parserState
	params  []int
	curtok  string
	hasTok  bool
	utf8buf []byte

	attrs Cell // current SGR attributes, Ch unused
}

// NewEmulator allocates an emulator with a blank cols x rows screen.
func NewEmulator(cols, rows int) *Emulator {
	return &Emulator{
		Screen: NewScreen(cols, rows),
		attrs:  DefaultCell(),
	}
}

// Resize reshapes the underlying screen; see Screen.Resize.
func (e *Emulator) Resize(cols, rows int) {
	e.Screen.Resize(cols, rows)
}

// Feed processes a chunk of raw bytes from the PTY/SSH stream.
func (e *Emulator) Feed(data []byte) {
	for _, b := range data {
		e.feedByte(b)
	}
}

func (e *Emulator) feedByte(b byte) {
	switch e.state {
	case stateGround:
		e.ground(b)
	case stateEscape:
		e.escape(b)
	case stateCSI:
		e.csi(b)
	case stateOSC:
		switch b {
		case 0x07:
			e.state = stateGround
		case 0x1b: // ST is ESC '\'; escape() consumes the backslash
			e.state = stateEscape
		}
	case stateDCS:
		if b == 0x1b {
			e.state = stateEscape
		}
	}
}

func (e *Emulator) ground(b byte) {
	switch {
	case b == 0x1b:
		e.state = stateEscape
		e.utf8buf = e.utf8buf[:0]
	case b == '\n' || b == 0x0b || b == 0x0c: // LF, VT, FF
		e.newline()
	case b == '\r':
		e.Screen.CursorX = 0
	case b == 0x08: // BS
		if e.Screen.CursorX > 0 {
			e.Screen.CursorX--
		}
	case b == 0x09: // HT
		next := ((e.Screen.CursorX / 8) + 1) * 8
		if next > e.Screen.Cols-1 {
			next = e.Screen.Cols - 1
		}
		e.Screen.CursorX = next
	case b == 0x07: // BEL
		// ignored
	case b < 0x20:
		// other C0 controls: no-op
	default:
		e.printByte(b)
	}
}

// printByte accumulates UTF-8 continuation bytes and prints once a
// full rune is available.
func (e *Emulator) printByte(b byte) {
	e.utf8buf = append(e.utf8buf, b)
	r, size := utf8.DecodeRune(e.utf8buf)
	if r == utf8.RuneError && size <= 1 && len(e.utf8buf) < utf8.UTFMax {
		return // wait for more continuation bytes
	}
	e.utf8buf = e.utf8buf[:0]
	e.printRune(r)
}

func (e *Emulator) printRune(r rune) {
	cell := e.attrs
	cell.Ch = r
	if e.Screen.CursorX >= e.Screen.Cols {
		e.Screen.CursorX = 0
		e.newline()
	}
	e.Screen.Set(e.Screen.CursorX, e.Screen.CursorY, cell)
	e.Screen.CursorX++
}

func (e *Emulator) newline() {
	if e.Screen.CursorY == e.Screen.Rows-1 {
		e.Screen.ScrollUp()
	} else {
		e.Screen.CursorY++
	}
}

func (e *Emulator) escape(b byte) {
	switch b {
	case '[':
		e.state = stateCSI
		e.params = e.params[:0]
		e.curtok = ""
		e.hasTok = false
	case ']':
		e.state = stateOSC
	case 'P':
		e.state = stateDCS
	default:
		// single-character escape sequences (e.g. ESC 7/8, charset
		// designations): consumed without side effects.
		e.state = stateGround
	}
}

func (e *Emulator) csi(b byte) {
	switch {
	case b >= '0' && b <= '9':
		e.curtok += string(b)
		e.hasTok = true
	case b == ';':
		e.params = append(e.params, e.tokOrDefault(-1))
		e.curtok = ""
		e.hasTok = false
	case b >= 0x40 && b <= 0x7e:
		e.params = append(e.params, e.tokOrDefault(-1))
		e.dispatchCSI(b, e.params)
		e.state = stateGround
	default:
		// intermediate bytes (0x20-0x2f) and anything else: ignored,
		// stay in CSI state until the final byte.
	}
}

func (e *Emulator) tokOrDefault(def int) int {
	if !e.hasTok || e.curtok == "" {
		return def
	}
	n := 0
	for _, c := range e.curtok {
		n = n*10 + int(c-'0')
	}
	return n
}

func param(params []int, i, def int) int {
	if i >= len(params) || params[i] < 0 {
		return def
	}
	return params[i]
}

func (e *Emulator) dispatchCSI(final byte, params []int) {
	s := e.Screen
	switch final {
	case 'A':
		n := param(params, 0, 1)
		if n < 1 {
			n = 1
		}
		s.CursorY -= n
		s.ClampCursor()
	case 'B':
		n := param(params, 0, 1)
		if n < 1 {
			n = 1
		}
		s.CursorY += n
		s.ClampCursor()
	case 'C':
		n := param(params, 0, 1)
		if n < 1 {
			n = 1
		}
		s.CursorX += n
		s.ClampCursor()
	case 'D':
		n := param(params, 0, 1)
		if n < 1 {
			n = 1
		}
		s.CursorX -= n
		s.ClampCursor()
	case 'H', 'f':
		row := param(params, 0, 1)
		col := param(params, 1, 1)
		if row < 1 {
			row = 1
		}
		if col < 1 {
			col = 1
		}
		s.CursorY = row - 1
		s.CursorX = col - 1
		s.ClampCursor()
	case 'J':
		s.EraseDisplay(param(params, 0, 0))
	case 'K':
		s.EraseLine(param(params, 0, 0))
	case 'm':
		e.sgr(params)
	default:
		// SGR handled above; all other final bytes (cursor save/
		// restore, scroll region, device status, etc.) are consumed
		// without side effects per the supported subset.
	}
}

// sgr applies the minimal Select Graphic Rendition subset the data
// model tracks (bold, underline, reset); color handling beyond
// default is out of scope for the emulated subset but the attribute
// fields exist on Cell for a host that wants to extend this later.
func (e *Emulator) sgr(params []int) {
	if len(params) == 0 {
		e.attrs = DefaultCell()
		return
	}
	for _, p := range params {
		switch p {
		case -1, 0:
			e.attrs = DefaultCell()
		case 1:
			e.attrs.Bold = true
		case 4:
			e.attrs.Underline = true
		case 22:
			e.attrs.Bold = false
		case 24:
			e.attrs.Underline = false
		}
	}
}
