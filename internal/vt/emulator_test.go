package vt

import "testing"

func TestPrintBasic(t *testing.T) {
	e := NewEmulator(80, 24)
	e.Feed([]byte("Hello, World!"))
	got := e.Screen.Render(0)
	want := "Hello, World!" + spaces(80-13)
	if got != want {
		t.Fatalf("row 0 = %q, want %q", got, want)
	}
	if e.Screen.CursorX != 13 || e.Screen.CursorY != 0 {
		t.Fatalf("cursor = (%d,%d), want (13,0)", e.Screen.CursorX, e.Screen.CursorY)
	}
}

func TestNewline(t *testing.T) {
	e := NewEmulator(80, 24)
	e.Feed([]byte("a\nb"))
	if e.Screen.CursorY != 1 {
		t.Fatalf("cursor y = %d, want 1", e.Screen.CursorY)
	}
	// LF advances the row only; without a CR the column stays at 1.
	if e.Screen.Get(1, 1).Ch != 'b' {
		t.Fatalf("row1 col1 = %q, want 'b'", e.Screen.Get(1, 1).Ch)
	}
}

func TestCursorMovement(t *testing.T) {
	e := NewEmulator(80, 24)
	e.Feed([]byte("\x1b[5;10HX"))
	if e.Screen.Get(9, 4).Ch != 'X' {
		t.Fatalf("cell(9,4) = %q, want 'X'", e.Screen.Get(9, 4).Ch)
	}
}

func TestClearScreen(t *testing.T) {
	e := NewEmulator(80, 24)
	e.Feed([]byte("text\x1b[2J"))
	for y := 0; y < 24; y++ {
		for x := 0; x < 80; x++ {
			if e.Screen.Get(x, y) != DefaultCell() {
				t.Fatalf("cell(%d,%d) not default after CSI 2J", x, y)
			}
		}
	}
}

func TestScroll25Lines(t *testing.T) {
	e := NewEmulator(80, 24)
	for i := 0; i < 25; i++ {
		e.Feed([]byte(lineLabel(i) + "\n"))
	}
	for y := 0; y < 24; y++ {
		row := e.Screen.Render(y)
		if y == 23 {
			if row[:3] != "L24" {
				t.Fatalf("row 23 = %q, want prefix L24", row)
			}
		}
	}
}

func TestCursorInBounds(t *testing.T) {
	e := NewEmulator(10, 5)
	e.Feed([]byte("\x1b[100;100H"))
	if e.Screen.CursorX < 0 || e.Screen.CursorX >= 10 || e.Screen.CursorY < 0 || e.Screen.CursorY >= 5 {
		t.Fatalf("cursor out of bounds: (%d,%d)", e.Screen.CursorX, e.Screen.CursorY)
	}
}

func TestEveryRowHasColsCells(t *testing.T) {
	e := NewEmulator(10, 5)
	e.Feed([]byte("hello\x1b[2J\x1b[3;3Hx"))
	for y := 0; y < e.Screen.Rows; y++ {
		if len(e.Screen.Row(y)) != e.Screen.Cols {
			t.Fatalf("row %d has %d cells, want %d", y, len(e.Screen.Row(y)), e.Screen.Cols)
		}
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func lineLabel(i int) string {
	return "L" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
