// Package vt implements the ECMA-48/VT100 byte-stream subset described
// by the terminal emulator component: a cell-grid screen model fed one
// byte at a time, with cursor motion, scrolling and the small set of
// CSI sequences a developer shell actually emits.
package vt

// ColorKind selects which of the three representations a Color holds.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is one of Default, an indexed palette entry (0-255), or a
// direct RGB triple.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultColor is the zero value, matching ColorDefault.
var DefaultColor = Color{Kind: ColorDefault}

// Indexed builds an indexed-palette color.
func Indexed(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }

// RGB builds a direct-color.
func RGB(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// Cell is a single screen position: a code point plus SGR attributes.
// The blank cell is DefaultCell (a space with default colors and no
// attributes); the zero value differs from it in holding Ch 0.
type Cell struct {
	Ch        rune
	Fg        Color
	Bg        Color
	Bold      bool
	Underline bool
}

// DefaultCell returns the blank cell every row is initialized with and
// erase operations restore.
func DefaultCell() Cell {
	return Cell{Ch: ' ', Fg: DefaultColor, Bg: DefaultColor}
}
