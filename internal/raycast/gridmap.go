package raycast

import (
	"fmt"
	"strings"
)

// TileKind identifies what occupies a grid cell.
type TileKind uint8

const (
	TileEmpty TileKind = iota // open floor, never produces a hit
	TileWallA                 // layout '0'
	TileWallB                 // layout '1'
	TileWallC                 // layout '2'
	TileWallD                 // layout '3'
	tileKindCount             // sentinel
)

// tileKindFromGlyph maps a layout character to its kind.
func tileKindFromGlyph(c byte) (TileKind, bool) {
	switch c {
	case ' ':
		return TileEmpty, true
	case '0':
		return TileWallA, true
	case '1':
		return TileWallB, true
	case '2':
		return TileWallC, true
	case '3':
		return TileWallD, true
	default:
		return TileEmpty, false
	}
}

// Glyph returns the layout character for the kind.
func (k TileKind) Glyph() byte {
	switch k {
	case TileWallA:
		return '0'
	case TileWallB:
		return '1'
	case TileWallC:
		return '2'
	case TileWallD:
		return '3'
	default:
		return ' '
	}
}

func (k TileKind) String() string {
	switch k {
	case TileEmpty:
		return "empty"
	case TileWallA:
		return "wall-a"
	case TileWallB:
		return "wall-b"
	case TileWallC:
		return "wall-c"
	case TileWallD:
		return "wall-d"
	default:
		return "unknown"
	}
}

// GridMap is an immutable tile grid.
type GridMap struct {
	Cols  int
	Rows  int
	tiles []TileKind // row-major: index = row*Cols + col
}

// NewGridMap builds a map from a flat row-major layout string.
// Only dimension consistency and glyph validity are checked.
func NewGridMap(cols, rows int, layout string) (*GridMap, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("grid map: invalid size %dx%d", cols, rows)
	}
	if len(layout) != cols*rows {
		return nil, fmt.Errorf("grid map: layout has %d cells, want %d (%dx%d)", len(layout), cols*rows, cols, rows)
	}
	tiles := make([]TileKind, cols*rows)
	for i := 0; i < len(layout); i++ {
		k, ok := tileKindFromGlyph(layout[i])
		if !ok {
			return nil, fmt.Errorf("grid map: unknown glyph %q at col %d row %d", layout[i], i%cols, i/cols)
		}
		tiles[i] = k
	}
	return &GridMap{Cols: cols, Rows: rows, tiles: tiles}, nil
}

// ParseLayout builds a map from one string per row. All rows must have the
// same width.
func ParseLayout(rows []string) (*GridMap, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("grid map: empty layout")
	}
	cols := len(rows[0])
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("grid map: row %d has width %d, want %d", i, len(r), cols)
		}
	}
	return NewGridMap(cols, len(rows), strings.Join(rows, ""))
}

// InBounds returns true if (col, row) is within the map.
func (gm *GridMap) InBounds(col, row int) bool {
	return col >= 0 && col < gm.Cols && row >= 0 && row < gm.Rows
}

// TileAt returns the kind at (col, row). Out-of-bounds lookups fail with
// ErrOutOfRange.
func (gm *GridMap) TileAt(col, row int) (TileKind, error) {
	if !gm.InBounds(col, row) {
		return TileEmpty, fmt.Errorf("tile (%d,%d) on %dx%d map: %w", col, row, gm.Cols, gm.Rows, ErrOutOfRange)
	}
	return gm.tiles[row*gm.Cols+col], nil
}

// IsPassable returns true if (col, row) is in bounds and empty.
func (gm *GridMap) IsPassable(col, row int) bool {
	if !gm.InBounds(col, row) {
		return false
	}
	return gm.tiles[row*gm.Cols+col] == TileEmpty
}

// Layout returns the map as one string per row.
func (gm *GridMap) Layout() []string {
	out := make([]string, gm.Rows)
	buf := make([]byte, gm.Cols)
	for row := 0; row < gm.Rows; row++ {
		for col := 0; col < gm.Cols; col++ {
			buf[col] = gm.tiles[row*gm.Cols+col].Glyph()
		}
		out[row] = string(buf)
	}
	return out
}

// defaultLayout is the 16x16 map the viewer starts on.
var defaultLayout = []string{
	"0000000000000000",
	"0              0",
	"0    111111111 0",
	"0            1 0",
	"0            1 0",
	"0    1111111 1 0",
	"0            1 0",
	"0            1 0",
	"0    111111111 0",
	"0            1 0",
	"0            1 0",
	"2  11111111111 0",
	"2   11111111   0",
	"2    1    1    0",
	"2              0",
	"0333000000000000",
}

// DefaultLayout returns a copy of the built-in 16x16 layout.
func DefaultLayout() []string {
	out := make([]string, len(defaultLayout))
	copy(out, defaultLayout)
	return out
}

// DefaultMap parses the built-in layout.
func DefaultMap() *GridMap {
	gm, err := ParseLayout(defaultLayout)
	if err != nil {
		panic(fmt.Sprintf("default layout: %v", err))
	}
	return gm
}
