package raycast

import (
	"errors"
	"testing"
)

func TestDefaultMap_Dimensions(t *testing.T) {
	gm := DefaultMap()
	if gm.Cols != 16 || gm.Rows != 16 {
		t.Fatalf("expected 16x16, got %dx%d", gm.Cols, gm.Rows)
	}
}

func TestGridMap_TileAtMatchesLayout(t *testing.T) {
	gm := DefaultMap()
	cases := []struct {
		col, row int
		want     TileKind
	}{
		{0, 0, TileWallA},
		{1, 1, TileEmpty},
		{5, 2, TileWallB},
		{0, 11, TileWallC},
		{1, 15, TileWallD},
		{4, 15, TileWallA},
		{14, 14, TileEmpty},
	}
	for _, tc := range cases {
		got, err := gm.TileAt(tc.col, tc.row)
		if err != nil {
			t.Fatalf("TileAt(%d,%d): %v", tc.col, tc.row, err)
		}
		if got != tc.want {
			t.Errorf("TileAt(%d,%d)=%s, want %s", tc.col, tc.row, got, tc.want)
		}
	}
}

func TestGridMap_TileAtIdempotent(t *testing.T) {
	gm := DefaultMap()
	for row := 0; row < gm.Rows; row++ {
		for col := 0; col < gm.Cols; col++ {
			a, _ := gm.TileAt(col, row)
			b, _ := gm.TileAt(col, row)
			if a != b {
				t.Fatalf("tile (%d,%d) changed between lookups: %s then %s", col, row, a, b)
			}
		}
	}
}

func TestGridMap_OutOfRange(t *testing.T) {
	gm := DefaultMap()
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {16, 0}, {0, 16}, {99, 99}} {
		if _, err := gm.TileAt(c[0], c[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("TileAt(%d,%d) err=%v, want ErrOutOfRange", c[0], c[1], err)
		}
		if gm.IsPassable(c[0], c[1]) {
			t.Fatalf("out of bounds (%d,%d) should not be passable", c[0], c[1])
		}
	}
}

func TestGridMap_IsPassable(t *testing.T) {
	gm := DefaultMap()
	if !gm.IsPassable(2, 5) {
		t.Fatal("(2,5) is open floor")
	}
	if gm.IsPassable(5, 2) {
		t.Fatal("(5,2) is a wall")
	}
}

func TestNewGridMap_Rejects(t *testing.T) {
	if _, err := NewGridMap(0, 4, ""); err == nil {
		t.Fatal("zero width should fail")
	}
	if _, err := NewGridMap(2, 2, "000"); err == nil {
		t.Fatal("short layout should fail")
	}
	if _, err := NewGridMap(2, 1, "0x"); err == nil {
		t.Fatal("unknown glyph should fail")
	}
	if _, err := ParseLayout([]string{"000", "00"}); err == nil {
		t.Fatal("ragged rows should fail")
	}
	if _, err := ParseLayout(nil); err == nil {
		t.Fatal("empty layout should fail")
	}
}

func TestGridMap_LayoutRoundTrip(t *testing.T) {
	gm := DefaultMap()
	got := gm.Layout()
	want := DefaultLayout()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %q want %q", i, got[i], want[i])
		}
	}
}
