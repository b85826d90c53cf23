// Package termview renders ray caster frames into a terminal through tcell,
// locally or over SSH.
package termview

import (
	"math"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/gdamore/tcell/v2"
)

const (
	wallRune = '█'
	rayRune  = '·'
)

// TermSink rasterises batches into terminal cells. Triangles fill every cell
// whose centre they cover; line segments are stepped cell by cell. The
// bottom row is left for the status line.
type TermSink struct {
	Screen   tcell.Screen
	SurfaceW float32
	SurfaceH float32
}

// NewTermSink creates a sink drawing a w×h logical surface onto screen.
func NewTermSink(screen tcell.Screen, w, h int) *TermSink {
	return &TermSink{Screen: screen, SurfaceW: float32(w), SurfaceH: float32(h)}
}

// frameSize is the cell area available to geometry.
func (s *TermSink) frameSize() (int, int) {
	w, h := s.Screen.Size()
	return w, max(h-1, 0)
}

// toCell maps a surface point inside region to fractional cell coordinates.
func (s *TermSink) toCell(v raycast.Vec2, region raycast.Rect, cols, rows int) (float64, float64) {
	p := region.Project(v, s.SurfaceW, s.SurfaceH)
	return float64(p.X) * float64(cols) / float64(s.SurfaceW),
		float64(p.Y) * float64(rows) / float64(s.SurfaceH)
}

// UploadAndDraw implements raycast.Sink.
func (s *TermSink) UploadAndDraw(vertices []raycast.Vec2, colors []raycast.Color3, prim raycast.Primitive, region raycast.Rect) error {
	if len(vertices) == 0 {
		return nil
	}
	cols, rows := s.frameSize()
	if cols == 0 || rows == 0 {
		return nil
	}
	switch prim {
	case raycast.TriangleList:
		for i := 0; i+2 < len(vertices); i += 3 {
			var tri [3][2]float64
			for k := 0; k < 3; k++ {
				tri[k][0], tri[k][1] = s.toCell(vertices[i+k], region, cols, rows)
			}
			s.fillTriangle(tri, styleFor(colors[i]), cols, rows)
		}
	case raycast.LineList:
		for i := 0; i+1 < len(vertices); i += 2 {
			x0, y0 := s.toCell(vertices[i], region, cols, rows)
			x1, y1 := s.toCell(vertices[i+1], region, cols, rows)
			s.strokeLine(x0, y0, x1, y1, styleFor(colors[i]), cols, rows)
		}
	}
	return nil
}

func styleFor(c raycast.Color3) tcell.Style {
	r, g, b := c.Bytes()
	return tcell.StyleDefault.
		Background(tcell.ColorBlack).
		Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

func edge(a, b [2]float64, px, py float64) float64 {
	return (b[0]-a[0])*(py-a[1]) - (b[1]-a[1])*(px-a[0])
}

// fillTriangle paints cells whose centre lies inside or on the triangle.
func (s *TermSink) fillTriangle(t [3][2]float64, style tcell.Style, cols, rows int) {
	minX := math.Min(t[0][0], math.Min(t[1][0], t[2][0]))
	maxX := math.Max(t[0][0], math.Max(t[1][0], t[2][0]))
	minY := math.Min(t[0][1], math.Min(t[1][1], t[2][1]))
	maxY := math.Max(t[0][1], math.Max(t[1][1], t[2][1]))

	x0 := max(int(math.Floor(minX)), 0)
	x1 := min(int(math.Ceil(maxX)), cols-1)
	y0 := max(int(math.Floor(minY)), 0)
	y1 := min(int(math.Ceil(maxY)), rows-1)

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			e0 := edge(t[0], t[1], px, py)
			e1 := edge(t[1], t[2], px, py)
			e2 := edge(t[2], t[0], px, py)
			inside := (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0)
			if inside {
				s.Screen.SetContent(x, y, wallRune, nil, style)
			}
		}
	}
}

// strokeLine walks the segment at one sample per cell along its longer axis.
func (s *TermSink) strokeLine(x0, y0, x1, y1 float64, style tcell.Style, cols, rows int) {
	dx, dy := x1-x0, y1-y0
	n := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	for i := 0; i <= n; i++ {
		t := 0.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		cx := int(math.Floor(x0 + dx*t))
		cy := int(math.Floor(y0 + dy*t))
		if cx < 0 || cy < 0 || cx >= cols || cy >= rows {
			continue
		}
		// Rays never overwrite tiles already drawn.
		if r, _, _, _ := s.Screen.GetContent(cx, cy); r == wallRune {
			continue
		}
		s.Screen.SetContent(cx, cy, rayRune, nil, style)
	}
}
