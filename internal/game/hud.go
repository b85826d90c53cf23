package game

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	hudFontSize = 13
	hudLineH    = 16
	hudPadX     = 6
	hudPadY     = 4
)

// HUD draws the key legend and frame counters over the minimap.
type HUD struct {
	face *text.GoTextFace
}

// NewHUD loads the embedded Go Regular face.
func NewHUD() (*HUD, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load hud font: %w", err)
	}
	return &HUD{face: &text.GoTextFace{Source: src, Size: hudFontSize}}, nil
}

// hudLines builds the legend text for the current state.
func hudLines(cam raycast.Camera, st raycast.FrameStats, spin bool, mode raycast.DrawMode) []string {
	spinStr := "off"
	if spin {
		spinStr = "on"
	}
	rays := "lines"
	if mode == raycast.DrawModeNone {
		rays = "none"
	}
	return []string{
		fmt.Sprintf("pos %.2f,%.2f  heading %.1f", cam.X, cam.Y, cam.Heading()),
		fmt.Sprintf("hits %d/%d  near %.2f  far %.2f", st.Hits, st.Columns, st.MinDistance, st.MaxDistance),
		fmt.Sprintf("flushes %d (+%d full)  verts %d", st.Flushes, st.CapacityFlushes, st.Vertices),
		fmt.Sprintf("WASD/arrows move  Q/E strafe  R rays=%s", rays),
		fmt.Sprintf("Space spin=%s  C copy report  H hud", spinStr),
	}
}

// Draw renders lines in a panel anchored at the bottom-left of the
// surface.
func (h *HUD) Draw(screen *ebiten.Image, lines []string, surfaceH int) {
	maxW := 0.0
	for _, l := range lines {
		if w, _ := text.Measure(l, h.face, hudLineH); w > maxW {
			maxW = w
		}
	}
	boxW := float32(maxW) + hudPadX*2
	boxH := float32(len(lines)*hudLineH + hudPadY*2)
	bx := float32(4)
	by := float32(surfaceH) - boxH - 4

	vector.DrawFilledRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 6, B: 10, A: 200}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1.0, color.RGBA{R: 80, G: 80, B: 120, A: 180}, false)

	for i, line := range lines {
		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(bx)+hudPadX, float64(by)+hudPadY+float64(i*hudLineH))
		op.ColorScale.ScaleWithColor(color.RGBA{R: 220, G: 220, B: 220, A: 255})
		text.Draw(screen, line, h.face, op)
	}
}
