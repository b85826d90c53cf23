package termview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	moveStep = 0.15 // cells per key press
	turnStep = 5.0  // degrees per key press
)

var statusStyle = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray).Foreground(tcell.ColorWhite)

// Viewer drives one terminal: it owns the camera, renders on every tick and
// reacts to key events.
type Viewer struct {
	screen tcell.Screen
	grid   *raycast.GridMap
	cam    raycast.Camera
	comp   *raycast.Compositor
	logger *slog.Logger

	spin      float64 // degrees per tick
	lastStats raycast.FrameStats
	frames    int
}

// NewViewer wires a compositor to a TermSink on screen. The logical surface
// defaults to the compositor's; opts may override it.
func NewViewer(screen tcell.Screen, grid *raycast.GridMap, cam raycast.Camera, logger *slog.Logger, opts ...raycast.CompositorOption) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	sink := NewTermSink(screen, raycast.DefaultSurfaceW, raycast.DefaultSurfaceH)
	comp := raycast.NewCompositor(sink, opts...)
	sink.SurfaceW, sink.SurfaceH = comp.SurfaceW, comp.SurfaceH
	return &Viewer{
		screen: screen,
		grid:   grid,
		cam:    cam,
		comp:   comp,
		logger: logger,
	}
}

// SetSpin makes the camera turn by deg on every tick.
func (v *Viewer) SetSpin(deg float64) { v.spin = deg }

// Camera returns the current pose.
func (v *Viewer) Camera() raycast.Camera { return v.cam }

// Frame clears the screen, renders one frame and draws the status line.
func (v *Viewer) Frame() error {
	v.screen.Clear()
	st, err := v.comp.RenderFrame(v.cam, v.grid)
	v.frames++
	if err != nil {
		v.drawStatus(fmt.Sprintf("frame %d dropped: %v", st.Frame, err))
		v.screen.Show()
		return err
	}
	v.lastStats = st
	v.drawStatus(v.statusText())
	v.screen.Show()
	return nil
}

func (v *Viewer) statusText() string {
	st := v.lastStats
	return fmt.Sprintf("⌖ %.1f,%.1f ∠%.0f°  hits %d/%d  near %.2f  flushes %d  ←→↑↓ move  q quit",
		v.cam.X, v.cam.Y, v.cam.Heading(), st.Hits, st.Columns, st.MinDistance, st.Flushes)
}

// drawStatus writes text on the bottom row, padded and truncated by
// display width.
func (v *Viewer) drawStatus(text string) {
	w, h := v.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	y := h - 1
	text = runewidth.Truncate(text, w, "…")
	x := 0
	for _, r := range text {
		v.screen.SetContent(x, y, r, nil, statusStyle)
		x += runewidth.RuneWidth(r)
	}
	for ; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, statusStyle)
	}
}

// HandleKey applies one key event and reports whether the viewer should quit.
func (v *Viewer) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		v.cam.Turn(-turnStep)
	case tcell.KeyRight:
		v.cam.Turn(turnStep)
	case tcell.KeyUp:
		v.move(moveStep)
	case tcell.KeyDown:
		v.move(-moveStep)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'w':
			v.move(moveStep)
		case 's':
			v.move(-moveStep)
		case 'a':
			v.cam.Turn(-turnStep)
		case 'd':
			v.cam.Turn(turnStep)
		case ' ':
			if v.spin == 0 {
				v.spin = 1
			} else {
				v.spin = 0
			}
		}
	}
	return false
}

func (v *Viewer) move(dist float64) {
	dx, dy := v.cam.Forward(dist)
	if !v.cam.TryMove(v.grid, dx, dy) {
		v.logger.Debug("move blocked", "x", v.cam.X, "y", v.cam.Y, "angle", v.cam.Heading())
	}
}

// Run renders at the given tick until ctx ends or the user quits. Sink
// errors drop the frame and are logged; rendering continues.
func (v *Viewer) Run(ctx context.Context, tick time.Duration) error {
	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	if err := v.Frame(); err != nil {
		v.logger.Warn("frame dropped", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if v.HandleKey(ev) {
					v.logger.Info("viewer quit", "frames", v.frames)
					return nil
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		case <-ticker.C:
			v.cam.Turn(v.spin)
			if err := v.Frame(); err != nil {
				v.logger.Warn("frame dropped", "error", err)
			}
		}
	}
}
