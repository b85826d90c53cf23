package game

import (
	"errors"
	"image/color"
	"log"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/hajimehoshi/ebiten/v2"
)

const (
	moveSpeed = 0.05 // cells per tick
	turnSpeed = 2.0  // degrees per tick
	spinSpeed = 0.5  // degrees per tick while spinning
)

// Game drives the ray caster inside an ebiten window. The logical surface is
// the compositor's; the event panel sits to its right.
type Game struct {
	grid   *raycast.GridMap
	cam    raycast.Camera
	comp   *raycast.Compositor
	sink   *EbitenSink
	events *EventLog
	hud    *HUD

	surfaceW int
	surfaceH int
	compOps  []raycast.CompositorOption

	mode     raycast.DrawMode
	spin     bool
	showHUD  bool
	prevKeys map[ebiten.Key]bool
	tick     int

	lastStats raycast.FrameStats
	lastErr   error
}

// Option configures a Game.
type Option func(*Game)

// WithGrid replaces the default map.
func WithGrid(gm *raycast.GridMap) Option {
	return func(g *Game) { g.grid = gm }
}

// WithCamera sets the starting camera.
func WithCamera(cam raycast.Camera) Option {
	return func(g *Game) { g.cam = cam }
}

// WithSurface sets the logical surface size.
func WithSurface(w, h int) Option {
	return func(g *Game) {
		if w > 0 && h > 0 {
			g.surfaceW, g.surfaceH = w, h
		}
	}
}

// WithSpin starts the camera rotating on its own.
func WithSpin(on bool) Option {
	return func(g *Game) { g.spin = on }
}

// WithDrawMode sets the initial ray overlay.
func WithDrawMode(m raycast.DrawMode) Option {
	return func(g *Game) { g.mode = m }
}

// WithCompositorOptions forwards options to the compositor.
func WithCompositorOptions(opts ...raycast.CompositorOption) Option {
	return func(g *Game) { g.compOps = append(g.compOps, opts...) }
}

// New builds the viewer. A missing HUD font is not fatal; the legend is
// skipped.
func New(opts ...Option) *Game {
	g := &Game{
		cam:      raycast.NewCamera(2.0, 5.0, raycast.DefaultAngle),
		surfaceW: raycast.DefaultSurfaceW,
		surfaceH: raycast.DefaultSurfaceH,
		events:   NewEventLog(),
		showHUD:  true,
		prevKeys: make(map[ebiten.Key]bool),
	}
	for _, o := range opts {
		o(g)
	}
	if g.grid == nil {
		g.grid = raycast.DefaultMap()
	}
	g.sink = NewEbitenSink(g.surfaceW, g.surfaceH)
	g.rebuildCompositor()

	hud, err := NewHUD()
	if err != nil {
		log.Printf("hud disabled: %v", err)
	} else {
		g.hud = hud
	}
	g.events.Addf(0, EventInfo, "map %dx%d", g.grid.Cols, g.grid.Rows)
	return g
}

func (g *Game) rebuildCompositor() {
	opts := append([]raycast.CompositorOption{
		raycast.WithSurface(g.surfaceW, g.surfaceH),
	}, g.compOps...)
	opts = append(opts, raycast.WithDrawMode(g.mode))
	g.comp = raycast.NewCompositor(g.sink, opts...)
}

// Camera returns the current camera pose.
func (g *Game) Camera() raycast.Camera { return g.cam }

func (g *Game) Update() error {
	g.tick++
	g.applyInput(g.readInput())
	if g.spin {
		g.cam.Turn(spinSpeed)
	}
	return nil
}

// input is one tick of held and freshly pressed keys.
type input struct {
	forward, back     bool
	turnLeft, turnRgt bool
	strafeL, strafeR  bool

	toggleSpin bool
	toggleRays bool
	toggleHUD  bool
	copyReport bool
}

// readInput polls ebiten. Toggles are edge-triggered.
func (g *Game) readInput() input {
	currentKeys := map[ebiten.Key]bool{}
	edge := func(k ebiten.Key) bool {
		currentKeys[k] = ebiten.IsKeyPressed(k)
		return currentKeys[k] && !g.prevKeys[k]
	}
	held := func(keys ...ebiten.Key) bool {
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				return true
			}
		}
		return false
	}
	in := input{
		forward:    held(ebiten.KeyW, ebiten.KeyArrowUp),
		back:       held(ebiten.KeyS, ebiten.KeyArrowDown),
		turnLeft:   held(ebiten.KeyA, ebiten.KeyArrowLeft),
		turnRgt:    held(ebiten.KeyD, ebiten.KeyArrowRight),
		strafeL:    held(ebiten.KeyQ),
		strafeR:    held(ebiten.KeyE),
		toggleSpin: edge(ebiten.KeySpace),
		toggleRays: edge(ebiten.KeyR),
		toggleHUD:  edge(ebiten.KeyH),
		copyReport: edge(ebiten.KeyC),
	}
	g.prevKeys = currentKeys
	return in
}

// applyInput moves the camera and flips toggles. Moves into walls are
// refused per axis so the camera slides along them.
func (g *Game) applyInput(in input) {
	if in.turnLeft {
		g.cam.Turn(-turnSpeed)
	}
	if in.turnRgt {
		g.cam.Turn(turnSpeed)
	}

	var dx, dy float64
	if in.forward {
		fx, fy := g.cam.Forward(moveSpeed)
		dx, dy = dx+fx, dy+fy
	}
	if in.back {
		fx, fy := g.cam.Forward(-moveSpeed)
		dx, dy = dx+fx, dy+fy
	}
	if in.strafeL {
		sx, sy := g.cam.Strafe(-moveSpeed)
		dx, dy = dx+sx, dy+sy
	}
	if in.strafeR {
		sx, sy := g.cam.Strafe(moveSpeed)
		dx, dy = dx+sx, dy+sy
	}
	if dx != 0 || dy != 0 {
		movedX := dx != 0 && g.cam.TryMove(g.grid, dx, 0)
		movedY := dy != 0 && g.cam.TryMove(g.grid, 0, dy)
		if !movedX && !movedY {
			g.events.Addf(g.tick, EventMove, "blocked at %.1f,%.1f", g.cam.X, g.cam.Y)
		}
	}

	if in.toggleSpin {
		g.spin = !g.spin
		g.events.Addf(g.tick, EventInfo, "spin %v", g.spin)
	}
	if in.toggleRays {
		if g.mode == raycast.DrawModeLines {
			g.mode = raycast.DrawModeNone
		} else {
			g.mode = raycast.DrawModeLines
		}
		g.rebuildCompositor()
	}
	if in.toggleHUD {
		g.showHUD = !g.showHUD
	}
	if in.copyReport {
		g.copyReport()
	}
}

func (g *Game) copyReport() {
	report := raycast.FormatFrameReport(g.cam, g.lastStats, g.comp.LastHits(), 8)
	if err := setClipboardText(report); err != nil {
		g.events.Addf(g.tick, EventError, "clipboard: %v", err)
		return
	}
	g.events.Add(g.tick, EventInfo, "report copied")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	g.sink.Target = screen
	st, err := g.comp.RenderFrame(g.cam, g.grid)
	if err != nil {
		// The frame is dropped; only log when the failure changes.
		if g.lastErr == nil || g.lastErr.Error() != err.Error() {
			g.events.Addf(g.tick, EventError, "%v", err)
		}
		g.lastErr = err
	} else {
		if g.lastErr != nil && errors.Is(g.lastErr, raycast.ErrSinkRejected) {
			g.events.Add(g.tick, EventInfo, "sink recovered")
		}
		g.lastErr = nil
		if st.CapacityFlushes > 0 && st.CapacityFlushes != g.lastStats.CapacityFlushes {
			g.events.Addf(g.tick, EventFlush, "%d capacity flushes", st.CapacityFlushes)
		}
		g.lastStats = st
	}

	g.events.Draw(screen, g.surfaceW, g.surfaceH)
	if g.showHUD && g.hud != nil {
		g.hud.Draw(screen, hudLines(g.cam, g.lastStats, g.spin, g.mode), g.surfaceH)
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.surfaceW + logPanelWidth, g.surfaceH
}

// WindowSize is the preferred outer window size.
func (g *Game) WindowSize() (int, int) {
	return g.Layout(0, 0)
}
