package raycast

import (
	"errors"
	"fmt"
)

const (
	// DefaultSurfaceW and DefaultSurfaceH are the logical output size.
	DefaultSurfaceW = 1024
	DefaultSurfaceH = 512

	markerW = 10
	markerH = 5
)

// Batch names, also used as FrameLog values.
const (
	BatchMinimap = "minimap"
	BatchRays    = "rays"
	BatchWalls   = "walls"
)

// DrawMode selects the ray overlay style.
type DrawMode uint8

const (
	DrawModeLines DrawMode = iota // one line per hit ray on the minimap
	DrawModeNone                  // walls and minimap only
)

// ParseDrawMode accepts "lines" or "none".
func ParseDrawMode(s string) (DrawMode, error) {
	switch s {
	case "lines", "":
		return DrawModeLines, nil
	case "none":
		return DrawModeNone, nil
	default:
		return DrawModeLines, fmt.Errorf("unknown draw mode %q (supported: lines, none)", s)
	}
}

var (
	tilePalette = [tileKindCount]Color3{
		TileEmpty: {R: 0, G: 0, B: 0},
		TileWallA: {R: 1.0, G: 0.5, B: 0.5},
		TileWallB: {R: 0.7, G: 0.3, B: 0.5},
		TileWallC: {R: 0.4, G: 0.3, B: 0.7},
		TileWallD: {R: 0.8, G: 1.0, B: 0.7},
	}
	rayColor    = Color3{R: 1, G: 0, B: 0}
	markerColor = Color3{R: 1, G: 1, B: 1}
)

// TileColor returns the fixed colour for a tile kind.
func TileColor(k TileKind) Color3 {
	if k >= tileKindCount {
		return tilePalette[TileEmpty]
	}
	return tilePalette[k]
}

// FrameStats summarises one rendered frame.
type FrameStats struct {
	Frame        int
	Columns      int
	Hits         int
	Misses       int
	MinDistance  float64 // over hits only; 0 when nothing hit
	MaxDistance  float64
	MeanDistance float64
	MinimapTiles int

	Flushes         int
	CapacityFlushes int
	Vertices        int // uploaded this frame across all batches
}

// Compositor turns a camera and map into one frame of batched geometry.
// Minimap and ray overlay target the left half of the surface, wall columns
// the right half.
type Compositor struct {
	SurfaceW float32
	SurfaceH float32
	Columns  int
	Caster   *RayCaster

	Minimap *Batch
	Rays    *Batch
	Walls   *Batch

	sink         Sink
	capacity     int
	mode         DrawMode
	playerMarker bool
	log          *FrameLog
	frame        int
	hits         []ColumnHit
}

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithSurface sets the logical output size in pixels.
func WithSurface(w, h int) CompositorOption {
	return func(c *Compositor) {
		if w > 0 && h > 0 {
			c.SurfaceW, c.SurfaceH = float32(w), float32(h)
		}
	}
}

// WithColumns sets how many rays are cast per frame. Defaults to the surface
// width, one ray per pixel column.
func WithColumns(n int) CompositorOption {
	return func(c *Compositor) {
		if n > 0 {
			c.Columns = n
		}
	}
}

// WithCaster replaces the default ray caster.
func WithCaster(rc *RayCaster) CompositorOption {
	return func(c *Compositor) {
		if rc != nil {
			c.Caster = rc
		}
	}
}

// WithCapacity sets the per-batch vertex capacity.
func WithCapacity(n int) CompositorOption {
	return func(c *Compositor) { c.capacity = n }
}

// WithDrawMode sets the ray overlay style.
func WithDrawMode(m DrawMode) CompositorOption {
	return func(c *Compositor) { c.mode = m }
}

// WithFrameLog attaches a structured event log.
func WithFrameLog(fl *FrameLog) CompositorOption {
	return func(c *Compositor) { c.log = fl }
}

// WithPlayerMarker toggles the camera marker on the minimap.
func WithPlayerMarker(on bool) CompositorOption {
	return func(c *Compositor) { c.playerMarker = on }
}

// NewCompositor builds a compositor drawing into sink.
func NewCompositor(sink Sink, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		SurfaceW:     DefaultSurfaceW,
		SurfaceH:     DefaultSurfaceH,
		sink:         sink,
		capacity:     DefaultCapacity,
		playerMarker: true,
	}
	for _, o := range opts {
		o(c)
	}
	if c.Columns == 0 {
		c.Columns = int(c.SurfaceW)
	}
	if c.Caster == nil {
		c.Caster = NewRayCaster()
	}
	left := Rect{X: 0, Y: 0, W: c.SurfaceW / 2, H: c.SurfaceH}
	right := Rect{X: c.SurfaceW / 2, Y: 0, W: c.SurfaceW / 2, H: c.SurfaceH}
	c.Minimap = NewBatch(BatchMinimap, sink, TriangleList, left, c.capacity)
	c.Rays = NewBatch(BatchRays, sink, LineList, left, c.capacity)
	c.Walls = NewBatch(BatchWalls, sink, TriangleList, right, c.capacity)
	return c
}

// Frame returns the number of frames started.
func (c *Compositor) Frame() int { return c.frame }

// LastHits returns the column hits of the most recent frame. The slice is
// reused by the next RenderFrame.
func (c *Compositor) LastHits() []ColumnHit { return c.hits }

func (c *Compositor) batches() [3]*Batch {
	return [3]*Batch{c.Minimap, c.Rays, c.Walls}
}

// RenderFrame casts every column, fills the batches and flushes them. On a
// sink failure the frame is abandoned: pending geometry is dropped and the
// error, wrapping ErrSinkRejected, is returned.
func (c *Compositor) RenderFrame(cam Camera, gm *GridMap) (FrameStats, error) {
	c.frame++
	st := FrameStats{Frame: c.frame, Columns: c.Columns}

	var before [3]batchCounters
	for i, b := range c.batches() {
		before[i] = b.counters()
	}

	err := c.fill(cam, gm, &st)
	if err == nil {
		err = c.flushAll()
	}

	for i, b := range c.batches() {
		st.Flushes += b.Flushes - before[i].flushes
		st.CapacityFlushes += b.CapacityFlushes - before[i].capacity
		st.Vertices += b.Uploaded - before[i].uploaded
		if c.log != nil {
			if n := b.CapacityFlushes - before[i].capacity; n > 0 {
				c.log.Add(c.frame, "batch", "capacity_flush", b.Name, float64(n))
			}
			if n := b.Uploaded - before[i].uploaded; n > 0 {
				c.log.AddVerbose(c.frame, "batch", "flush", fmt.Sprintf("%s %d", b.Name, n), float64(n))
			}
		}
	}

	if err != nil {
		c.discard()
		if c.log != nil {
			var se *SinkError
			name := "?"
			if errors.As(err, &se) {
				name = se.Batch
			}
			c.log.Add(c.frame, "batch", "sink_rejected", name, 0)
		}
		return st, err
	}

	if c.log != nil {
		c.log.AddVerbose(c.frame, "frame", "stats",
			fmt.Sprintf("hits=%d misses=%d min=%.2f max=%.2f", st.Hits, st.Misses, st.MinDistance, st.MaxDistance),
			st.MeanDistance)
	}
	return st, nil
}

// fill appends the minimap, ray and wall geometry for one frame.
func (c *Compositor) fill(cam Camera, gm *GridMap, st *FrameStats) error {
	cellW := c.SurfaceW / float32(gm.Cols)
	cellH := c.SurfaceH / float32(gm.Rows)

	// Minimap is map-sized work, done once per frame.
	for row := 0; row < gm.Rows; row++ {
		for col := 0; col < gm.Cols; col++ {
			kind, err := gm.TileAt(col, row)
			if err != nil {
				return err
			}
			if kind == TileEmpty {
				continue
			}
			pos := Vec2{X: float32(col) * cellW, Y: float32(row) * cellH}
			if err := c.Minimap.AppendQuad(pos, Vec2{X: cellW, Y: cellH}, TileColor(kind)); err != nil {
				return err
			}
			st.MinimapTiles++
		}
	}

	camPx := Vec2{X: float32(cam.X) * cellW, Y: float32(cam.Y) * cellH}
	if c.playerMarker {
		if err := c.Minimap.AppendQuad(camPx, Vec2{X: markerW, Y: markerH}, markerColor); err != nil {
			return err
		}
	}

	if cap(c.hits) < c.Columns {
		c.hits = make([]ColumnHit, 0, c.Columns)
	}
	c.hits = c.hits[:0]

	colW := c.SurfaceW / float32(c.Columns)
	sum := 0.0
	for i := 0; i < c.Columns; i++ {
		hit := c.Caster.CastColumn(cam, gm, i, c.Columns)
		c.hits = append(c.hits, hit)
		if !hit.Hit {
			st.Misses++
			continue
		}
		st.Hits++
		sum += hit.Distance
		if st.Hits == 1 || hit.Distance < st.MinDistance {
			st.MinDistance = hit.Distance
		}
		if hit.Distance > st.MaxDistance {
			st.MaxDistance = hit.Distance
		}

		if c.mode == DrawModeLines {
			end := Vec2{X: float32(hit.HitX) * cellW, Y: float32(hit.HitY) * cellH}
			if err := c.Rays.AppendLine(camPx, end, rayColor); err != nil {
				return err
			}
		}

		// No fisheye correction: height uses the raw ray distance. Walls
		// nearer than one cell overflow the surface and are clipped by the
		// sink. A ray that starts inside a wall fills the column.
		h := c.SurfaceH
		if hit.Distance > 0 {
			h = float32(float64(c.SurfaceH) / hit.Distance)
		}
		pos := Vec2{X: float32(i) * colW, Y: c.SurfaceH/2 - h/2}
		if err := c.Walls.AppendQuad(pos, Vec2{X: colW, Y: h}, TileColor(hit.Kind)); err != nil {
			return err
		}
	}
	if st.Hits > 0 {
		st.MeanDistance = sum / float64(st.Hits)
	}
	return nil
}

func (c *Compositor) flushAll() error {
	for _, b := range c.batches() {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// discard drops pending geometry of an abandoned frame without drawing it.
func (c *Compositor) discard() {
	for _, b := range c.batches() {
		b.vertices = b.vertices[:0]
		b.colors = b.colors[:0]
	}
}
