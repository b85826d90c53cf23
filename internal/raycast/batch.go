package raycast

import "fmt"

const (
	// DefaultCapacity matches a fixed upload buffer of 10,000 quads.
	DefaultCapacity = 6 * 10000

	quadVertices = 6
	lineVertices = 2
)

// unitQuad is two triangles covering [0,1]x[0,1].
var unitQuad = [quadVertices]Vec2{
	{0, 1}, {1, 0}, {0, 0},
	{0, 1}, {1, 1}, {1, 0},
}

// Batch accumulates vertices and colours for one draw target and flushes
// them to its sink. vertices and colors always have equal length.
type Batch struct {
	Name      string
	Primitive Primitive
	Region    Rect
	Capacity  int

	sink     Sink
	vertices []Vec2
	colors   []Color3

	// Lifetime counters.
	Flushes         int
	CapacityFlushes int
	Uploaded        int
}

// NewBatch creates an empty batch. A non-positive capacity uses
// DefaultCapacity.
func NewBatch(name string, sink Sink, prim Primitive, region Rect, capacity int) *Batch {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Batch{
		Name:      name,
		Primitive: prim,
		Region:    region,
		Capacity:  capacity,
		sink:      sink,
		vertices:  make([]Vec2, 0, capacity),
		colors:    make([]Color3, 0, capacity),
	}
}

type batchCounters struct {
	flushes, capacity, uploaded int
}

func (b *Batch) counters() batchCounters {
	return batchCounters{flushes: b.Flushes, capacity: b.CapacityFlushes, uploaded: b.Uploaded}
}

// Len returns the number of pending vertices.
func (b *Batch) Len() int { return len(b.vertices) }

// IsFull reports whether the pending vertex count has reached capacity.
func (b *Batch) IsFull() bool { return len(b.vertices) >= b.Capacity }

// Vertices returns the pending vertices. Valid until the next flush.
func (b *Batch) Vertices() []Vec2 { return b.vertices }

// Colors returns the pending colours. Valid until the next flush.
func (b *Batch) Colors() []Color3 { return b.colors }

// AppendQuad appends the rectangle [topLeft, topLeft+size] as two triangles.
// The unit quad is scaled by size, then translated to topLeft. If the batch
// is full afterwards it is flushed, this quad included.
func (b *Batch) AppendQuad(topLeft, size Vec2, c Color3) error {
	if b.Primitive != TriangleList {
		return fmt.Errorf("batch %s: quad appended to %s batch", b.Name, b.Primitive)
	}
	for _, v := range unitQuad {
		b.vertices = append(b.vertices, Vec2{
			X: topLeft.X + v.X*size.X,
			Y: topLeft.Y + v.Y*size.Y,
		})
		b.colors = append(b.colors, c)
	}
	return b.flushIfFull()
}

// AppendLine appends one segment, start then end.
func (b *Batch) AppendLine(start, end Vec2, c Color3) error {
	if b.Primitive != LineList {
		return fmt.Errorf("batch %s: line appended to %s batch", b.Name, b.Primitive)
	}
	b.vertices = append(b.vertices, start, end)
	b.colors = append(b.colors, c, c)
	return b.flushIfFull()
}

func (b *Batch) flushIfFull() error {
	if !b.IsFull() {
		return nil
	}
	b.CapacityFlushes++
	return b.Flush()
}

// Flush hands pending geometry to the sink and clears the batch. The batch
// is cleared even when the sink fails. Flushing an empty batch does nothing.
func (b *Batch) Flush() error {
	n := len(b.vertices)
	if n == 0 {
		return nil
	}
	err := b.sink.UploadAndDraw(b.vertices, b.colors, b.Primitive, b.Region)
	b.vertices = b.vertices[:0]
	b.colors = b.colors[:0]
	b.Flushes++
	if err != nil {
		return &SinkError{Batch: b.Name, Vertices: n, Err: err}
	}
	b.Uploaded += n
	return nil
}
