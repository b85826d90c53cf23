package raycast

// Vec2 is a vertex position in logical surface pixels.
type Vec2 struct {
	X, Y float32
}

// Color3 is an RGB colour in [0, 1].
type Color3 struct {
	R, G, B float32
}

// Bytes converts c to 8-bit channels, clamping out-of-range components.
func (c Color3) Bytes() (r, g, b uint8) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Primitive tells the sink how to interpret a vertex sequence.
type Primitive uint8

const (
	TriangleList Primitive = iota // every 3 vertices form a triangle
	LineList                      // every 2 vertices form a segment
)

func (p Primitive) String() string {
	switch p {
	case TriangleList:
		return "triangles"
	case LineList:
		return "lines"
	default:
		return "unknown"
	}
}

// Rect is a target region of the output surface, in surface pixels.
type Rect struct {
	X, Y, W, H float32
}

// Project maps a point on the full logical surface into r. Geometry is always
// built against the whole surface; the region squeezes it into place.
func (r Rect) Project(v Vec2, surfaceW, surfaceH float32) Vec2 {
	return Vec2{
		X: r.X + v.X*r.W/surfaceW,
		Y: r.Y + v.Y*r.H/surfaceH,
	}
}

// Sink uploads and draws one batch. Zero-length input must be a no-op. The
// slices are reused after the call returns, so implementations must copy
// anything they keep.
type Sink interface {
	UploadAndDraw(vertices []Vec2, colors []Color3, prim Primitive, region Rect) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(vertices []Vec2, colors []Color3, prim Primitive, region Rect) error

// UploadAndDraw calls f.
func (f SinkFunc) UploadAndDraw(vertices []Vec2, colors []Color3, prim Primitive, region Rect) error {
	return f(vertices, colors, prim, region)
}

// DrawCall is one recorded UploadAndDraw.
type DrawCall struct {
	Vertices  []Vec2
	Colors    []Color3
	Primitive Primitive
	Region    Rect
}

// RecordingSink keeps a copy of every draw call. Used by the headless
// report and tests.
type RecordingSink struct {
	Draws []DrawCall
	// Fail, when set, is returned from every call after recording it.
	Fail error
}

// UploadAndDraw records the call.
func (rs *RecordingSink) UploadAndDraw(vertices []Vec2, colors []Color3, prim Primitive, region Rect) error {
	if len(vertices) == 0 {
		return nil
	}
	rs.Draws = append(rs.Draws, DrawCall{
		Vertices:  append([]Vec2(nil), vertices...),
		Colors:    append([]Color3(nil), colors...),
		Primitive: prim,
		Region:    region,
	})
	return rs.Fail
}

// Reset drops recorded calls and releases their vertex copies.
func (rs *RecordingSink) Reset() {
	clear(rs.Draws)
	rs.Draws = rs.Draws[:0]
}

// VertexCount returns the total vertices drawn with the given primitive.
func (rs *RecordingSink) VertexCount(prim Primitive) int {
	n := 0
	for _, d := range rs.Draws {
		if d.Primitive == prim {
			n += len(d.Vertices)
		}
	}
	return n
}
