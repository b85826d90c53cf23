package game

import (
	"errors"
	"image"
	"image/color"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// maxTriangleVertices is the largest multiple of six that still fits uint16
// indices. Larger uploads are split into several DrawTriangles calls.
const maxTriangleVertices = 65532

// errNoTarget is returned when a frame is drawn before the sink has a screen.
var errNoTarget = errors.New("ebiten sink: no target image")

var (
	whiteImage = ebiten.NewImage(3, 3)
	// whiteSubImage avoids sampling the border of the source image.
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// EbitenSink draws batches onto an ebiten image. Triangle lists go through
// DrawTriangles with a white source; line lists are stroked segment by
// segment.
type EbitenSink struct {
	Target    *ebiten.Image
	SurfaceW  float32
	SurfaceH  float32
	LineWidth float32

	vertices []ebiten.Vertex
	indices  []uint16
}

// NewEbitenSink creates a sink for a logical surface of w×h pixels.
func NewEbitenSink(w, h int) *EbitenSink {
	return &EbitenSink{
		SurfaceW:  float32(w),
		SurfaceH:  float32(h),
		LineWidth: 1,
	}
}

// UploadAndDraw implements raycast.Sink.
func (s *EbitenSink) UploadAndDraw(vertices []raycast.Vec2, colors []raycast.Color3, prim raycast.Primitive, region raycast.Rect) error {
	if len(vertices) == 0 {
		return nil
	}
	if s.Target == nil {
		return errNoTarget
	}
	switch prim {
	case raycast.TriangleList:
		for start := 0; start < len(vertices); start += maxTriangleVertices {
			end := min(start+maxTriangleVertices, len(vertices))
			s.buildTriangles(vertices[start:end], colors[start:end], region)
			s.Target.DrawTriangles(s.vertices, s.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{})
		}
	case raycast.LineList:
		for i := 0; i+1 < len(vertices); i += 2 {
			a := region.Project(vertices[i], s.SurfaceW, s.SurfaceH)
			b := region.Project(vertices[i+1], s.SurfaceW, s.SurfaceH)
			vector.StrokeLine(s.Target, a.X, a.Y, b.X, b.Y, s.LineWidth, rgba(colors[i]), false)
		}
	default:
		return errors.New("ebiten sink: unsupported primitive " + prim.String())
	}
	return nil
}

// buildTriangles fills the reusable vertex and index buffers for one
// DrawTriangles call.
func (s *EbitenSink) buildTriangles(vertices []raycast.Vec2, colors []raycast.Color3, region raycast.Rect) {
	s.vertices = s.vertices[:0]
	s.indices = s.indices[:0]
	for i, v := range vertices {
		p := region.Project(v, s.SurfaceW, s.SurfaceH)
		c := colors[i]
		s.vertices = append(s.vertices, ebiten.Vertex{
			DstX:   p.X,
			DstY:   p.Y,
			SrcX:   1,
			SrcY:   1,
			ColorR: c.R,
			ColorG: c.G,
			ColorB: c.B,
			ColorA: 1,
		})
		s.indices = append(s.indices, uint16(i))
	}
}

func rgba(c raycast.Color3) color.RGBA {
	r, g, b := c.Bytes()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
