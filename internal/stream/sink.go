package stream

import (
	"encoding/json"
	"fmt"

	"github.com/Garsondee/raycaster/internal/raycast"
)

// Message types on the wire.
const (
	TypeBatch = "batch"
	TypeFrame = "frame"
)

// Region mirrors raycast.Rect with JSON names.
type Region struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	W float32 `json:"w"`
	H float32 `json:"h"`
}

// FrameSummary is the end-of-frame message body.
type FrameSummary struct {
	Columns         int     `json:"columns"`
	Hits            int     `json:"hits"`
	Misses          int     `json:"misses"`
	MinDistance     float64 `json:"min_distance"`
	MaxDistance     float64 `json:"max_distance"`
	MeanDistance    float64 `json:"mean_distance"`
	Flushes         int     `json:"flushes"`
	CapacityFlushes int     `json:"capacity_flushes"`
	Vertices        int     `json:"vertices"`
}

// Message is one websocket text frame. Batch messages carry flat vertex
// (x,y) and colour (r,g,b) arrays in upload order.
type Message struct {
	Type      string        `json:"type"`
	Frame     int           `json:"frame"`
	Seq       int           `json:"seq"`
	Primitive string        `json:"primitive,omitempty"`
	Region    *Region       `json:"region,omitempty"`
	Surface   *Region       `json:"surface,omitempty"`
	Vertices  []float32     `json:"vertices,omitempty"`
	Colors    []float32     `json:"colors,omitempty"`
	Stats     *FrameSummary `json:"stats,omitempty"`
}

// StreamSink encodes every upload as a batch message and hands it to the
// hub. Encoding happens on the caller's goroutine so the vertex slices are
// never retained.
type StreamSink struct {
	hub      *Hub
	surfaceW float32
	surfaceH float32
	frame    int
	seq      int
}

// NewStreamSink creates a sink for a w×h logical surface.
func NewStreamSink(hub *Hub, w, h int) *StreamSink {
	return &StreamSink{hub: hub, surfaceW: float32(w), surfaceH: float32(h), frame: 1}
}

// UploadAndDraw implements raycast.Sink.
func (s *StreamSink) UploadAndDraw(vertices []raycast.Vec2, colors []raycast.Color3, prim raycast.Primitive, region raycast.Rect) error {
	if len(vertices) == 0 {
		return nil
	}
	msg := Message{
		Type:      TypeBatch,
		Frame:     s.frame,
		Seq:       s.seq,
		Primitive: prim.String(),
		Region:    &Region{X: region.X, Y: region.Y, W: region.W, H: region.H},
		Surface:   &Region{W: s.surfaceW, H: s.surfaceH},
		Vertices:  make([]float32, 0, len(vertices)*2),
		Colors:    make([]float32, 0, len(colors)*3),
	}
	for _, v := range vertices {
		msg.Vertices = append(msg.Vertices, v.X, v.Y)
	}
	for _, c := range colors {
		msg.Colors = append(msg.Colors, c.R, c.G, c.B)
	}
	s.seq++
	return s.send(msg)
}

// EndFrame broadcasts the frame summary and advances the frame counter.
// Clients redraw when it arrives.
func (s *StreamSink) EndFrame(st raycast.FrameStats) error {
	msg := Message{
		Type:  TypeFrame,
		Frame: s.frame,
		Seq:   s.seq,
		Stats: &FrameSummary{
			Columns:         st.Columns,
			Hits:            st.Hits,
			Misses:          st.Misses,
			MinDistance:     st.MinDistance,
			MaxDistance:     st.MaxDistance,
			MeanDistance:    st.MeanDistance,
			Flushes:         st.Flushes,
			CapacityFlushes: st.CapacityFlushes,
			Vertices:        st.Vertices,
		},
	}
	s.frame++
	s.seq = 0
	return s.send(msg)
}

// Abandon skips to the next frame without a summary. Clients drop batches
// of a frame that never completes.
func (s *StreamSink) Abandon() {
	s.frame++
	s.seq = 0
}

// Frame returns the number of the frame being streamed.
func (s *StreamSink) Frame() int { return s.frame }

func (s *StreamSink) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", msg.Type, err)
	}
	return s.hub.Broadcast(data)
}
