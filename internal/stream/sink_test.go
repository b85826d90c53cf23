package stream

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Garsondee/raycaster/internal/raycast"
)

func TestStreamSink_FrameArrivesInOrder(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, hub, 1)

	sink := NewStreamSink(hub, 320, 160)
	comp := raycast.NewCompositor(sink, raycast.WithSurface(320, 160), raycast.WithColumns(16))
	st, err := comp.RenderFrame(raycast.NewCamera(2.5, 5.5, 90), raycast.DefaultMap())
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.EndFrame(st); err != nil {
		t.Fatal(err)
	}

	wantPrims := []string{"triangles", "lines", "triangles"}
	vertices := 0
	for seq := 0; ; seq++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read message %d: %v", seq, err)
		}
		if msg.Frame != 1 || msg.Seq != seq {
			t.Fatalf("message %d has frame=%d seq=%d", seq, msg.Frame, msg.Seq)
		}
		if msg.Type == TypeFrame {
			if seq != len(wantPrims) {
				t.Fatalf("frame summary after %d batches, want %d", seq, len(wantPrims))
			}
			if msg.Stats == nil || msg.Stats.Columns != 16 || msg.Stats.Hits != 16 {
				t.Fatalf("summary %+v", msg.Stats)
			}
			if msg.Stats.Vertices != vertices {
				t.Fatalf("summary counts %d vertices, batches carried %d", msg.Stats.Vertices, vertices)
			}
			break
		}
		if seq >= len(wantPrims) || msg.Primitive != wantPrims[seq] {
			t.Fatalf("batch %d primitive %q", seq, msg.Primitive)
		}
		if len(msg.Vertices)%2 != 0 || len(msg.Colors)/3 != len(msg.Vertices)/2 {
			t.Fatalf("batch %d: %d coords, %d colour channels", seq, len(msg.Vertices), len(msg.Colors))
		}
		if msg.Surface == nil || msg.Surface.W != 320 || msg.Surface.H != 160 {
			t.Fatalf("batch %d surface %+v", seq, msg.Surface)
		}
		vertices += len(msg.Vertices) / 2
	}
	if sink.Frame() != 2 {
		t.Fatalf("sink frame=%d after EndFrame, want 2", sink.Frame())
	}
}

func TestStreamSink_WallsTargetRightHalf(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	c := &client{remote: "test", send: make(chan []byte, 8)}
	hub.clients[c] = struct{}{}

	sink := NewStreamSink(hub, 200, 100)
	right := raycast.Rect{X: 100, W: 100, H: 100}
	b := raycast.NewBatch(raycast.BatchWalls, sink, raycast.TriangleList, right, 0)
	if err := b.AppendQuad(raycast.Vec2{X: 10, Y: 20}, raycast.Vec2{X: 5, Y: 5}, raycast.Color3{R: 1, B: 0.5}); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err != nil {
		t.Fatal(err)
	}
	msg := decode(t, <-c.send)
	if msg.Region == nil || *msg.Region != (Region{X: 100, W: 100, H: 100}) {
		t.Fatalf("region %+v", msg.Region)
	}
	// First vertex is the quad's bottom-left corner.
	if len(msg.Vertices) != 12 || msg.Vertices[0] != 10 || msg.Vertices[1] != 25 {
		t.Fatalf("vertices %v", msg.Vertices)
	}
	if msg.Colors[0] != 1 || msg.Colors[2] != 0.5 {
		t.Fatalf("colours %v", msg.Colors)
	}
}

func TestStreamSink_EmptyUploadSendsNothing(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	c := &client{remote: "test", send: make(chan []byte, 1)}
	hub.clients[c] = struct{}{}
	sink := NewStreamSink(hub, 200, 100)
	if err := sink.UploadAndDraw(nil, nil, raycast.LineList, raycast.Rect{}); err != nil {
		t.Fatal(err)
	}
	if len(c.send) != 0 {
		t.Fatal("empty upload was broadcast")
	}
}

func TestStreamSink_AbandonSkipsFrame(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	c := &client{remote: "test", send: make(chan []byte, 8)}
	hub.clients[c] = struct{}{}
	sink := NewStreamSink(hub, 200, 100)

	_ = sink.UploadAndDraw([]raycast.Vec2{{}, {X: 1}}, []raycast.Color3{{}, {}}, raycast.LineList, raycast.Rect{W: 100, H: 100})
	sink.Abandon()
	_ = sink.UploadAndDraw([]raycast.Vec2{{}, {X: 1}}, []raycast.Color3{{}, {}}, raycast.LineList, raycast.Rect{W: 100, H: 100})

	first, second := decode(t, <-c.send), decode(t, <-c.send)
	if first.Frame != 1 || second.Frame != 2 || second.Seq != 0 {
		t.Fatalf("frames %d/%d seq %d", first.Frame, second.Frame, second.Seq)
	}
}

func TestStreamSink_ClosedHubRejectsFrame(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	hub.Close()
	sink := NewStreamSink(hub, 320, 160)
	comp := raycast.NewCompositor(sink, raycast.WithSurface(320, 160), raycast.WithColumns(16))

	_, err := comp.RenderFrame(raycast.NewCamera(2.5, 5.5, 90), raycast.DefaultMap())
	if !errors.Is(err, raycast.ErrSinkRejected) || !errors.Is(err, ErrHubClosed) {
		t.Fatalf("err=%v, want sink rejection wrapping ErrHubClosed", err)
	}
	if comp.Minimap.Len()+comp.Rays.Len()+comp.Walls.Len() != 0 {
		t.Fatal("abandoned frame left geometry pending")
	}
}

func decode(t *testing.T, data []byte) Message {
	t.Helper()
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}
