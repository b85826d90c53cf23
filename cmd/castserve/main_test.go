package main

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/Garsondee/raycaster/internal/stream"
)

func newTestCaster(t *testing.T, cam raycast.Camera) (*caster, *stream.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := stream.NewHub(stream.WithLogger(logger))
	sink := stream.NewStreamSink(hub, 320, 160)
	c := newCaster(raycast.DefaultMap(), cam, sink, hub, logger, raycast.WithSurface(320, 160), raycast.WithColumns(16))
	return c, hub
}

func TestCaster_ApplyCommands(t *testing.T) {
	c, _ := newTestCaster(t, raycast.NewCamera(2.5, 5.5, 90))

	c.apply(stream.Command{Type: "key", Action: "right"})
	if c.cam.Angle != 90+turnStep {
		t.Fatalf("angle=%v after right", c.cam.Angle)
	}
	c.apply(stream.Command{Type: "key", Action: "left"})
	c.apply(stream.Command{Type: "key", Action: "forward"})
	if math.Abs(c.cam.Y-(5.5+moveStep)) > 1e-9 {
		t.Fatalf("y=%v after forward at 90deg", c.cam.Y)
	}
	c.apply(stream.Command{Type: "key", Action: "back"})
	if math.Abs(c.cam.Y-5.5) > 1e-9 {
		t.Fatalf("y=%v after back", c.cam.Y)
	}
	c.apply(stream.Command{Type: "key", Action: "spin"})
	if !c.spinning {
		t.Fatal("spin should toggle on")
	}
	c.apply(stream.Command{Type: "mouse", Action: "spin"})
	if !c.spinning {
		t.Fatal("non-key command should be ignored")
	}
}

func TestCaster_WallBlocksMove(t *testing.T) {
	c, _ := newTestCaster(t, raycast.NewCamera(1.1, 1.5, 180))
	c.apply(stream.Command{Type: "key", Action: "forward"})
	if c.cam.X != 1.1 {
		t.Fatalf("moved into the border wall, x=%v", c.cam.X)
	}
}

func TestCaster_StepSpinsAndAdvancesFrame(t *testing.T) {
	c, _ := newTestCaster(t, raycast.NewCamera(2.5, 5.5, 90))
	c.spinning = true
	c.spinSpeed = 2
	for i := 0; i < 3; i++ {
		if err := c.step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.cam.Angle != 96 {
		t.Fatalf("angle=%v after three spinning steps", c.cam.Angle)
	}
	if c.sink.Frame() != 4 || c.comp.Frame() != 3 {
		t.Fatalf("sink frame %d, compositor frame %d", c.sink.Frame(), c.comp.Frame())
	}
}

func TestCaster_StepAbandonsFrameWhenHubClosed(t *testing.T) {
	c, hub := newTestCaster(t, raycast.NewCamera(2.5, 5.5, 90))
	hub.Close()
	err := c.step()
	if !errors.Is(err, stream.ErrHubClosed) || !errors.Is(err, raycast.ErrSinkRejected) {
		t.Fatalf("err=%v", err)
	}
	if c.sink.Frame() != 2 {
		t.Fatalf("abandoned frame not skipped, sink frame %d", c.sink.Frame())
	}
}
