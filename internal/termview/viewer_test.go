package termview

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/raycaster/internal/raycast"
	"github.com/gdamore/tcell/v2"
)

func statusRow(s tcell.Screen) string {
	w, h := s.Size()
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, width := s.GetContent(x, h-1)
		if width == 0 {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestViewer_HandleKey(t *testing.T) {
	scr := simScreen(t, 40, 12)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(2.5, 5.5, 90), nil)

	if v.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)) {
		t.Fatal("arrow should not quit")
	}
	if got := v.Camera().Angle; got != 90+turnStep {
		t.Fatalf("angle=%v after right arrow", got)
	}
	v.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	v.HandleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	if y := v.Camera().Y; y <= 5.5 {
		t.Fatalf("forward at 90deg should increase Y, got %v", y)
	}
	if !v.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Fatal("q should quit")
	}
	if !v.HandleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Fatal("escape should quit")
	}
}

func TestViewer_BlockedMoveStaysPut(t *testing.T) {
	scr := simScreen(t, 40, 12)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(1.1, 1.5, 180), nil)
	v.HandleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	if x := v.Camera().X; x != 1.1 {
		t.Fatalf("move into the border wall changed X to %v", x)
	}
}

func TestViewer_StatusLine(t *testing.T) {
	scr := simScreen(t, 120, 20)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(2, 5, 90), nil, raycast.WithColumns(64))
	if err := v.Frame(); err != nil {
		t.Fatal(err)
	}
	row := statusRow(scr)
	for _, want := range []string{"2.0,5.0", "∠90°", "hits 64/64", "q quit"} {
		if !strings.Contains(row, want) {
			t.Errorf("status %q missing %q", row, want)
		}
	}
}

func TestViewer_StatusTruncatesToWidth(t *testing.T) {
	scr := simScreen(t, 20, 6)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(2, 5, 90), nil, raycast.WithColumns(16))
	if err := v.Frame(); err != nil {
		t.Fatal(err)
	}
	row := statusRow(scr)
	if !strings.HasSuffix(row, "…") {
		t.Fatalf("long status should end in an ellipsis, got %q", row)
	}
}

func TestViewer_RunStopsOnQuit(t *testing.T) {
	scr := simScreen(t, 40, 12)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(2, 5, 90), nil, raycast.WithColumns(32))
	v.SetSpin(3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- v.Run(ctx, 5*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	scr.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run ended with %v, want clean quit", err)
		}
	case <-ctx.Done():
		t.Fatal("viewer did not stop on q")
	}
	if v.frames < 2 {
		t.Fatalf("only %d frames rendered", v.frames)
	}
}

func TestViewer_RunStopsOnCancel(t *testing.T) {
	scr := simScreen(t, 40, 12)
	v := NewViewer(scr, raycast.DefaultMap(), raycast.NewCamera(2, 5, 90), nil, raycast.WithColumns(32))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- v.Run(ctx, 5*time.Millisecond) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Fatalf("err=%v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("viewer ignored cancellation")
	}
}
