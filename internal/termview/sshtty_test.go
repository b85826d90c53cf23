package termview

import (
	"bytes"
	"errors"
	"testing"
	"time"

	gossh "github.com/gliderlabs/ssh"
)

// fakeSession implements the parts of gossh.Session the tty touches.
type fakeSession struct {
	gossh.Session
	in     *bytes.Buffer
	out    bytes.Buffer
	env    []string
	hasPTY bool
	closed bool
}

func (f *fakeSession) Read(b []byte) (int, error)  { return f.in.Read(b) }
func (f *fakeSession) Write(b []byte) (int, error) { return f.out.Write(b) }
func (f *fakeSession) Close() error                { f.closed = true; return nil }
func (f *fakeSession) Environ() []string           { return f.env }
func (f *fakeSession) Pty() (gossh.Pty, <-chan gossh.Window, bool) {
	return gossh.Pty{Window: gossh.Window{Width: 80, Height: 24}}, make(chan gossh.Window), f.hasPTY
}

func TestSessionTty_PassesThroughIO(t *testing.T) {
	s := &fakeSession{in: bytes.NewBufferString("w")}
	tty := NewSessionTty(s, gossh.Pty{}, nil)
	buf := make([]byte, 4)
	n, err := tty.Read(buf)
	if err != nil || string(buf[:n]) != "w" {
		t.Fatalf("read %q, %v", buf[:n], err)
	}
	if _, err := tty.Write([]byte("frame")); err != nil || s.out.String() != "frame" {
		t.Fatalf("write reached session as %q", s.out.String())
	}
	if err := tty.Close(); err != nil || !s.closed {
		t.Fatal("close should close the session")
	}
}

func TestSessionTty_ResizeUpdatesWindow(t *testing.T) {
	winCh := make(chan gossh.Window, 1)
	tty := NewSessionTty(&fakeSession{}, gossh.Pty{Window: gossh.Window{Width: 80, Height: 24}}, winCh)

	ws, _ := tty.WindowSize()
	if ws.Width != 80 || ws.Height != 24 {
		t.Fatalf("initial size %dx%d", ws.Width, ws.Height)
	}

	resized := make(chan struct{}, 1)
	tty.NotifyResize(func() { resized <- struct{}{} })
	winCh <- gossh.Window{Width: 132, Height: 43}

	select {
	case <-resized:
	case <-time.After(2 * time.Second):
		t.Fatal("resize callback not called")
	}
	ws, _ = tty.WindowSize()
	if ws.Width != 132 || ws.Height != 43 {
		t.Fatalf("size after resize %dx%d", ws.Width, ws.Height)
	}
	close(winCh)
}

func TestSessionTty_NotifyResizeReplacesCallback(t *testing.T) {
	winCh := make(chan gossh.Window)
	defer close(winCh)
	tty := NewSessionTty(&fakeSession{}, gossh.Pty{}, winCh)

	stale := make(chan struct{}, 4)
	current := make(chan struct{}, 4)
	tty.NotifyResize(func() { stale <- struct{}{} })
	tty.NotifyResize(func() { current <- struct{}{} })

	winCh <- gossh.Window{Width: 100, Height: 30}
	winCh <- gossh.Window{Width: 90, Height: 20}
	for i := 0; i < 2; i++ {
		select {
		case <-current:
		case <-time.After(2 * time.Second):
			t.Fatalf("resize %d not delivered", i)
		}
	}
	if len(stale) != 0 {
		t.Fatal("replaced callback still called")
	}
	ws, _ := tty.WindowSize()
	if ws.Width != 90 || ws.Height != 20 {
		t.Fatalf("size %dx%d, want 90x20", ws.Width, ws.Height)
	}
}

func TestSessionTty_NoResizeChannel(t *testing.T) {
	tty := NewSessionTty(&fakeSession{}, gossh.Pty{Window: gossh.Window{Width: 40, Height: 10}}, nil)
	tty.NotifyResize(func() {})
	if ws, _ := tty.WindowSize(); ws.Width != 40 || ws.Height != 10 {
		t.Fatalf("size %dx%d", ws.Width, ws.Height)
	}
}

func TestSessionTerm(t *testing.T) {
	cases := []struct {
		env  []string
		want string
	}{
		{nil, "xterm-256color"},
		{[]string{"LANG=C", "TERM=screen"}, "screen"},
		{[]string{"TERM="}, "xterm-256color"},
	}
	for _, tc := range cases {
		if got := sessionTerm(tc.env); got != tc.want {
			t.Errorf("sessionTerm(%v)=%q, want %q", tc.env, got, tc.want)
		}
	}
}

func TestNewSessionScreen_RequiresPTY(t *testing.T) {
	_, err := NewSessionScreen(&fakeSession{in: &bytes.Buffer{}})
	if !errors.Is(err, ErrNoPTY) {
		t.Fatalf("err=%v, want ErrNoPTY", err)
	}
}
