package termview

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
)

// ErrNoPTY is returned for SSH sessions opened without a terminal.
var ErrNoPTY = errors.New("session has no pty")

// SessionTty is the tcell.Tty of one SSH session. Input and output go
// straight through to the session channel; the window size follows the
// client's pty-req and window-change requests.
type SessionTty struct {
	s       gossh.Session
	resizes <-chan gossh.Window

	mu       sync.Mutex
	size     tcell.WindowSize
	onResize func()
	watching sync.Once
}

// NewSessionTty wraps s, starting at the size in pty.
func NewSessionTty(s gossh.Session, pty gossh.Pty, resizes <-chan gossh.Window) *SessionTty {
	return &SessionTty{s: s, resizes: resizes, size: windowSize(pty.Window)}
}

func windowSize(w gossh.Window) tcell.WindowSize {
	return tcell.WindowSize{Width: w.Width, Height: w.Height}
}

func (t *SessionTty) Read(b []byte) (int, error)  { return t.s.Read(b) }
func (t *SessionTty) Write(b []byte) (int, error) { return t.s.Write(b) }
func (t *SessionTty) Close() error                { return t.s.Close() }

// The session handler owns the channel, so there is nothing to start, stop
// or drain.
func (t *SessionTty) Start() error { return nil }
func (t *SessionTty) Stop() error  { return nil }
func (t *SessionTty) Drain() error { return nil }

func (t *SessionTty) WindowSize() (tcell.WindowSize, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size, nil
}

// NotifyResize sets the callback run after each window change. The first
// call starts the watcher, which ends when the session closes the channel;
// later calls only swap the callback.
func (t *SessionTty) NotifyResize(cb func()) {
	t.mu.Lock()
	t.onResize = cb
	t.mu.Unlock()
	if t.resizes != nil {
		t.watching.Do(func() { go t.watchResizes() })
	}
}

func (t *SessionTty) watchResizes() {
	for w := range t.resizes {
		t.mu.Lock()
		t.size = windowSize(w)
		cb := t.onResize
		t.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

// termMu serialises the TERM environment swap around screen creation.
var termMu sync.Mutex

// sessionTerm returns the client's TERM, or xterm-256color.
func sessionTerm(env []string) string {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "TERM="); ok && v != "" {
			return v
		}
	}
	return "xterm-256color"
}

// NewSessionScreen builds and initialises a tcell screen for an SSH session.
func NewSessionScreen(s gossh.Session) (tcell.Screen, error) {
	pty, winCh, ok := s.Pty()
	if !ok {
		return nil, ErrNoPTY
	}
	tty := NewSessionTty(s, pty, winCh)

	termMu.Lock()
	prev, had := os.LookupEnv("TERM")
	_ = os.Setenv("TERM", sessionTerm(s.Environ()))
	screen, err := tcell.NewTerminfoScreenFromTty(tty)
	if had {
		_ = os.Setenv("TERM", prev)
	} else {
		_ = os.Unsetenv("TERM")
	}
	termMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	return screen, nil
}
