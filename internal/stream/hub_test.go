package stream

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dial connects a websocket client to srv and waits until the hub has
// registered it.
func dial(t *testing.T, srv *httptest.Server, hub *Hub, want int) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() < want {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.Clients(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	srv := httptest.NewServer(hub)
	defer srv.Close()

	a := dial(t, srv, hub, 1)
	b := dial(t, srv, hub, 2)

	if err := hub.Broadcast([]byte(`{"type":"frame","frame":1}`)); err != nil {
		t.Fatal(err)
	}
	for i, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg Message
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatalf("client %d: %v", i, err)
		}
		if msg.Type != TypeFrame || msg.Frame != 1 {
			t.Fatalf("client %d got %+v", i, msg)
		}
	}
}

func TestHub_ForwardsCommands(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, hub, 1)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(Command{Type: "key", Action: "left"}); err != nil {
		t.Fatal(err)
	}
	select {
	case cmd := <-hub.Commands():
		if cmd.Type != "key" || cmd.Action != "left" {
			t.Fatalf("got %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not forwarded")
	}
}

func TestHub_ClientDisconnectIsRemoved(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, hub, 1)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed client still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	slow := &client{remote: "slow", send: make(chan []byte, 1)}
	fast := &client{remote: "fast", send: make(chan []byte, 4)}
	hub.clients[slow] = struct{}{}
	hub.clients[fast] = struct{}{}

	for i := 0; i < 2; i++ {
		if err := hub.Broadcast([]byte("m")); err != nil {
			t.Fatal(err)
		}
	}
	if n := hub.Clients(); n != 1 {
		t.Fatalf("clients=%d, want only the fast one", n)
	}
	if _, ok := hub.clients[fast]; !ok {
		t.Fatal("fast client was dropped")
	}
	// The queued message is still delivered before the queue reports closed.
	if _, ok := <-slow.send; !ok {
		t.Fatal("queued message lost")
	}
	if _, ok := <-slow.send; ok {
		t.Fatal("slow client queue should be closed")
	}
	if len(fast.send) != 2 {
		t.Fatalf("fast client has %d queued, want 2", len(fast.send))
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub(WithLogger(quietLogger()))
	srv := httptest.NewServer(hub)
	defer srv.Close()
	conn := dial(t, srv, hub, 1)

	hub.Close()
	if err := hub.Broadcast([]byte("late")); !errors.Is(err, ErrHubClosed) {
		t.Fatalf("broadcast after close: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("want normal close, got %v", err)
	}
}
