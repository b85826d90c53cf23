// Package stream broadcasts rendered batches to websocket clients.
package stream

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultSendBuffer = 64
	writeWait         = 5 * time.Second
	maxCommandSize    = 512
)

// ErrHubClosed is returned when broadcasting after Close.
var ErrHubClosed = errors.New("stream hub closed")

// Command is a control message sent by a client.
type Command struct {
	Type   string `json:"type"`   // "key"
	Action string `json:"action"` // forward, back, left, right, spin
}

var upgrader = websocket.Upgrader{
	// Viewers are served from anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
	once   sync.Once
}

func (c *client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans messages out to every connected client. Each client has a bounded
// queue; a client that falls behind is disconnected rather than slowing the
// renderer down.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	closed     bool
	sendBuffer int
	commands   chan Command
	logger     *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithSendBuffer sets the per-client queue length.
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithLogger sets the hub's logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		sendBuffer: defaultSendBuffer,
		commands:   make(chan Command, 32),
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Commands delivers client control messages. Commands arriving while the
// channel is full are dropped.
func (h *Hub) Commands() <-chan Command { return h.commands }

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	c := &client{conn: conn, remote: conn.RemoteAddr().String(), send: make(chan []byte, h.sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", "remote", c.remote, "clients", n)

	go h.writePump(c)
	h.readPump(c)
}

// readPump decodes commands until the connection fails.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	c.conn.SetReadLimit(maxCommandSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("client read failed", "error", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.logger.Debug("bad command", "error", err)
			continue
		}
		select {
		case h.commands <- cmd:
		default:
		}
	}
}

// writePump sends queued messages until the queue is closed.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(c)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	c.closeSend()
	if ok {
		h.logger.Info("client disconnected", "remote", c.remote, "clients", n)
	}
}

// Broadcast queues msg for every client. A client whose queue is full is
// dropped. The slice is shared between clients and must not be modified.
func (h *Hub) Broadcast(msg []byte) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "remote", c.remote)
		c.closeSend()
	}
	return nil
}

// Close disconnects every client. Later broadcasts fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()
	for c := range clients {
		c.closeSend()
	}
}
