package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type streamClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
	sent uint64
}

// send writes p unless the client already holds the same or a newer render.
func (c *streamClient) send(p published) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.seq <= c.sent {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := c.conn.WriteJSON(p.snap); err != nil {
		return err
	}
	c.sent = p.seq
	return nil
}

// streamHub fans every refreshed snapshot out to the connected websockets.
type streamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{clients: map[*streamClient]struct{}{}}
}

func (h *streamHub) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *streamHub) remove(c *streamClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

func (h *streamHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *streamHub) broadcast(p published) {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(p); err != nil {
			slog.Debug("drop radiator stream client", "remote", c.conn.RemoteAddr().String(), "error", err)
			h.remove(c)
		}
	}
}

func (h *streamHub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = map[*streamClient]struct{}{}
	h.mu.Unlock()
	for c := range clients {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		_ = c.conn.Close()
	}
}

// radiatorStreamHandler pushes the latest snapshot on connect and then every
// refresh until the client goes away.
func (s *radiatorServer) radiatorStreamHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("radiator stream upgrade failed", "error", err)
		return
	}
	c := &streamClient{conn: conn}
	s.hub.add(c)
	if p, ok := s.latestPublished(); ok {
		if err := c.send(p); err != nil {
			s.hub.remove(c)
			return
		}
	}
	slog.Info("radiator stream client connected", "remote", r.RemoteAddr, "clients", s.hub.count())

	// Clients never send data; reading only surfaces the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.remove(c)
	slog.Info("radiator stream client disconnected", "remote", r.RemoteAddr)
}
