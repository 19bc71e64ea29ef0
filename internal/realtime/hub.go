// Package realtime serves the /realtime WebSocket endpoint.
package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks open connections and caps how many may exist at once.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]*Conn
	pending  int
	max      int
	closed   bool
	draining sync.WaitGroup
}

// NewHub returns a hub admitting at most max connections. max <= 0 means no cap.
func NewHub(max int) *Hub {
	return &Hub{
		conns: make(map[string]*Conn),
		max:   max,
	}
}

// reserve claims a slot before the upgrade so a full hub can still answer
// with a plain HTTP error.
func (h *Hub) reserve() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if h.max > 0 && len(h.conns)+h.pending >= h.max {
		return false
	}
	h.pending++
	return true
}

func (h *Hub) cancel() {
	h.mu.Lock()
	h.pending--
	h.mu.Unlock()
}

// attach turns a reserved slot into a registered connection. It reports false
// when the hub was closed in between; the caller must then drop the socket.
func (h *Hub) attach(c *Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending--
	if h.closed {
		return false
	}
	h.conns[c.id] = c
	h.draining.Add(1)
	return true
}

func (h *Hub) detach(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c.id]; !ok {
		return
	}
	delete(h.conns, c.id)
	h.draining.Done()
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll sends a going-away close frame to every connection, refuses new
// ones and waits for the read loops to exit.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.draining.Wait()
}
