package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// HelloMessage is the only text frame the server ever sends.
type HelloMessage struct {
	Type string `json:"type"`
	Now  int64  `json:"now"`
}

// Conn wraps one upgraded socket. Writes are serialized; gorilla allows a
// single concurrent writer.
type Conn struct {
	id     string
	ws     *websocket.Conn
	remote string

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{
		id:     id,
		ws:     ws,
		remote: ws.RemoteAddr().String(),
		done:   make(chan struct{}),
	}
}

func (c *Conn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(v)
}

func (c *Conn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (c *Conn) close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		c.writeMu.Unlock()
		close(c.done)
		c.ws.Close()
	})
}

// readLoop discards every inbound frame. Each frame or pong pushes the idle
// deadline forward; the loop ends when the peer goes quiet for idle.
func (c *Conn) readLoop(idle time.Duration) error {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(idle))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(idle))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return err
		}
		c.ws.SetReadDeadline(time.Now().Add(idle))
	}
}

func (c *Conn) pingLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
