package realtime

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/vonout/Backend/internal/transport/httpdto"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	DefaultIdleTimeout = 5 * time.Minute
	minIdleTimeout     = 10 * time.Millisecond
)

type Config struct {
	FrontendOrigin string
	IdleTimeout    time.Duration
}

type Handler struct {
	hub         *Hub
	upgrader    websocket.Upgrader
	idleTimeout time.Duration
	logger      *eventLogger
	now         func() time.Time
}

func NewHandler(hub *Hub, cfg Config, l *logger.Logger) *Handler {
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	if idle < minIdleTimeout {
		idle = minIdleTimeout
	}
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(cfg.FrontendOrigin),
		},
		idleTimeout: idle,
		logger:      newEventLogger(l),
		now:         time.Now,
	}
}

// Handle upgrades the request, sends the hello frame and keeps the socket
// open until the peer leaves, goes idle or the hub is closed.
func (h *Handler) Handle(c *gin.Context) {
	if !h.hub.reserve() {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("too many realtime connections", "UNAVAILABLE"))
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.cancel()
		h.logger.Warn("upgrade_failed", "", zap.Error(err), zap.String("origin", c.GetHeader("Origin")))
		return
	}

	conn := newConn(uuid.NewString(), ws)
	if !h.hub.attach(conn) {
		conn.close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	h.logger.Info("connected", conn.id, zap.String("remote", conn.remote))

	if err := conn.writeJSON(HelloMessage{Type: "hello", Now: h.now().UnixMilli()}); err != nil {
		h.logger.Error("hello_failed", conn.id, err)
		conn.close(websocket.CloseInternalServerErr, "")
		h.hub.detach(conn)
		return
	}

	go h.serve(conn)
}

func (h *Handler) serve(conn *Conn) {
	defer h.hub.detach(conn)
	go conn.pingLoop(h.idleTimeout * 9 / 10)

	err := conn.readLoop(h.idleTimeout)
	var netErr net.Error
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		h.logger.Info("disconnected", conn.id)
	case errors.As(err, &netErr) && netErr.Timeout():
		h.logger.Info("idle_timeout", conn.id)
	default:
		select {
		case <-conn.done:
			h.logger.Info("closed_by_server", conn.id)
		default:
			h.logger.Warn("read_failed", conn.id, zap.Error(err))
		}
	}
	conn.close(websocket.CloseNormalClosure, "")
}

// checkOrigin admits clients without an Origin header, the configured
// frontend and pages served from this host.
func checkOrigin(frontendOrigin string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || origin == frontendOrigin {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	}
}
