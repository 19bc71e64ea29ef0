package handler

import (
	"net/http"
	"time"

	"github.com/vonout/Backend/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

var processStart = time.Now()

// HealthHandler answers liveness probes. It touches no dependency.
type HealthHandler struct {
	start time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{start: processStart}
}

// Health returns {"status":"ok","uptime":seconds}.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.start).Seconds(),
	})
}
