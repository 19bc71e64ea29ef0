package middleware

import (
	"mime"
	"net/http"

	"github.com/vonout/Backend/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit caps form bodies at 1 MiB.
const DefaultBodyLimit int64 = 1 << 20

// FormBodyMiddleware parses application/x-www-form-urlencoded bodies up front
// so handlers can read c.PostForm. Oversized or malformed bodies get 400.
func FormBodyMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
		if err != nil || mediaType != "application/x-www-form-urlencoded" {
			c.Next()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid form body", "INVALID_REQUEST"))
			return
		}
		c.Next()
	}
}
