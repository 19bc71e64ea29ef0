package middleware

import (
	"context"
	"net/http"

	"github.com/vonout/Backend/internal/session"
	"github.com/vonout/Backend/internal/transport/httpdto"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RequireSession rejects requests without a logged-in session user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := session.UserID(session.Get(c))
		if userID == "" {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := context.WithValue(c.Request.Context(), logger.UserIdKey, userID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
