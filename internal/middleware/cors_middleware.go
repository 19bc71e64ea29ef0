package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware admits a single frontend origin and lets it send cookies.
// Requests carrying any other Origin still run but get no CORS headers, so
// the browser withholds the response from the calling page.
func CORSMiddleware(frontendOrigin string) gin.HandlerFunc {
	allowed := cors.New(cors.Config{
		AllowOrigins: []string{frontendOrigin},
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		AllowWebSockets:  true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && origin != frontendOrigin {
			c.Next()
			return
		}
		allowed(c)
	}
}
