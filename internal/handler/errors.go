package handler

import (
	"github.com/vonout/Backend/internal/transport/httpdto"
	backend_errors "github.com/vonout/Backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// writeError answers with the envelope matching err and records err on the
// context so the error middleware logs server-side failures.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := backend_errors.HTTPStatus(err)
	c.AbortWithStatusJSON(status, httpdto.NewErrorResponse(backend_errors.PublicMessage(err), backend_errors.Code(status)))
}
