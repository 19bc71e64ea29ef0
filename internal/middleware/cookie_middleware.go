package middleware

import (
	"errors"
	"time"

	"github.com/vonout/Backend/internal/cookies"

	"github.com/gin-gonic/gin"
)

const signerKey = "cookie_signer"

var errNoSigner = errors.New("signed cookies middleware not registered")

// SignedCookiesMiddleware makes the signer available to handlers through
// SetSignedCookie and SignedCookie.
func SignedCookiesMiddleware(signer *cookies.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(signerKey, signer)
		c.Next()
	}
}

func signerFrom(c *gin.Context) (*cookies.Signer, error) {
	v, ok := c.Get(signerKey)
	if !ok {
		return nil, errNoSigner
	}
	return v.(*cookies.Signer), nil
}

// SetSignedCookie writes a signed cookie. A negative maxAge clears it.
func SetSignedCookie(c *gin.Context, name, value string, maxAge time.Duration) error {
	signer, err := signerFrom(c)
	if err != nil {
		return err
	}
	return signer.SetCookie(c.Writer, name, value, maxAge)
}

// SignedCookie returns the verified value of a signed cookie.
func SignedCookie(c *gin.Context, name string) (string, error) {
	signer, err := signerFrom(c)
	if err != nil {
		return "", err
	}
	return signer.ReadCookie(c.Request, name)
}
