package cookies

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// Signer writes and reads HMAC-signed cookies. Values stay readable by the
// client; they only cannot be forged.
type Signer struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSigner signs with keys.Hash. Signed values older than maxAge are rejected.
func NewSigner(keys Keys, maxAge time.Duration, secure bool) *Signer {
	codec := securecookie.New(keys.Hash, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(maxAge.Seconds()))
	return &Signer{codec: codec, secure: secure}
}

func (s *Signer) Sign(name, value string) (string, error) {
	encoded, err := s.codec.Encode(name, value)
	if err != nil {
		return "", fmt.Errorf("failed to sign cookie %s: %w", name, err)
	}
	return encoded, nil
}

func (s *Signer) Verify(name, signed string) (string, error) {
	var value string
	if err := s.codec.Decode(name, signed, &value); err != nil {
		return "", fmt.Errorf("failed to verify cookie %s: %w", name, err)
	}
	return value, nil
}

// SetCookie signs value and writes it as an HttpOnly cookie on path "/".
// A negative maxAge deletes the cookie.
func (s *Signer) SetCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) error {
	signed := ""
	seconds := -1
	if maxAge >= 0 {
		var err error
		if signed, err = s.Sign(name, value); err != nil {
			return err
		}
		seconds = int(maxAge.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    signed,
		Path:     "/",
		MaxAge:   seconds,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ReadCookie returns the verified value of the named cookie.
func (s *Signer) ReadCookie(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return s.Verify(name, c.Value)
}
