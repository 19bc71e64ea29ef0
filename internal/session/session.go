// Package session attaches a cookie-backed gorilla session to every request.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/vonout/Backend/internal/cookies"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	Name       = "vonout_session"
	contextKey = "session"
)

// Values stored in the session.
const (
	KeyUserID       = "user_id"
	KeyUsername     = "username"
	KeyGlobalName   = "global_name"
	KeyAvatar       = "avatar"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
)

// Options returns the cookie attributes shared by every store.
func Options(maxAge time.Duration, secure bool) *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookieStore keeps the session values in the cookie itself, signed with
// keys.Hash and encrypted with keys.Block.
func NewCookieStore(keys cookies.Keys, opts *sessions.Options) *sessions.CookieStore {
	store := sessions.NewCookieStore(keys.Hash, keys.Block)
	store.Options = opts
	store.MaxAge(opts.MaxAge)
	return store
}

// Middleware loads the request session once and stores it in the gin
// context. A cookie that fails verification yields a fresh, empty session;
// tampered or expired cookies are expected and not logged.
func Middleware(store sessions.Store, l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := store.Get(c.Request, Name)
		if err != nil {
			var decodeErr securecookie.Error
			if l != nil && !(errors.As(err, &decodeErr) && decodeErr.IsDecode()) {
				l.WithContext(c.Request.Context()).Warn("failed to load session", zap.Error(err))
			}
		}
		c.Set(contextKey, s)
		c.Next()
	}
}

// Get returns the session attached by Middleware, nil when the middleware
// did not run.
func Get(c *gin.Context) *sessions.Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*sessions.Session)
	return s
}

// Save writes the session back to the response.
func Save(c *gin.Context, s *sessions.Session) error {
	return s.Save(c.Request, c.Writer)
}

// UserID returns the logged-in Discord user id, empty when anonymous.
func UserID(s *sessions.Session) string {
	if s == nil {
		return ""
	}
	id, _ := s.Values[KeyUserID].(string)
	return id
}

// String reads a string value, empty when missing.
func String(s *sessions.Session, key string) string {
	if s == nil {
		return ""
	}
	v, _ := s.Values[key].(string)
	return v
}

type deleter interface {
	Delete(ctx context.Context, id string) error
}

// Regenerate replaces the request session with an empty one under a new id,
// so an id planted before login never becomes authenticated. The caller
// fills and saves the returned session.
func Regenerate(c *gin.Context) (*sessions.Session, error) {
	old := Get(c)
	if old == nil {
		return nil, errors.New("session middleware not registered")
	}

	store := old.Store()
	if d, ok := store.(deleter); ok && old.ID != "" {
		if err := d.Delete(c.Request.Context(), old.ID); err != nil {
			return nil, err
		}
	}

	fresh := sessions.NewSession(store, old.Name())
	opts := *old.Options
	fresh.Options = &opts
	fresh.IsNew = true
	c.Set(contextKey, fresh)
	return fresh, nil
}

// Destroy clears the session values and expires the cookie.
func Destroy(c *gin.Context) error {
	s := Get(c)
	if s == nil {
		return nil
	}
	s.Values = make(map[interface{}]interface{})
	s.Options.MaxAge = -1
	return Save(c, s)
}
