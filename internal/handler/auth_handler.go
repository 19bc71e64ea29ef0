// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/vonout/Backend/internal/middleware"
	"github.com/vonout/Backend/internal/services"
	"github.com/vonout/Backend/internal/session"
	"github.com/vonout/Backend/internal/transport/httpdto"
	"github.com/vonout/Backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const nonceCookie = "oauth_nonce"

// AuthHandler runs the Discord OAuth login flow.
type AuthHandler struct {
	service        *services.AuthService
	frontendOrigin string
	logger         *logger.Logger
}

func NewAuthHandler(service *services.AuthService, frontendOrigin string, l *logger.Logger) *AuthHandler {
	return &AuthHandler{service: service, frontendOrigin: frontendOrigin, logger: l}
}

// Login binds a nonce to the browser and redirects to Discord.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := h.service.BeginLogin(c.Query("redirect"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := middleware.SetSignedCookie(c, nonceCookie, req.Nonce, services.DefaultStateTTL); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, req.URL)
}

// Callback finishes the login Discord redirected back to and hands the
// browser over to the frontend with a fresh session.
func (h *AuthHandler) Callback(c *gin.Context) {
	nonce, _ := middleware.SignedCookie(c, nonceCookie)
	if err := middleware.SetSignedCookie(c, nonceCookie, "", -1); err != nil {
		writeError(c, err)
		return
	}

	if denied := c.Query("error"); denied != "" {
		c.Redirect(http.StatusFound, h.frontendOrigin+"/?auth_error="+url.QueryEscape(denied))
		return
	}

	result, err := h.service.CompleteLogin(c.Request.Context(), services.CallbackInput{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Nonce: nonce,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	s, err := session.Regenerate(c)
	if err != nil {
		writeError(c, err)
		return
	}
	s.Values[session.KeyUserID] = result.User.ID
	s.Values[session.KeyUsername] = result.User.Username
	s.Values[session.KeyGlobalName] = result.User.GlobalName
	s.Values[session.KeyAvatar] = result.User.Avatar
	storeToken(s, result.Token.AccessToken, result.Token.RefreshToken, result.Token.Expiry)
	if err := session.Save(c, s); err != nil {
		writeError(c, err)
		return
	}

	h.logger.WithContext(c.Request.Context()).Info("user logged in",
		zap.String("user_id", result.User.ID),
		zap.Bool("persisted", result.Stored != nil),
	)
	c.Redirect(http.StatusFound, h.frontendOrigin+result.Redirect)
}

// Logout expires the session. It succeeds for anonymous callers too.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := session.Destroy(c); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "logged out"}))
}

// Me returns the user held in the session.
func (h *AuthHandler) Me(c *gin.Context) {
	s := session.Get(c)
	if session.UserID(s) == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(sessionUser(s)))
}

func storeToken(s *sessions.Session, access, refresh string, expiry time.Time) {
	s.Values[session.KeyAccessToken] = access
	s.Values[session.KeyRefreshToken] = refresh
	var exp int64
	if !expiry.IsZero() {
		exp = expiry.Unix()
	}
	s.Values[session.KeyTokenExpiry] = exp
}

func sessionUser(s *sessions.Session) httpdto.UserDTO {
	u := httpdto.UserDTO{
		ID:         session.UserID(s),
		Username:   session.String(s, session.KeyUsername),
		GlobalName: session.String(s, session.KeyGlobalName),
	}
	if avatar := session.String(s, session.KeyAvatar); avatar != "" {
		u.AvatarURL = avatarURL(u.ID, avatar)
	}
	return u
}
