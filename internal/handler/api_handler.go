package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vonout/Backend/internal/discord"
	"github.com/vonout/Backend/internal/services"
	"github.com/vonout/Backend/internal/session"
	"github.com/vonout/Backend/internal/transport/httpdto"
	backend_errors "github.com/vonout/Backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// tokens are refreshed slightly before Discord expires them
const tokenExpiryLeeway = 30 * time.Second

// GuildSource is the part of the Discord client the api routes read from.
type GuildSource interface {
	CurrentUserGuilds(ctx context.Context, accessToken string) ([]discord.Guild, error)
	BotGuild(ctx context.Context, guildID string) (*discord.Guild, error)
}

// APIHandler serves /api. Every route expects middleware.RequireSession.
type APIHandler struct {
	auth   *services.AuthService
	guilds GuildSource
	now    func() time.Time
}

func NewAPIHandler(auth *services.AuthService, guilds GuildSource) *APIHandler {
	return &APIHandler{auth: auth, guilds: guilds, now: time.Now}
}

// Me returns the session user, enriched with the stored profile when
// persistence is enabled.
func (h *APIHandler) Me(c *gin.Context) {
	s := session.Get(c)
	u := sessionUser(s)

	profile, err := h.auth.Profile(c.Request.Context(), u.ID)
	switch {
	case err == nil:
		u.LastLoginAt = profile.LastLoginAt.UTC().Format(time.RFC3339)
	case errors.Is(err, backend_errors.ErrNotFound):
	default:
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(u))
}

// Guilds lists the guilds of the session user.
func (h *APIHandler) Guilds(c *gin.Context) {
	token, err := h.accessToken(c)
	if err != nil {
		writeError(c, err)
		return
	}

	guilds, err := h.guilds.CurrentUserGuilds(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := httpdto.GuildsResponse{Guilds: make([]httpdto.GuildDTO, 0, len(guilds))}
	for i := range guilds {
		resp.Guilds = append(resp.Guilds, guildDTO(&guilds[i]))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(resp))
}

// Guild looks a single guild up with the bot token.
func (h *APIHandler) Guild(c *gin.Context) {
	id := c.Param("id")
	if !isSnowflake(id) {
		writeError(c, fmt.Errorf("guild id %q: %w", id, backend_errors.ErrInvalidInput))
		return
	}

	g, err := h.guilds.BotGuild(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(guildDTO(g)))
}

// accessToken returns the user token from the session, refreshing and saving
// it first when it is about to expire.
func (h *APIHandler) accessToken(c *gin.Context) (string, error) {
	s := session.Get(c)
	token := session.String(s, session.KeyAccessToken)
	if token == "" {
		return "", fmt.Errorf("session has no discord token: %w", backend_errors.ErrUnauthorized)
	}

	expiry, _ := s.Values[session.KeyTokenExpiry].(int64)
	if expiry == 0 || h.now().Add(tokenExpiryLeeway).Before(time.Unix(expiry, 0)) {
		return token, nil
	}

	fresh, err := h.auth.RefreshToken(c.Request.Context(), session.String(s, session.KeyRefreshToken))
	if err != nil {
		return "", err
	}
	refresh := fresh.RefreshToken
	if refresh == "" {
		refresh = session.String(s, session.KeyRefreshToken)
	}
	storeToken(s, fresh.AccessToken, refresh, fresh.Expiry)
	if err := saveSession(c, s); err != nil {
		return "", err
	}
	return fresh.AccessToken, nil
}

func saveSession(c *gin.Context, s *sessions.Session) error {
	if err := session.Save(c, s); err != nil {
		return fmt.Errorf("failed to save refreshed token: %w", err)
	}
	return nil
}

func guildDTO(g *discord.Guild) httpdto.GuildDTO {
	return httpdto.GuildDTO{
		ID:          g.ID,
		Name:        g.Name,
		IconURL:     g.IconURL(),
		Owner:       g.Owner,
		Permissions: g.Permissions,
		MemberCount: g.ApproximateMemberCount,
	}
}

func avatarURL(userID, avatar string) string {
	u := discord.User{ID: userID, Avatar: avatar}
	return u.AvatarURL()
}

func isSnowflake(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
