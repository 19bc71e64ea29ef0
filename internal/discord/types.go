package discord

import (
	"fmt"
	"strings"
)

const cdnURL = "https://cdn.discordapp.com"

type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Email         string `json:"email,omitempty"`
	Verified      bool   `json:"verified,omitempty"`
}

// DisplayName prefers the global name over the unique username.
func (u *User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// AvatarURL returns the CDN URL of the avatar, empty when the user has none.
func (u *User) AvatarURL() string {
	if u.Avatar == "" {
		return ""
	}
	ext := "png"
	if strings.HasPrefix(u.Avatar, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnURL, u.ID, u.Avatar, ext)
}

type Guild struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Icon                     string `json:"icon,omitempty"`
	Owner                    bool   `json:"owner,omitempty"`
	Permissions              string `json:"permissions,omitempty"`
	ApproximateMemberCount   int    `json:"approximate_member_count,omitempty"`
	ApproximatePresenceCount int    `json:"approximate_presence_count,omitempty"`
}

// IconURL returns the CDN URL of the guild icon, empty when unset.
func (g *Guild) IconURL() string {
	if g.Icon == "" {
		return ""
	}
	ext := "png"
	if strings.HasPrefix(g.Icon, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/icons/%s/%s.%s", cdnURL, g.ID, g.Icon, ext)
}

// APIError is the JSON error body Discord answers with.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s (code %d)", e.Status, e.Message, e.Code)
}
