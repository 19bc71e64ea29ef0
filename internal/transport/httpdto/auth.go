package httpdto

// HealthResponse is returned by GET /health. It is not wrapped in Response.
type HealthResponse struct {
	Status string  `json:"status"`
	Uptime float64 `json:"uptime"`
}

// UserDTO is the logged-in Discord user as seen by the frontend.
type UserDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	GlobalName  string `json:"global_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	LastLoginAt string `json:"last_login_at,omitempty"`
}

// GuildDTO is returned by the /api/guilds endpoints
type GuildDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"icon_url,omitempty"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
}

// GuildsResponse wraps the guild list
type GuildsResponse struct {
	Guilds []GuildDTO `json:"guilds"`
}
