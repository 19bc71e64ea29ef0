package domain

import "time"

// User is a Discord account that has logged in at least once. ID is the
// Discord snowflake.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	GlobalName  string    `json:"global_name,omitempty"`
	Avatar      string    `json:"avatar,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	LastLoginAt time.Time `json:"last_login_at"`
}
