package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "FRONTEND_ORIGIN", "COOKIE_SECRET", "SESSION_MAX_AGE", "DISCORD_REDIRECT_URI"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8082, cfg.Port)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendOrigin)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionMaxAge)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("FRONTEND_ORIGIN", "https://app.example.com")
	t.Setenv("WS_IDLE_TIMEOUT", "30s")
	t.Setenv("DISCORD_CLIENT_ID", "123")

	cfg := FromEnv()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://app.example.com", cfg.FrontendOrigin)
	assert.Equal(t, 30*time.Second, cfg.WSIdleTimeout)
	assert.Equal(t, "123", cfg.DiscordClientID)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("WS_IDLE_TIMEOUT", "soon")

	cfg := FromEnv()

	assert.Equal(t, 8082, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.WSIdleTimeout)
}

func TestProfileFromVercel(t *testing.T) {
	t.Setenv("VERCEL", "1")
	cfg := FromEnv()
	assert.Equal(t, ProfileServerless, cfg.Profile)
	assert.False(t, cfg.Profile.SupportsWebSocket())

	assert.True(t, ProfileStandalone.SupportsWebSocket())
}
