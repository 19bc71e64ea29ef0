package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Profile selects which optional capabilities the server registers.
type Profile string

var (
	ProfileStandalone Profile = "standalone"
	ProfileServerless Profile = "serverless"
)

// SupportsWebSocket reports whether long-lived socket upgrades can be served.
func (p Profile) SupportsWebSocket() bool {
	return p != ProfileServerless
}

type Config struct {
	Host           string
	Port           int
	AppMode        string
	LogMode        string
	Profile        Profile
	FrontendOrigin string
	CookieSecret   string
	SessionMaxAge  time.Duration

	DiscordClientID     string
	DiscordClientSecret string
	DiscordBotToken     string
	DiscordRedirectURI  string

	RedisURL    string
	DatabaseURL string

	AuthRateLimit    int
	WSIdleTimeout    time.Duration
	WSMaxConnections int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() *Config {
	port := getEnvAsInt("PORT", 8082)
	return &Config{
		Host:           getEnvNonEmpty("HOST", "0.0.0.0"),
		Port:           port,
		AppMode:        getEnv("APP_MODE", "debug"),
		LogMode:        getEnv("LOG_MODE", "development"),
		Profile:        detectProfile(),
		FrontendOrigin: getEnvNonEmpty("FRONTEND_ORIGIN", "http://localhost:5173"),
		CookieSecret:   getEnv("COOKIE_SECRET", ""),
		SessionMaxAge:  getEnvAsDuration("SESSION_MAX_AGE", 7*24*time.Hour),

		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordBotToken:     getEnv("DISCORD_BOT_TOKEN", ""),
		DiscordRedirectURI:  getEnv("DISCORD_REDIRECT_URI", "http://localhost:"+strconv.Itoa(port)+"/auth/callback"),

		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AuthRateLimit:    getEnvAsInt("AUTH_RATE_LIMIT", 20),
		WSIdleTimeout:    getEnvAsDuration("WS_IDLE_TIMEOUT", 5*time.Minute),
		WSMaxConnections: getEnvAsInt("WS_MAX_CONNECTIONS", 1000),
	}
}

// Vercel sets VERCEL on every deployment; its functions cannot hold sockets open.
func detectProfile() Profile {
	if _, ok := os.LookupEnv("VERCEL"); ok {
		return ProfileServerless
	}
	return ProfileStandalone
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvNonEmpty(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
