package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Splitwise OAuth2
	SplitwiseClientID     string
	SplitwiseClientSecret string
	SplitwiseAPIURL       string
	OAuthRedirectURI      string

	// Database (optional; sessions are kept in memory when empty)
	DatabaseURL string

	// Web Server
	WebBind string

	// Session
	JWTSecret      string
	SessionTimeout time.Duration

	// Presentation
	CurrencySymbol    string
	SettleDescription string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		SplitwiseClientID:     os.Getenv("SPLITWISE_CLIENT_ID"),
		SplitwiseClientSecret: os.Getenv("SPLITWISE_CLIENT_SECRET"),
		SplitwiseAPIURL:       getEnvDefault("SPLITWISE_API_URL", "https://secure.splitwise.com"),
		OAuthRedirectURI:      getEnvDefault("OAUTH_REDIRECT_URI", "http://localhost:3000/auth/callback"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		WebBind:               getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		JWTSecret:             getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		CurrencySymbol:        getEnvDefault("CURRENCY_SYMBOL", "₹"),
		SettleDescription:     getEnvDefault("SETTLE_DESCRIPTION", "Settling the expense"),
	}

	timeout, err := time.ParseDuration(getEnvDefault("SESSION_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TIMEOUT: %w", err)
	}
	cfg.SessionTimeout = timeout

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.SplitwiseClientID == "" {
		return nil, fmt.Errorf("SPLITWISE_CLIENT_ID is required")
	}
	if cfg.SplitwiseClientSecret == "" {
		return nil, fmt.Errorf("SPLITWISE_CLIENT_SECRET is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
