package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the mailboard service
type Config struct {
	// Server
	Port     string `env:"PORT" default:"9600"`
	Host     string `env:"HOST" default:"0.0.0.0"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	// Database
	DatabaseURL string `env:"DATABASE_URL" required:"true"`

	// Session tokens
	TokenSecret   string `env:"TOKEN_SECRET" required:"true"`
	TokenIssuer   string `env:"TOKEN_ISSUER" default:"mailboard"`
	TokenAudience string `env:"TOKEN_AUDIENCE" default:"mailboard-dashboard"`

	// Google OAuth
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID" required:"true"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" required:"true"`
	GoogleOAuthBaseURL string `env:"GOOGLE_OAUTH_BASE_URL" default:"https://oauth2.googleapis.com"`
	GmailAPIBaseURL    string `env:"GMAIL_API_BASE_URL" default:"https://gmail.googleapis.com/gmail/v1"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" default:"20"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	config := &Config{}

	// Server configuration
	config.Port = getEnvOrDefault("PORT", "9600")
	config.Host = getEnvOrDefault("HOST", "0.0.0.0")
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	config.DatabaseURL = os.Getenv("DATABASE_URL")
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	// Session token configuration
	config.TokenSecret = os.Getenv("TOKEN_SECRET")
	if config.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	config.TokenIssuer = getEnvOrDefault("TOKEN_ISSUER", "mailboard")
	config.TokenAudience = getEnvOrDefault("TOKEN_AUDIENCE", "mailboard-dashboard")

	// Google OAuth configuration
	config.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	if config.GoogleClientID == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}
	config.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if config.GoogleClientSecret == "" {
		return nil, fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}
	config.GoogleOAuthBaseURL = getEnvOrDefault("GOOGLE_OAUTH_BASE_URL", "https://oauth2.googleapis.com")
	config.GmailAPIBaseURL = getEnvOrDefault("GMAIL_API_BASE_URL", "https://gmail.googleapis.com/gmail/v1")

	// Rate limiting
	var err error
	rpsStr := getEnvOrDefault("RATE_LIMIT_RPS", "10")
	config.RateLimitRPS, err = strconv.ParseFloat(rpsStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	burstStr := getEnvOrDefault("RATE_LIMIT_BURST", "20")
	burst, err := strconv.ParseInt(burstStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	config.RateLimitBurst = int(burst)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	port, err := strconv.ParseInt(c.Port, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	// HS256 keys shorter than 32 bytes weaken the signature
	if len(c.TokenSecret) < 32 {
		return fmt.Errorf("token secret must be at least 32 bytes, got: %d", len(c.TokenSecret))
	}

	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit rps must be positive, got: %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got: %d", c.RateLimitBurst)
	}

	return nil
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
