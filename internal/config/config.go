package config

import (
	"fmt"
	"os"
)

// Config holds application configuration
type Config struct {
	Port          string
	DBConn        string
	LogLevel      string
	VerifyBaseURL string
	LogoPath      string
	SenderEmail   string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DBConn:        getEnv("DB_CONN", "host=localhost port=5432 user=keycred password=keycred dbname=keycred sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		VerifyBaseURL: getEnv("VERIFY_BASE_URL", "https://keycred.io/verify"),
		LogoPath:      getEnv("LOGO_PATH", "assets/keycred-logo.png"),
		SenderEmail:   getEnv("SENDER_EMAIL", "noreply@keycred.io"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.VerifyBaseURL == "" {
		return nil, fmt.Errorf("VERIFY_BASE_URL is required")
	}

	return cfg, nil
}

// EmailEnabled reports whether SMTP delivery is configured
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
