package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort          int
	DatabasePath        string
	JWTSecret           string
	TokenTTLHours       int
	CORSOrigin          string
	ReminderCron        string // standard 5-field cron spec for the runaway-timer scan
	ReminderMaxRunHours int    // running entries older than this trigger a reminder
	LogLevel            string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	maxRun, err := strconv.Atoi(getEnv("REMINDER_MAX_RUNNING_HOURS", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_MAX_RUNNING_HOURS: %w", err)
	}

	secret := getEnv("JWT_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	return &Config{
		ServerPort:          port,
		DatabasePath:        getEnv("DATABASE_PATH", "./timetracker.db"),
		JWTSecret:           secret,
		TokenTTLHours:       ttl,
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://localhost:3000"),
		ReminderCron:        getEnv("REMINDER_CRON", "*/15 * * * *"),
		ReminderMaxRunHours: maxRun,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
