// package config loads application configuration from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// telegram
	TGApiID   int
	TGApiHash string
	BotToken  string
	SessionDB string

	// owner gets /debug output and unrestricted access
	OwnerID int64

	// database, optional; empty disables the user directory
	DatabaseURL string

	// nats, optional; empty disables event publishing
	NatsURL string

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string

	// replies override file, optional
	RepliesFile string
}

// Load reads configuration from environment variables with sensible defaults.
// The telegram credentials have no defaults and must be present.
func Load() (*Config, error) {
	cfg := &Config{
		TGApiID:     getEnvInt("TG_API_ID", 0),
		TGApiHash:   getEnv("TG_API_HASH", ""),
		BotToken:    getEnv("BOT_TOKEN", ""),
		SessionDB:   getEnv("SESSION_DB", "./bot-session.db"),
		OwnerID:     getEnvInt64("OWNER_ID", 0),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		NatsURL:     getEnv("NATS_URL", ""),
		HTTPPort:    getEnvInt("HTTP_PORT", 3200),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		RepliesFile: getEnv("REPLIES_FILE", ""),
	}

	if cfg.TGApiID == 0 || cfg.TGApiHash == "" {
		return nil, errors.New("TG_API_ID and TG_API_HASH are required")
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}
