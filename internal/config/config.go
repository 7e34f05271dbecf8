package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite (default), postgres, mysql
	DatabasePath    string // for sqlite
	DatabaseURL     string // for postgres/mysql
	MigrationsPath  string
	ContentPath     string // directory of module JSON files
	AudioPath       string // directory of pre-recorded audio clips
	JWTSecret       string
	SessionDuration time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// An optional .env file in the working directory is loaded first.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		DatabaseType:    getEnv("DB_TYPE", "sqlite"),
		DatabasePath:    getEnv("DB_PATH", "./wordquest.db"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./migrations"),
		ContentPath:     getEnv("CONTENT_PATH", "./content"),
		AudioPath:       getEnv("AUDIO_PATH", "./content/audio"),
		JWTSecret:       getEnv("JWT_SECRET", "wordquest-dev-secret"),
		SessionDuration: getDurationEnv("SESSION_DURATION", 24*time.Hour),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads a duration from the environment or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
