package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Redis (optional; empty disables idle tracking and event fan-out)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Sessions
	JWTSecret              string
	SessionTokenTTLMinutes int
	IdleExpireSeconds      int
	IdleWorkerPollInterval int

	// Frame loop
	FrameRate           int
	FrameBroadcastEvery int

	// Gameplay tuning file (TOML); empty uses built-in defaults
	TuningFile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret:              getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTokenTTLMinutes: getEnvInt("SESSION_TOKEN_TTL_MINUTES", 120),
		IdleExpireSeconds:      getEnvInt("IDLE_EXPIRE_SECONDS", 600),
		IdleWorkerPollInterval: getEnvInt("IDLE_WORKER_POLL_INTERVAL", 15),

		FrameRate:           getEnvInt("FRAME_RATE", 60),
		FrameBroadcastEvery: getEnvInt("FRAME_BROADCAST_EVERY", 1),

		TuningFile: getEnv("TUNING_FILE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
