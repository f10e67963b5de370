package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string

	// Generator settings are pass-through: the core only needs to know
	// which provider the wiring should construct.
	GeneratorProvider string
	ModelName         string

	// SpeechRetryBudget is the total number of drafts allowed per
	// statement, including the first.
	SpeechRetryBudget int

	// Seed drives every random choice in the core (discussion role
	// coin flips). Fixed seed = reproducible evaluation.
	Seed int64

	// ShipMapPath optionally overrides the built-in Skeld layout.
	ShipMapPath string

	// RateLimitRPS throttles API requests; 0 disables the limiter.
	RateLimitRPS float64
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnv("PORT", "8080"),
		Environment:       getEnv("ENVIRONMENT", "development"),
		LogLevel:          parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:          getEnv("REDIS_URL", "localhost:6379"),
		GeneratorProvider: getEnv("GENERATOR_PROVIDER", "mock"),
		ModelName:         getEnv("MODEL_NAME", ""),
		SpeechRetryBudget: getEnvInt("SPEECH_RETRY_BUDGET", 3),
		Seed:              int64(getEnvInt("SEED", 1)),
		ShipMapPath:       getEnv("SHIP_MAP_PATH", ""),
		RateLimitRPS:      getEnvFloat("RATE_LIMIT_RPS", 20),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
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
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
