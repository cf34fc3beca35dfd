// Package config loads application configuration from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	DataDir   string
	StaticDir string
	AppEnv    string

	// Sync pipeline
	SyncIntervalMin       int
	MaxConcurrentProps    int
	FetchTimeout          time.Duration
	FetchRetries          int
	FetchRatePerSec       float64
	FeedCacheTTL          time.Duration
	SweepIntervalMin      int
	BlockDismissHours     int
	UnblockDismissHours   int
}

// Load reads the .env file (if present) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8090"),
		DataDir:   getEnv("DATA_DIR", "/data"),
		StaticDir: getEnv("STATIC_DIR", "./static"),
		AppEnv:    getEnv("APP_ENV", "development"),

		SyncIntervalMin:     getEnvInt("SYNC_INTERVAL_MIN", 30),
		MaxConcurrentProps:  getEnvInt("MAX_CONCURRENT_PROPERTIES", 4),
		FetchTimeout:        time.Duration(getEnvInt("FETCH_TIMEOUT_SEC", 15)) * time.Second,
		FetchRetries:        getEnvInt("FETCH_RETRIES", 2),
		FetchRatePerSec:     getEnvFloat("FETCH_RATE_PER_SEC", 2.0),
		FeedCacheTTL:        time.Duration(getEnvInt("FEED_CACHE_TTL_MIN", 60)) * time.Minute,
		SweepIntervalMin:    getEnvInt("SWEEP_INTERVAL_MIN", 60),
		BlockDismissHours:   getEnvInt("BLOCK_ACTION_DISMISS_HOURS", 72),
		UnblockDismissHours: getEnvInt("UNBLOCK_ACTION_DISMISS_HOURS", 24),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}
