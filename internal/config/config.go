package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings.
type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	DBPath          string
	ScenarioDir     string
	DefaultScenario string
	WebhookURL      string
	WebhookTimeout  time.Duration
	WebhookMaxRetry time.Duration
	TransportURL    string
	TransportAPIKey string
	ReplayWorkers   int
	CallRetention   time.Duration
}

// Load reads the optional .env file, then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() Config {
	return Config{
		Port:            getenv("PORT", "8080"),
		Environment:     getenv("ENVIRONMENT", "local"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DBPath:          getenv("DB_PATH", "./dispatch.db"),
		ScenarioDir:     getenv("SCENARIO_DIR", ""),
		DefaultScenario: getenv("DEFAULT_SCENARIO", "general"),
		WebhookURL:      getenv("RESULTS_WEBHOOK_URL", ""),
		WebhookTimeout:  time.Duration(clampInt(getenvInt("RESULTS_WEBHOOK_TIMEOUT_SEC", 12), 1, 120)) * time.Second,
		WebhookMaxRetry: time.Duration(clampInt(getenvInt("RESULTS_WEBHOOK_MAX_RETRY_SEC", 30), 0, 600)) * time.Second,
		TransportURL:    getenv("TRANSPORT_URL", ""),
		TransportAPIKey: getenv("TRANSPORT_API_KEY", ""),
		ReplayWorkers:   clampInt(getenvInt("REPLAY_WORKERS", 4), 1, 64),
		CallRetention:   time.Duration(clampInt(getenvInt("CALL_RETENTION_SEC", 900), 0, 86400)) * time.Second,
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
