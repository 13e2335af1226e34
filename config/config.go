package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all settings for both binaries, loaded from environment
// variables with defaults.
type Config struct {
	// Dashboard service
	DashboardPort  string
	GatewayBaseURL string
	RequestTimeout time.Duration

	// Data gateway service
	GatewayPort string
	PageSize    int

	// PostgreSQL (empty DSN selects the in-memory repository)
	PostgresDSN string

	// Redis response cache (empty address disables caching)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

// Load reads the configuration from the environment.
func Load() *Config {
	return &Config{
		DashboardPort:  getEnvString("DASHBOARD_PORT", "8090"),
		GatewayBaseURL: getEnvString("GATEWAY_BASE_URL", "http://localhost:8000"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),

		GatewayPort: getEnvString("GATEWAY_PORT", "8000"),
		PageSize:    getEnvInt("GATEWAY_PAGE_SIZE", 20000),

		PostgresDSN: getEnvString("POSTGRES_DSN", ""),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 15*time.Minute),
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
