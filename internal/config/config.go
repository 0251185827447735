package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings backends
const (
	SettingsBackendFile     = "file"
	SettingsBackendMemory   = "memory"
	SettingsBackendRedis    = "redis"
	SettingsBackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	ServerPort         string
	FrontendURL        string
	EnableHSTS         bool
	OpenAIKey          string
	AIProvider         string
	AIModel            string
	AIBaseURL          string
	RedisURL           string
	RabbitMQURL        string
	RabbitMQPrefetch   int
	DatabaseURL        string
	SettingsBackend    string
	SettingsPath       string
	RateLimit          string
	SeedDemoData       bool
	DefaultHoursPerDay float64
	WorkerDebugMode    bool
	ServerDebugMode    bool
	LogFormat          string
	OTELEnabled        bool
	OTELEndpoint       string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:         getEnvBool("ENABLE_HSTS", false),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		AIProvider:         getEnv("AI_PROVIDER", "openai"),
		AIModel:            getEnv("AI_MODEL", ""),
		AIBaseURL:          getEnv("AI_BASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 1),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		SettingsBackend:    strings.ToLower(getEnv("SETTINGS_BACKEND", SettingsBackendFile)),
		SettingsPath:       getEnv("SETTINGS_PATH", "~/.study-planner"),
		RateLimit:          getEnv("RATE_LIMIT", "10-S"),
		SeedDemoData:       getEnvBool("SEED_DEMO_DATA", false),
		DefaultHoursPerDay: getEnvFloat("DEFAULT_HOURS_PER_DAY", 4),
		WorkerDebugMode:    getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "json")),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	switch cfg.SettingsBackend {
	case SettingsBackendFile, SettingsBackendMemory:
	case SettingsBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required for the redis settings backend")
		}
	case SettingsBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres settings backend")
		}
	default:
		return nil, fmt.Errorf("unknown SETTINGS_BACKEND %q (expected file, memory, redis or postgres)", cfg.SettingsBackend)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "console" {
		return nil, fmt.Errorf("unknown LOG_FORMAT %q (expected json or console)", cfg.LogFormat)
	}

	if cfg.DefaultHoursPerDay <= 0 || cfg.DefaultHoursPerDay > 24 {
		return nil, fmt.Errorf("DEFAULT_HOURS_PER_DAY must be between 0 and 24, got %v", cfg.DefaultHoursPerDay)
	}

	return cfg, nil
}

// AllowedOrigins returns FRONTEND_URL split on commas, trimmed and de-duplicated
func (c *Config) AllowedOrigins() []string {
	return SplitList(c.FrontendURL)
}

// SplitList splits a comma-separated value, dropping blanks and duplicates
func SplitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, p := range strings.Split(raw, ",") {
		s := strings.TrimSpace(p)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
