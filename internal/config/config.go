// Package config loads LoadForge's runtime configuration from
// environment variables with sane defaults via a small getEnv helper
// family.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Config holds application configuration.
type Config struct {
	Environment         string // "development", "staging", "production"
	ServerPort          string
	LogLevel            string
	MaxWorkers          int // coordinator fleet size; default runtime.NumCPU()
	TickIntervalMs      int
	GracePeriodSec      int
	DefaultTimeoutMs    int
	HeartbeatIntervalMs int
	HeartbeatStaleSec   int
	MetricsEnabled      bool
	APIKeySecret        string
	AuthEnabled         bool
	RateLimitEnabled    bool
	RateLimitPerSecond  float64
	AllowedOrigins      []string
	AllowedWSOrigins    []string
	CORSAllowCredentials bool
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MaxWorkers:          getEnvAsInt("MAX_WORKERS", runtime.NumCPU()),
		TickIntervalMs:      getEnvAsInt("TICK_INTERVAL_MS", 1000),
		GracePeriodSec:      getEnvAsInt("GRACE_PERIOD_SEC", 5),
		DefaultTimeoutMs:    getEnvAsInt("DEFAULT_TIMEOUT_MS", 30000),
		HeartbeatIntervalMs: getEnvAsInt("HEARTBEAT_INTERVAL_MS", 250),
		HeartbeatStaleSec:   getEnvAsInt("HEARTBEAT_STALE_SEC", 5),
		MetricsEnabled:      getEnvAsBool("METRICS_ENABLED", true),
		APIKeySecret:        getEnv("API_KEY_SECRET", ""),
		AuthEnabled:         getEnvAsBool("AUTH_ENABLED", true),
		RateLimitEnabled:    getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitPerSecond:  getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		AllowedOrigins:      getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		AllowedWSOrigins:    getEnvAsSlice("ALLOWED_WEBSOCKET_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		CORSAllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
	}

	cfg.validateAPIKeySecret()

	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}

	return cfg
}

// validateAPIKeySecret ensures APIKeySecret is set (generating a
// random one if not) and warns when it is shorter than 32 characters.
func (c *Config) validateAPIKeySecret() {
	if c.APIKeySecret == "" {
		secret := generateRandomSecret(32)
		c.APIKeySecret = secret
		zap.L().Warn("API_KEY_SECRET not set, generated random secret. Set API_KEY_SECRET in production!",
			zap.String("generated_secret_preview", secret[:8]+"..."))
		return
	}
	if len(c.APIKeySecret) < 32 {
		zap.L().Warn("API_KEY_SECRET is less than 32 characters, consider a longer secret")
	}
}

func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("fallback-secret-%d", os.Getpid())
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length]
}

// IsOriginAllowed checks if an origin is in the allowed list.
func (c *Config) IsOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// IsWebSocketOriginAllowed checks if a dashboard websocket origin is
// allowed.
func (c *Config) IsWebSocketOriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedWSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
